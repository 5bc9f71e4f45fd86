// Package search turns free-text requests into listing filters.
package search

import (
	"regexp"
	"strconv"
	"strings"

	"realty-marketplace/internal/domain/model"
)

var (
	priceRe   = regexp.MustCompile(`(\$|usd|dollars?)\s*(\d+k?)|(\d+k?)\s*(\$|usd|dollars?)|under\s+(\d+k?)|below\s+(\d+k?)|up\s+to\s+(\d+k?)`)
	bedroomRe = regexp.MustCompile(`(\d+)\s*(bed|bedroom|br)`)
	cityRe    = regexp.MustCompile(`(?i)\bin\s+([a-z\s]+?)(?:\s|,|$)`)
)

// Extract reads price ceiling, bedroom count, property type, city and
// furnishing from text. Every field is matched independently; fields without a
// hit stay unset. No rule produces a minimum price.
func Extract(text string) model.PreferenceSet {
	var p model.PreferenceSet
	lower := strings.ToLower(text)

	if m := priceRe.FindStringSubmatch(lower); m != nil {
		for _, g := range []int{2, 3, 5, 6, 7} {
			if m[g] == "" {
				continue
			}
			if v, ok := parseAmount(m[g]); ok {
				p.MaxPrice = &v
			}
			break
		}
	}

	if m := bedroomRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.Bedrooms = &n
		}
	}

	for _, t := range model.PropertyTypes {
		if strings.Contains(lower, string(t)) {
			pt := t
			p.PropertyType = &pt
			break
		}
	}

	if m := cityRe.FindStringSubmatch(text); m != nil {
		if city := strings.TrimSpace(m[1]); city != "" {
			p.City = city
		}
	}

	switch {
	case strings.Contains(lower, "unfurnished"):
		f := model.FurnishedNone
		p.Furnished = &f
	case strings.Contains(lower, "furnished"):
		f := model.FurnishedFull
		p.Furnished = &f
	}

	return p
}

// parseAmount reads "500" or "500k".
func parseAmount(s string) (int64, bool) {
	mult := int64(1)
	if strings.HasSuffix(s, "k") {
		mult = 1000
		s = strings.TrimSuffix(s, "k")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
