package model

import "strings"

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortPrice     SortField = "price"
	SortViews     SortField = "views"
)

// ListingFilter is the store-level predicate for listing lookups. Nil pointers
// and empty strings leave a field unconstrained.
type ListingFilter struct {
	ActiveOnly   bool
	Availability *Availability
	MinPrice     *int64
	MaxPrice     *int64
	Bedrooms     *int
	PropertyType *PropertyType
	CityContains string
	Furnished    *Furnished
	ListingType  *ListingType
	AgencyID     string
	Text         string

	SortBy   SortField
	SortDesc bool
	Offset   int
	Limit    int
}

// Matches evaluates the predicate part of the filter against one listing.
func (f ListingFilter) Matches(l *Listing) bool {
	if f.ActiveOnly && !l.IsActive {
		return false
	}
	if f.Availability != nil && l.Availability != *f.Availability {
		return false
	}
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if f.Bedrooms != nil && l.Bedrooms != *f.Bedrooms {
		return false
	}
	if f.PropertyType != nil && l.PropertyType != *f.PropertyType {
		return false
	}
	if f.CityContains != "" && !strings.Contains(strings.ToLower(l.Location.City), strings.ToLower(f.CityContains)) {
		return false
	}
	if f.Furnished != nil && l.Furnished != *f.Furnished {
		return false
	}
	if f.ListingType != nil && l.ListingType != *f.ListingType {
		return false
	}
	if f.AgencyID != "" && l.AgencyID != f.AgencyID {
		return false
	}
	if f.Text != "" {
		hay := strings.ToLower(l.Title + " " + l.Description)
		for _, w := range strings.Fields(strings.ToLower(f.Text)) {
			if !strings.Contains(hay, w) {
				return false
			}
		}
	}
	return true
}

// PreferenceSet is the structured filter extracted from free text.
type PreferenceSet struct {
	MaxPrice     *int64        `json:"maxPrice,omitempty"`
	MinPrice     *int64        `json:"minPrice,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	PropertyType *PropertyType `json:"propertyType,omitempty"`
	City         string        `json:"city,omitempty"`
	Furnished    *Furnished    `json:"furnished,omitempty"`
}

func (p PreferenceSet) IsEmpty() bool {
	return p.MaxPrice == nil && p.MinPrice == nil && p.Bedrooms == nil &&
		p.PropertyType == nil && p.City == "" && p.Furnished == nil
}
