package search

import "realty-marketplace/internal/domain/model"

const (
	ChatResultLimit  = 5
	VoiceResultLimit = 3
)

// BuildQuery converts preferences into a store filter over active, available
// listings. Price bounds are inclusive and the city matches as a
// case-insensitive substring.
func BuildQuery(p model.PreferenceSet, limit int) model.ListingFilter {
	avail := model.AvailabilityAvailable
	f := model.ListingFilter{
		ActiveOnly:   true,
		Availability: &avail,
		MinPrice:     p.MinPrice,
		MaxPrice:     p.MaxPrice,
		Bedrooms:     p.Bedrooms,
		PropertyType: p.PropertyType,
		CityContains: p.City,
		Furnished:    p.Furnished,
		SortBy:       model.SortCreatedAt,
		SortDesc:     true,
		Limit:        limit,
	}
	return f
}
