package usecase

import (
	"bytes"
	"encoding/json"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
)

// ListingDraft is the client payload for a new listing. Nested objects arrive
// either as JSON values or as JSON-encoded strings (multipart form fields).
type ListingDraft struct {
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Price          int64              `json:"price"`
	PropertyType   model.PropertyType `json:"propertyType"`
	GoogleMapsLink string             `json:"googleMapsLink"`
	Bedrooms       int                `json:"bedrooms"`
	Bathrooms      int                `json:"bathrooms"`
	Furnished      model.Furnished    `json:"furnished"`
	Availability   model.Availability `json:"availability"`
	ListingType    model.ListingType  `json:"listingType"`
	IsFeatured     bool               `json:"isFeatured"`

	Location       json.RawMessage `json:"location"`
	Area           json.RawMessage `json:"area"`
	Features       json.RawMessage `json:"features"`
	ContactDetails json.RawMessage `json:"contactDetails"`
	SocialLinks    json.RawMessage `json:"socialLinks"`
}

// ListingPatch carries the whitelisted fields of an update. Nil means untouched.
type ListingPatch struct {
	Title          *string             `json:"title"`
	Description    *string             `json:"description"`
	Price          *int64              `json:"price"`
	PropertyType   *model.PropertyType `json:"propertyType"`
	GoogleMapsLink *string             `json:"googleMapsLink"`
	Bedrooms       *int                `json:"bedrooms"`
	Bathrooms      *int                `json:"bathrooms"`
	Furnished      *model.Furnished    `json:"furnished"`
	Availability   *model.Availability `json:"availability"`
	ListingType    *model.ListingType  `json:"listingType"`
	IsActive       *bool               `json:"isActive"`
	IsFeatured     *bool               `json:"isFeatured"`

	Location       json.RawMessage `json:"location"`
	Area           json.RawMessage `json:"area"`
	Features       json.RawMessage `json:"features"`
	ContactDetails json.RawMessage `json:"contactDetails"`
	SocialLinks    json.RawMessage `json:"socialLinks"`
}

// decodeField decodes raw into dst. A JSON string is unwrapped once and its
// content decoded. Absent or null values leave dst untouched and report false.
func decodeField(field string, raw json.RawMessage, dst interface{}) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false, &domain.MalformedInputError{Field: field, Err: err}
		}
		raw = []byte(s)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, &domain.MalformedInputError{Field: field, Err: err}
	}
	return true, nil
}

// nested holds the decoded sub-objects shared by draft and patch.
type nested struct {
	location       *model.Location
	area           *model.Area
	features       *[]string
	contactDetails *model.ContactDetails
	socialLinks    *model.ListingSocialLinks
}

func decodeNested(loc, area, features, contact, social json.RawMessage) (nested, error) {
	var n nested
	var (
		l  model.Location
		a  model.Area
		f  []string
		cd model.ContactDetails
		sl model.ListingSocialLinks
	)
	if ok, err := decodeField("location", loc, &l); err != nil {
		return n, err
	} else if ok {
		n.location = &l
	}
	if ok, err := decodeField("area", area, &a); err != nil {
		return n, err
	} else if ok {
		if a.Unit == "" {
			a.Unit = model.AreaSqft
		}
		n.area = &a
	}
	if ok, err := decodeField("features", features, &f); err != nil {
		return n, err
	} else if ok {
		n.features = &f
	}
	if ok, err := decodeField("contactDetails", contact, &cd); err != nil {
		return n, err
	} else if ok {
		n.contactDetails = &cd
	}
	if ok, err := decodeField("socialLinks", social, &sl); err != nil {
		return n, err
	} else if ok {
		n.socialLinks = &sl
	}
	return n, nil
}

func (n nested) apply(l *model.Listing) {
	if n.location != nil {
		l.Location = *n.location
	}
	if n.area != nil {
		l.Area = n.area
	}
	if n.features != nil {
		l.Features = *n.features
	}
	if n.contactDetails != nil {
		l.ContactDetails = *n.contactDetails
	}
	if n.socialLinks != nil {
		l.SocialLinks = *n.socialLinks
	}
}

// toListing builds an unsaved listing with defaults for omitted enums.
func (d ListingDraft) toListing() (*model.Listing, error) {
	n, err := decodeNested(d.Location, d.Area, d.Features, d.ContactDetails, d.SocialLinks)
	if err != nil {
		return nil, err
	}
	l := &model.Listing{
		Title:          d.Title,
		Description:    d.Description,
		Price:          d.Price,
		PropertyType:   d.PropertyType,
		GoogleMapsLink: d.GoogleMapsLink,
		Bedrooms:       d.Bedrooms,
		Bathrooms:      d.Bathrooms,
		Furnished:      d.Furnished,
		Availability:   d.Availability,
		ListingType:    d.ListingType,
		IsFeatured:     d.IsFeatured,
		Images:         []model.Image{},
		Features:       []string{},
		IsActive:       true,
	}
	if l.Furnished == "" {
		l.Furnished = model.FurnishedNone
	}
	if l.Availability == "" {
		l.Availability = model.AvailabilityAvailable
	}
	n.apply(l)
	return l, nil
}

// applyTo writes the patch onto l. images, agencyId, brokerId and views are
// not part of the patch.
func (p ListingPatch) applyTo(l *model.Listing) error {
	n, err := decodeNested(p.Location, p.Area, p.Features, p.ContactDetails, p.SocialLinks)
	if err != nil {
		return err
	}
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.GoogleMapsLink != nil {
		l.GoogleMapsLink = *p.GoogleMapsLink
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.Furnished != nil {
		l.Furnished = *p.Furnished
	}
	if p.Availability != nil {
		l.Availability = *p.Availability
	}
	if p.ListingType != nil {
		l.ListingType = *p.ListingType
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
	if p.IsFeatured != nil {
		l.IsFeatured = *p.IsFeatured
	}
	n.apply(l)
	return nil
}
