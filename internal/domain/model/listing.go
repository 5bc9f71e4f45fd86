package model

import (
	"strings"
	"time"

	"realty-marketplace/internal/domain"
)

type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyCondo      PropertyType = "condo"
	PropertyTownhouse  PropertyType = "townhouse"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
	PropertyOffice     PropertyType = "office"
)

// PropertyTypes is the closed vocabulary in its matching order.
var PropertyTypes = []PropertyType{
	PropertyApartment,
	PropertyHouse,
	PropertyVilla,
	PropertyCondo,
	PropertyTownhouse,
	PropertyLand,
	PropertyCommercial,
	PropertyOffice,
}

type Furnished string

const (
	FurnishedFull Furnished = "furnished"
	FurnishedSemi Furnished = "semi-furnished"
	FurnishedNone Furnished = "unfurnished"
)

type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilitySold        Availability = "sold"
	AvailabilityRented      Availability = "rented"
	AvailabilityUnavailable Availability = "unavailable"
)

type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

type AreaUnit string

const (
	AreaSqft AreaUnit = "sqft"
	AreaSqm  AreaUnit = "sqm"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state,omitempty"`
	ZipCode     string       `json:"zipCode,omitempty"`
	Country     string       `json:"country,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Area struct {
	Value float64  `json:"value"`
	Unit  AreaUnit `json:"unit"`
}

type ContactDetails struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

type ListingSocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Image is one stored picture. SizeBytes is the stored size at upload time.
type Image struct {
	URL        string `json:"url"`
	SizeBytes  int64  `json:"size"`
	StorageKey string `json:"filename"`
}

type Listing struct {
	ID             string             `json:"id"`
	AgencyID       string             `json:"agencyId"`
	BrokerID       string             `json:"brokerId,omitempty"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Price          int64              `json:"price"`
	PropertyType   PropertyType       `json:"propertyType"`
	Location       Location           `json:"location"`
	GoogleMapsLink string             `json:"googleMapsLink,omitempty"`
	Images         []Image            `json:"images"`
	Bedrooms       int                `json:"bedrooms"`
	Bathrooms      int                `json:"bathrooms"`
	Area           *Area              `json:"area,omitempty"`
	Furnished      Furnished          `json:"furnished"`
	Availability   Availability       `json:"availability"`
	ListingType    ListingType        `json:"listingType"`
	Features       []string           `json:"features"`
	ContactDetails ContactDetails     `json:"contactDetails"`
	SocialLinks    ListingSocialLinks `json:"socialLinks"`
	Views          int                `json:"views"`
	IsActive       bool               `json:"isActive"`
	IsFeatured     bool               `json:"isFeatured"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// TotalImageSize sums the stored image sizes.
func (l *Listing) TotalImageSize() int64 {
	var total int64
	for _, img := range l.Images {
		total += img.SizeBytes
	}
	return total
}

// Validate checks required fields and enum values.
func (l *Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.Title) == "",
		strings.TrimSpace(l.Description) == "",
		strings.TrimSpace(l.Location.Address) == "",
		strings.TrimSpace(l.Location.City) == "",
		l.Price < 0, l.Bedrooms < 0, l.Bathrooms < 0:
		return domain.ErrInvalidArgument
	}
	if !l.PropertyType.Valid() || !l.Furnished.Valid() || !l.Availability.Valid() || !l.ListingType.Valid() {
		return domain.ErrInvalidArgument
	}
	if l.Area != nil && l.Area.Unit != AreaSqft && l.Area.Unit != AreaSqm {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Clone returns a deep copy.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Images = append([]Image(nil), l.Images...)
	c.Features = append([]string(nil), l.Features...)
	if l.Area != nil {
		a := *l.Area
		c.Area = &a
	}
	if l.Location.Coordinates != nil {
		co := *l.Location.Coordinates
		c.Location.Coordinates = &co
	}
	return &c
}

func (t PropertyType) Valid() bool {
	for _, v := range PropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (f Furnished) Valid() bool {
	return f == FurnishedFull || f == FurnishedSemi || f == FurnishedNone
}

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilitySold, AvailabilityRented, AvailabilityUnavailable:
		return true
	}
	return false
}

func (t ListingType) Valid() bool { return t == ListingSale || t == ListingRent }

// UploadedFile is what the upload collaborator hands over for each accepted file.
type UploadedFile struct {
	Path             string
	OriginalFilename string
	MimeType         string
}
