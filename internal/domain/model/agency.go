package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"realty-marketplace/internal/domain"
)

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type AgencySocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// Agency is the tenant. StorageUsedBytes and ListingIDs form the quota ledger
// and are only changed through the quota package.
type Agency struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Name        string            `json:"agencyName"`
	Description string            `json:"description"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Address     Address           `json:"address"`
	Logo        string            `json:"logo,omitempty"`
	Website     string            `json:"website,omitempty"`
	SocialLinks AgencySocialLinks `json:"socialLinks"`

	Subscription     Subscription `json:"subscription"`
	StorageUsedBytes int64        `json:"storageUsed"`
	ListingIDs       []string     `json:"listingIds"`

	IsActive   bool      `json:"isActive"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AgencyProfile holds the owner-editable fields.
type AgencyProfile struct {
	Name        string
	Description string
	Email       string
	Phone       string
	Address     Address
	Logo        string
	Website     string
	SocialLinks AgencySocialLinks
}

// NewAgency validates and constructs a tenant with an opened subscription.
func NewAgency(ownerID string, profile AgencyProfile, sub Subscription) (*Agency, error) {
	if ownerID == "" || strings.TrimSpace(profile.Name) == "" || strings.TrimSpace(profile.Email) == "" || strings.TrimSpace(profile.Phone) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Agency{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(profile.Name),
		Description: profile.Description,
		Email:       strings.ToLower(strings.TrimSpace(profile.Email)),
		Phone:       profile.Phone,
		Address:     profile.Address,
		Logo:        profile.Logo,
		Website:     profile.Website,
		SocialLinks: profile.SocialLinks,

		Subscription: sub,
		ListingIDs:   []string{},

		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (a *Agency) ListingCount() int { return len(a.ListingIDs) }

func (a *Agency) OwnsListing(id string) bool {
	for _, v := range a.ListingIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store snapshots never alias caller state.
func (a *Agency) Clone() *Agency {
	if a == nil {
		return nil
	}
	c := *a
	c.ListingIDs = append([]string(nil), a.ListingIDs...)
	if a.Subscription.EndDate != nil {
		end := *a.Subscription.EndDate
		c.Subscription.EndDate = &end
	}
	return &c
}
