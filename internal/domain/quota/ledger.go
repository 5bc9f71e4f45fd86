// Package quota owns the per-agency storage and listing counters.
//
// The ledger performs checks, not locks: callers serialise mutations of one
// agency before calling Reserve, Release, Attach or Detach.
package quota

import (
	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
)

// Ledger wraps an agency and mutates its counters in place.
type Ledger struct {
	agency *model.Agency
}

func For(a *model.Agency) *Ledger { return &Ledger{agency: a} }

// HasStorageHeadroom reports whether additional bytes fit under the limit.
// A zero-byte batch always fits.
func (l *Ledger) HasStorageHeadroom(additional int64) bool {
	if additional <= 0 {
		return true
	}
	return l.agency.StorageUsedBytes+additional <= l.agency.Subscription.StorageLimitBytes
}

// CanAddListing reports whether one more listing fits under the cap.
func (l *Ledger) CanAddListing() bool {
	return len(l.agency.ListingIDs) < l.agency.Subscription.ListingLimit
}

// CheckListing returns a *domain.ListingLimitError when the cap is reached.
func (l *Ledger) CheckListing() error {
	if !l.CanAddListing() {
		return &domain.ListingLimitError{Limit: l.agency.Subscription.ListingLimit}
	}
	return nil
}

// CheckStorage returns a *domain.StorageLimitError when additional does not fit.
func (l *Ledger) CheckStorage(additional int64) error {
	if !l.HasStorageHeadroom(additional) {
		return &domain.StorageLimitError{
			Used:      l.agency.StorageUsedBytes,
			Requested: additional,
			Limit:     l.agency.Subscription.StorageLimitBytes,
		}
	}
	return nil
}

func (l *Ledger) Reserve(bytes int64) {
	if bytes <= 0 {
		return
	}
	l.agency.StorageUsedBytes += bytes
}

// Release frees bytes and floors the counter at zero.
func (l *Ledger) Release(bytes int64) {
	if bytes <= 0 {
		return
	}
	l.agency.StorageUsedBytes -= bytes
	if l.agency.StorageUsedBytes < 0 {
		l.agency.StorageUsedBytes = 0
	}
}

// Attach adds a listing id once.
func (l *Ledger) Attach(listingID string) {
	if l.agency.OwnsListing(listingID) {
		return
	}
	l.agency.ListingIDs = append(l.agency.ListingIDs, listingID)
}

// Detach removes a listing id and reports whether it was present.
func (l *Ledger) Detach(listingID string) bool {
	ids := l.agency.ListingIDs
	for i, v := range ids {
		if v == listingID {
			l.agency.ListingIDs = append(ids[:i:i], ids[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Ledger) Usage() Usage {
	return Usage{
		StorageUsedBytes:  l.agency.StorageUsedBytes,
		StorageLimitBytes: l.agency.Subscription.StorageLimitBytes,
		ListingCount:      len(l.agency.ListingIDs),
		ListingLimit:      l.agency.Subscription.ListingLimit,
	}
}

// Usage is a read-only snapshot of the counters against their limits.
type Usage struct {
	StorageUsedBytes  int64 `json:"storageUsed"`
	StorageLimitBytes int64 `json:"storageLimit"`
	ListingCount      int   `json:"listingCount"`
	ListingLimit      int   `json:"listingLimit"`
}

func (u Usage) StoragePercent() float64 {
	return percent(float64(u.StorageUsedBytes), float64(u.StorageLimitBytes))
}

func (u Usage) ListingPercent() float64 {
	return percent(float64(u.ListingCount), float64(u.ListingLimit))
}

func percent(used, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return used / limit * 100
}
