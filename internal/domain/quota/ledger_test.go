//go:build !integration

package quota_test

import (
	"errors"
	"testing"
	"time"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/quota"
)

func basicAgency(used int64, listings int) *model.Agency {
	end := time.Now().Add(24 * time.Hour)
	a := &model.Agency{
		ID: "agency-1",
		Subscription: model.Subscription{
			PlanTier:          model.PlanBasic,
			EndDate:           &end,
			StorageLimitBytes: 1073741824,
			ListingLimit:      10,
		},
		StorageUsedBytes: used,
	}
	for i := 0; i < listings; i++ {
		a.ListingIDs = append(a.ListingIDs, string(rune('a'+i)))
	}
	return a
}

func TestLedger_HasStorageHeadroom(t *testing.T) {
	t.Run("batch over the limit is rejected", func(t *testing.T) {
		// Arrange
		a := basicAgency(1073600000, 9)
		l := quota.For(a)

		// Act
		ok := l.HasStorageHeadroom(2097152)
		err := l.CheckStorage(2097152)

		// Assert
		if ok {
			t.Fatal("expected 1073600000 + 2097152 to exceed 1073741824")
		}
		var se *domain.StorageLimitError
		if !errors.As(err, &se) {
			t.Fatalf("expected StorageLimitError, got %v", err)
		}
		if !errors.Is(err, domain.ErrStorageLimitExceeded) {
			t.Error("expected error to match ErrStorageLimitExceeded")
		}
		if se.Used != 1073600000 || se.Requested != 2097152 || se.Limit != 1073741824 {
			t.Errorf("unexpected numbers in error: %+v", se)
		}
		if a.StorageUsedBytes != 1073600000 {
			t.Errorf("expected checks to leave usage untouched, got %d", a.StorageUsedBytes)
		}
	})

	t.Run("exactly reaching the limit passes", func(t *testing.T) {
		a := basicAgency(1073741824-100, 0)
		if !quota.For(a).HasStorageHeadroom(100) {
			t.Error("expected used + add == limit to pass")
		}
	})

	t.Run("zero bytes always pass", func(t *testing.T) {
		a := basicAgency(1073741824+5, 0)
		if !quota.For(a).HasStorageHeadroom(0) {
			t.Error("expected zero-byte upload to pass even when over the limit")
		}
	})
}

func TestLedger_CanAddListing(t *testing.T) {
	if !quota.For(basicAgency(0, 9)).CanAddListing() {
		t.Error("expected 9 of 10 to allow another listing")
	}
	err := quota.For(basicAgency(0, 10)).CheckListing()
	var le *domain.ListingLimitError
	if !errors.As(err, &le) || le.Limit != 10 {
		t.Fatalf("expected ListingLimitError with limit 10, got %v", err)
	}
	if !errors.Is(err, domain.ErrListingLimitReached) {
		t.Error("expected error to match ErrListingLimitReached")
	}
	if got := err.Error(); got != "listing limit reached: your plan allows 10 properties" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestLedger_ReserveRelease(t *testing.T) {
	a := basicAgency(0, 0)
	l := quota.For(a)

	l.Reserve(3500000)
	if a.StorageUsedBytes != 3500000 {
		t.Fatalf("expected 3500000 after reserve, got %d", a.StorageUsedBytes)
	}

	l.Release(1000000)
	if a.StorageUsedBytes != 2500000 {
		t.Fatalf("expected 2500000 after release, got %d", a.StorageUsedBytes)
	}

	l.Release(9999999)
	if a.StorageUsedBytes != 0 {
		t.Errorf("expected release to floor at 0, got %d", a.StorageUsedBytes)
	}

	l.Release(1)
	if a.StorageUsedBytes != 0 {
		t.Errorf("expected repeated release to stay at 0, got %d", a.StorageUsedBytes)
	}

	l.Reserve(-5)
	if a.StorageUsedBytes != 0 {
		t.Errorf("expected negative reserve to be ignored, got %d", a.StorageUsedBytes)
	}
}

func TestLedger_AttachDetach(t *testing.T) {
	a := basicAgency(0, 0)
	l := quota.For(a)

	l.Attach("x")
	l.Attach("y")
	l.Attach("x")
	if a.ListingCount() != 2 {
		t.Fatalf("expected attach to be idempotent, got %v", a.ListingIDs)
	}

	before := a.ListingIDs
	if !l.Detach("x") {
		t.Fatal("expected detach of known id to succeed")
	}
	if l.Detach("x") {
		t.Error("expected second detach to report absence")
	}
	if len(a.ListingIDs) != 1 || a.ListingIDs[0] != "y" {
		t.Errorf("unexpected ids after detach: %v", a.ListingIDs)
	}
	if before[0] != "x" {
		t.Error("expected detach not to rewrite the previous backing array")
	}
}

func TestUsage_Percentages(t *testing.T) {
	u := quota.For(basicAgency(1073741824/2, 5)).Usage()
	if u.StoragePercent() != 50 {
		t.Errorf("expected 50%% storage, got %v", u.StoragePercent())
	}
	if u.ListingPercent() != 50 {
		t.Errorf("expected 50%% listings, got %v", u.ListingPercent())
	}
	if (quota.Usage{}).StoragePercent() != 0 {
		t.Error("expected zero limit to report 0%")
	}
}
