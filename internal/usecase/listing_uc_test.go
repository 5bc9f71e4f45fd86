//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/usecase"
)

func newListingUC(f *fixture) usecase.ListingUseCase {
	return usecase.NewListingUseCase(f.store, f.agencies, f.listings, f.storage, f.locker, newTestLogger())
}

func TestListingUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should create listing and reserve storage", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		files := []model.UploadedFile{
			f.storage.Put("property-a.jpg", 1_000_000),
			f.storage.Put("property-b.jpg", 2_500_000),
		}

		// --- Act ---
		l, err := uc.Create(ctx, "owner-1", validDraft(), files)

		// --- Assert ---
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if l.AgencyID != a.ID || l.BrokerID != "owner-1" {
			t.Errorf("ownership = (%s, %s), want (%s, owner-1)", l.AgencyID, l.BrokerID, a.ID)
		}
		if len(l.Images) != 2 || l.TotalImageSize() != 3_500_000 {
			t.Errorf("images = %d / %d bytes, want 2 / 3500000", len(l.Images), l.TotalImageSize())
		}
		if l.Images[0].URL != "/uploads/properties/property-a.jpg" {
			t.Errorf("image url = %q", l.Images[0].URL)
		}
		if l.Furnished != model.FurnishedNone || l.Availability != model.AvailabilityAvailable || !l.IsActive {
			t.Errorf("defaults not applied: furnished=%s availability=%s active=%v", l.Furnished, l.Availability, l.IsActive)
		}
		got := f.agency(t, a.ID)
		if got.StorageUsedBytes != 3_500_000 {
			t.Errorf("StorageUsedBytes = %d, want 3500000", got.StorageUsedBytes)
		}
		if len(got.ListingIDs) != 1 || got.ListingIDs[0] != l.ID {
			t.Errorf("ListingIDs = %v, want [%s]", got.ListingIDs, l.ID)
		}
	})

	t.Run("should reject batch over the storage limit and delete the files", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{usedBytes: 1_073_600_000, listings: 9})
		uc := newListingUC(f)
		files := []model.UploadedFile{
			f.storage.Put("property-big1.jpg", 1_048_576),
			f.storage.Put("property-big2.jpg", 1_048_576),
		}

		// --- Act ---
		_, err := uc.Create(ctx, "owner-1", validDraft(), files)

		// --- Assert ---
		if !errors.Is(err, domain.ErrStorageLimitExceeded) {
			t.Fatalf("Create() error = %v, want ErrStorageLimitExceeded", err)
		}
		var limitErr *domain.StorageLimitError
		if !errors.As(err, &limitErr) || limitErr.Requested != 2_097_152 || limitErr.Limit != 1_073_741_824 {
			t.Errorf("StorageLimitError = %+v", limitErr)
		}
		if f.storage.Has("property-big1.jpg") || f.storage.Has("property-big2.jpg") {
			t.Error("uploaded files should be deleted after rejection")
		}
		got := f.agency(t, a.ID)
		if got.StorageUsedBytes != 1_073_600_000 || len(got.ListingIDs) != 9 {
			t.Errorf("counters changed: %d bytes, %d listings", got.StorageUsedBytes, len(got.ListingIDs))
		}
	})

	t.Run("should reject expired subscription", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		past := time.Now().Add(-time.Hour)
		f.seedAgency(t, "owner-1", agencyOpts{end: &past})
		uc := newListingUC(f)
		files := []model.UploadedFile{f.storage.Put("property-x.jpg", 10)}

		// --- Act ---
		_, err := uc.Create(ctx, "owner-1", validDraft(), files)

		// --- Assert ---
		if !errors.Is(err, domain.ErrSubscriptionExpired) {
			t.Fatalf("Create() error = %v, want ErrSubscriptionExpired", err)
		}
		if f.storage.Has("property-x.jpg") {
			t.Error("file should be discarded")
		}
	})

	t.Run("should reject when listing cap is reached", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{listings: 10})
		uc := newListingUC(f)

		// --- Act ---
		_, err := uc.Create(ctx, "owner-1", validDraft(), nil)

		// --- Assert ---
		var limitErr *domain.ListingLimitError
		if !errors.As(err, &limitErr) || limitErr.Limit != 10 {
			t.Fatalf("Create() error = %v, want ListingLimitError{10}", err)
		}
	})

	t.Run("should return not found for owner without agency", func(t *testing.T) {
		f := newFixture(t)
		uc := newListingUC(f)

		_, err := uc.Create(ctx, "nobody", validDraft(), nil)

		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Create() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("should report malformed location field", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		draft := validDraft()
		draft.Location = []byte(`"{not json"`)
		files := []model.UploadedFile{f.storage.Put("property-m.jpg", 100)}

		// --- Act ---
		_, err := uc.Create(ctx, "owner-1", draft, files)

		// --- Assert ---
		if !errors.Is(err, domain.ErrMalformedInput) {
			t.Fatalf("Create() error = %v, want ErrMalformedInput", err)
		}
		var mErr *domain.MalformedInputError
		if !errors.As(err, &mErr) || mErr.Field != "location" {
			t.Errorf("MalformedInputError = %+v, want field location", mErr)
		}
		if f.storage.Has("property-m.jpg") {
			t.Error("file should be discarded")
		}
		if got := f.agency(t, a.ID); got.StorageUsedBytes != 0 || len(got.ListingIDs) != 0 {
			t.Errorf("counters changed: %d bytes, %d listings", got.StorageUsedBytes, len(got.ListingIDs))
		}
	})

	t.Run("should decode nested fields sent as JSON strings", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		draft := validDraft()
		draft.Location = []byte(`"{\"address\":\"5 Main St\",\"city\":\"Boston\"}"`)
		draft.Area = []byte(`{"value":120}`)
		draft.Features = []byte(`"[\"pool\",\"garage\"]"`)

		// --- Act ---
		l, err := uc.Create(ctx, "owner-1", draft, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if l.Location.City != "Boston" || l.Location.Address != "5 Main St" {
			t.Errorf("Location = %+v", l.Location)
		}
		if l.Area == nil || l.Area.Unit != model.AreaSqft {
			t.Errorf("Area = %+v, want default unit sqft", l.Area)
		}
		if len(l.Features) != 2 || l.Features[1] != "garage" {
			t.Errorf("Features = %v", l.Features)
		}
	})

	t.Run("should roll back when the context is cancelled mid-request", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		f.storage.Put("property-c.jpg", 500)
		f.storage.StatFunc = func(context.Context, string) (int64, error) {
			cancel()
			return 500, nil
		}

		// --- Act ---
		_, err := uc.Create(cctx, "owner-1", validDraft(), []model.UploadedFile{{Path: "property-c.jpg"}})

		// --- Assert ---
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Create() error = %v, want context.Canceled", err)
		}
		got := f.agency(t, a.ID)
		if got.StorageUsedBytes != 0 || len(got.ListingIDs) != 0 {
			t.Errorf("counters changed: %d bytes, %d listings", got.StorageUsedBytes, len(got.ListingIDs))
		}
		items, total, err := f.listings.Search(ctx, repository.NoTX, model.ListingFilter{AgencyID: a.ID})
		if err != nil || total != 0 || len(items) != 0 {
			t.Errorf("listing persisted after cancel: total=%d err=%v", total, err)
		}
		if f.storage.Has("property-c.jpg") {
			t.Error("file should be discarded even though ctx was cancelled")
		}
	})

	t.Run("should roll back listing when the ledger write fails", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		boom := errors.New("ledger write failed")
		f.agencies.SaveLedgerFunc = func(context.Context, repository.Tx, string, int64, []string) error { return boom }
		uc := newListingUC(f)

		// --- Act ---
		_, err := uc.Create(ctx, "owner-1", validDraft(), []model.UploadedFile{f.storage.Put("property-l.jpg", 42)})

		// --- Assert ---
		if !errors.Is(err, boom) {
			t.Fatalf("Create() error = %v, want %v", err, boom)
		}
		if _, total, _ := f.listings.Search(ctx, repository.NoTX, model.ListingFilter{AgencyID: a.ID}); total != 0 {
			t.Errorf("listing persisted after ledger failure: %d", total)
		}
	})

	t.Run("should admit exactly one concurrent create at the last slot", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{listings: 9})
		uc := newListingUC(f)
		const workers = 5

		// --- Act ---
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = uc.Create(ctx, "owner-1", validDraft(), nil)
			}(i)
		}
		wg.Wait()

		// --- Assert ---
		var ok, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrListingLimitReached):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		if ok != 1 || rejected != workers-1 {
			t.Errorf("ok=%d rejected=%d, want 1/%d", ok, rejected, workers-1)
		}
		if got := f.agency(t, a.ID); len(got.ListingIDs) != 10 {
			t.Errorf("ListingIDs = %d, want 10", len(got.ListingIDs))
		}
	})
}

func TestListingUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("should append new images and patch fields", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), []model.UploadedFile{f.storage.Put("property-1.jpg", 1000)})
		if err != nil {
			t.Fatal(err)
		}
		sold := model.AvailabilitySold

		// --- Act ---
		updated, err := uc.Update(ctx, "owner-1", l.ID, usecase.ListingPatch{
			Title:        ptr("Renovated apartment"),
			Availability: &sold,
		}, []model.UploadedFile{f.storage.Put("property-2.jpg", 2000)})

		// --- Assert ---
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Title != "Renovated apartment" || updated.Availability != model.AvailabilitySold {
			t.Errorf("patch not applied: %+v", updated)
		}
		if len(updated.Images) != 2 || updated.Images[0].StorageKey != "property-1.jpg" {
			t.Errorf("Images = %+v, want existing image kept and new one appended", updated.Images)
		}
		if got := f.agency(t, a.ID); got.StorageUsedBytes != 3000 {
			t.Errorf("StorageUsedBytes = %d, want 3000", got.StorageUsedBytes)
		}
	})

	t.Run("should forbid updating another agency's listing", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		f.seedAgency(t, "owner-2", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), nil)
		if err != nil {
			t.Fatal(err)
		}
		files := []model.UploadedFile{f.storage.Put("property-z.jpg", 10)}

		// --- Act ---
		_, err = uc.Update(ctx, "owner-2", l.ID, usecase.ListingPatch{Title: ptr("mine now")}, files)

		// --- Assert ---
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("Update() error = %v, want ErrForbidden", err)
		}
		if f.storage.Has("property-z.jpg") {
			t.Error("file should be discarded")
		}
	})

	t.Run("should forbid owner without agency", func(t *testing.T) {
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), nil)
		if err != nil {
			t.Fatal(err)
		}

		_, err = uc.Update(ctx, "stranger", l.ID, usecase.ListingPatch{}, nil)

		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("Update() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("should return not found for unknown listing", func(t *testing.T) {
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)

		_, err := uc.Update(ctx, "owner-1", "missing", usecase.ListingPatch{}, nil)

		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("should reject added images over the storage limit", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), nil)
		if err != nil {
			t.Fatal(err)
		}
		huge := f.storage.Put("property-huge.jpg", model.GiB+1)

		// --- Act ---
		_, err = uc.Update(ctx, "owner-1", l.ID, usecase.ListingPatch{Title: ptr("changed")}, []model.UploadedFile{huge})

		// --- Assert ---
		if !errors.Is(err, domain.ErrStorageLimitExceeded) {
			t.Fatalf("Update() error = %v, want ErrStorageLimitExceeded", err)
		}
		stored, _ := f.listings.FindByID(ctx, repository.NoTX, l.ID)
		if stored.Title != "Sunny apartment" {
			t.Errorf("title changed to %q despite rejection", stored.Title)
		}
		if got := f.agency(t, a.ID); got.StorageUsedBytes != 0 {
			t.Errorf("StorageUsedBytes = %d, want 0", got.StorageUsedBytes)
		}
	})
}

func TestListingUseCase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("should release storage and detach the listing", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), []model.UploadedFile{
			f.storage.Put("property-d1.jpg", 1_000_000),
			f.storage.Put("property-d2.jpg", 2_500_000),
		})
		if err != nil {
			t.Fatal(err)
		}

		// --- Act ---
		err = uc.Delete(ctx, "owner-1", l.ID)

		// --- Assert ---
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		got := f.agency(t, a.ID)
		if got.StorageUsedBytes != 0 || len(got.ListingIDs) != 0 {
			t.Errorf("ledger = %d bytes %v, want 0 bytes []", got.StorageUsedBytes, got.ListingIDs)
		}
		if _, err := f.listings.FindByID(ctx, repository.NoTX, l.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("FindByID() error = %v, want ErrNotFound", err)
		}
		if f.storage.Has("property-d1.jpg") || f.storage.Has("property-d2.jpg") {
			t.Error("image files should be removed")
		}
	})

	t.Run("should succeed when a file cannot be removed", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		a := f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), []model.UploadedFile{f.storage.Put("property-e.jpg", 700)})
		if err != nil {
			t.Fatal(err)
		}
		f.storage.DeleteFunc = func(context.Context, string) error { return errors.New("disk busy") }

		// --- Act ---
		err = uc.Delete(ctx, "owner-1", l.ID)

		// --- Assert ---
		if err != nil {
			t.Fatalf("Delete() error = %v, want nil", err)
		}
		if got := f.agency(t, a.ID); got.StorageUsedBytes != 0 {
			t.Errorf("StorageUsedBytes = %d, want 0", got.StorageUsedBytes)
		}
		if len(f.storage.Deleted) != 1 || f.storage.Deleted[0] != "property-e.jpg" {
			t.Errorf("Deleted = %v", f.storage.Deleted)
		}
	})

	t.Run("should forbid deleting another agency's listing", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		other := f.seedAgency(t, "owner-2", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), []model.UploadedFile{f.storage.Put("property-k.jpg", 5)})
		if err != nil {
			t.Fatal(err)
		}

		// --- Act ---
		err = uc.Delete(ctx, "owner-2", l.ID)

		// --- Assert ---
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("Delete() error = %v, want ErrForbidden", err)
		}
		if !f.storage.Has("property-k.jpg") {
			t.Error("file should be kept")
		}
		if got := f.agency(t, other.ID); got.StorageUsedBytes != 0 {
			t.Errorf("other agency ledger changed: %d", got.StorageUsedBytes)
		}
	})

	t.Run("should return not found for unknown listing", func(t *testing.T) {
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)

		err := uc.Delete(ctx, "owner-1", "missing")

		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func TestListingUseCase_Read(t *testing.T) {
	ctx := context.Background()

	t.Run("should count a view on every get", func(t *testing.T) {
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		uc := newListingUC(f)
		l, err := uc.Create(ctx, "owner-1", validDraft(), nil)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := uc.Get(ctx, l.ID); err != nil {
			t.Fatal(err)
		}
		got, err := uc.Get(ctx, l.ID)

		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Views != 2 {
			t.Errorf("Views = %d, want 2", got.Views)
		}
	})

	t.Run("should browse active listings page by page", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{tier: model.PlanPro})
		uc := newListingUC(f)
		var hidden string
		for i := 0; i < 5; i++ {
			d := validDraft()
			d.Title = fmt.Sprintf("Listing %d", i)
			d.Price = int64(100_000 * (i + 1))
			l, err := uc.Create(ctx, "owner-1", d, nil)
			if err != nil {
				t.Fatal(err)
			}
			hidden = l.ID
		}
		if _, err := uc.Update(ctx, "owner-1", hidden, usecase.ListingPatch{IsActive: ptr(false)}, nil); err != nil {
			t.Fatal(err)
		}

		// --- Act ---
		page, err := uc.Browse(ctx, usecase.BrowseQuery{
			Filter: model.ListingFilter{SortBy: model.SortPrice},
			Page:   2,
			Limit:  3,
		})

		// --- Assert ---
		if err != nil {
			t.Fatalf("Browse() error = %v", err)
		}
		if page.Total != 4 || page.Pages != 2 || page.Page != 2 {
			t.Errorf("page = %+v, want total 4 pages 2 page 2", page)
		}
		if len(page.Listings) != 1 || page.Listings[0].Price != 400_000 {
			t.Errorf("second page = %v, want the 400000 listing", page.Listings)
		}
	})

	t.Run("should reject unknown sort field", func(t *testing.T) {
		f := newFixture(t)
		uc := newListingUC(f)

		_, err := uc.Browse(ctx, usecase.BrowseQuery{Filter: model.ListingFilter{SortBy: "bedrooms"}})

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("Browse() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("should list only the owner's listings", func(t *testing.T) {
		f := newFixture(t)
		f.seedAgency(t, "owner-1", agencyOpts{})
		f.seedAgency(t, "owner-2", agencyOpts{})
		uc := newListingUC(f)
		for _, owner := range []string{"owner-1", "owner-1", "owner-2"} {
			if _, err := uc.Create(ctx, owner, validDraft(), nil); err != nil {
				t.Fatal(err)
			}
		}

		mine, err := uc.ListMine(ctx, "owner-1")

		if err != nil {
			t.Fatalf("ListMine() error = %v", err)
		}
		if len(mine) != 2 {
			t.Errorf("ListMine() = %d listings, want 2", len(mine))
		}
	})
}
