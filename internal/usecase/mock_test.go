//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/adapter"
	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/infra/db/memory"
	"realty-marketplace/internal/infra/lock"
	"realty-marketplace/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock ImageStorage ----

// MockStorage keeps file sizes in memory and records deletes.
type MockStorage struct {
	mu      sync.Mutex
	files   map[string]int64
	Deleted []string

	StatFunc   func(ctx context.Context, key string) (int64, error)
	DeleteFunc func(ctx context.Context, key string) error
}

var _ adapter.ImageStorage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string]int64)}
}

// Put simulates the upload collaborator having stored key with size bytes.
func (m *MockStorage) Put(key string, size int64) model.UploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = size
	return model.UploadedFile{Path: key, OriginalFilename: key, MimeType: "image/jpeg"}
}

func (m *MockStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok
}

func (m *MockStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = n
	return nil
}

func (m *MockStorage) Stat(ctx context.Context, key string) (int64, error) {
	if m.StatFunc != nil {
		return m.StatFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	size, ok := m.files[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return size, nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, key)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.files, key)
	return nil
}

func (m *MockStorage) URL(key string) string { return "/uploads/properties/" + key }

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu       sync.Mutex
	Requests []int64

	RequestPaymentFunc func(ctx context.Context, amount int64) (string, error)
	VerifyPaymentFunc  func(ctx context.Context, authority string, expectedAmount int64) (string, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) RequestPayment(ctx context.Context, amount int64, description string, meta map[string]string) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, amount)
	m.mu.Unlock()
	if m.RequestPaymentFunc != nil {
		return m.RequestPaymentFunc(ctx, amount)
	}
	return fmt.Sprintf("auth-%d", amount), nil
}

func (m *MockPaymentGateway) VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (string, error) {
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, authority, expectedAmount)
	}
	return "ref-" + authority, nil
}

// ---- Mock Transcriber ----

type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, language string) (string, error)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	return m.TranscribeFunc(ctx, audio, language)
}

// ---- Agency repo with fault injection ----

// FaultyAgencyRepo wraps the memory repo and lets a test fail SaveLedger.
type FaultyAgencyRepo struct {
	*memory.AgencyRepo
	SaveLedgerFunc func(ctx context.Context, tx repository.Tx, agencyID string, used int64, ids []string) error
}

func (r *FaultyAgencyRepo) SaveLedger(ctx context.Context, tx repository.Tx, agencyID string, used int64, ids []string) error {
	if r.SaveLedgerFunc != nil {
		if err := r.SaveLedgerFunc(ctx, tx, agencyID, used, ids); err != nil {
			return err
		}
	}
	return r.AgencyRepo.SaveLedger(ctx, tx, agencyID, used, ids)
}

// ---- Fixture ----

// fixture wires the memory store, a keyed mutex and mock storage.
type fixture struct {
	store    *memory.Store
	agencies *FaultyAgencyRepo
	listings *memory.ListingRepo
	plans    *memory.PlanRepo
	storage  *MockStorage
	locker   *lock.KeyedMutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		agencies: &FaultyAgencyRepo{AgencyRepo: memory.NewAgencyRepo(store)},
		listings: memory.NewListingRepo(store),
		plans:    memory.NewPlanRepo(store),
		storage:  NewMockStorage(),
		locker:   lock.NewKeyedMutex(),
	}
	for _, p := range model.DefaultCatalog() {
		if err := f.plans.Save(context.Background(), repository.NoTX, p); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

type agencyOpts struct {
	tier      model.PlanTier
	end       *time.Time
	usedBytes int64
	listings  int
}

// seedAgency stores an agency for owner with the given counters. Placeholder
// listing ids are recorded in the ledger only.
func (f *fixture) seedAgency(t *testing.T, owner string, o agencyOpts) *model.Agency {
	t.Helper()
	if o.tier == "" {
		o.tier = model.PlanBasic
	}
	limits, err := model.SnapshotLimits(o.tier)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := model.NewSubscription(o.tier, model.BillingMonthly, limits, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if o.end != nil {
		sub.EndDate = o.end
	}
	a, err := model.NewAgency(owner, model.AgencyProfile{Name: "Agency " + owner, Email: owner + "@example.com", Phone: "+1 555 0100"}, sub)
	if err != nil {
		t.Fatal(err)
	}
	a.StorageUsedBytes = o.usedBytes
	for i := 0; i < o.listings; i++ {
		a.ListingIDs = append(a.ListingIDs, fmt.Sprintf("existing-%d", i))
	}
	if err := f.agencies.Create(context.Background(), repository.NoTX, a); err != nil {
		t.Fatal(err)
	}
	return a
}

func (f *fixture) agency(t *testing.T, id string) *model.Agency {
	t.Helper()
	a, err := f.agencies.FindByID(context.Background(), repository.NoTX, id)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func validDraft() usecase.ListingDraft {
	return usecase.ListingDraft{
		Title:        "Sunny apartment",
		Description:  "Two balconies and a view",
		Price:        450000,
		PropertyType: model.PropertyApartment,
		Bedrooms:     3,
		Bathrooms:    2,
		ListingType:  model.ListingSale,
		Location:     []byte(`{"address":"1 Ocean Dr","city":"Miami"}`),
	}
}

func ptr[T any](v T) *T { return &v }
