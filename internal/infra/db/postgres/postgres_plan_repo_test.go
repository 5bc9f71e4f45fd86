//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

func TestPlanRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresPlanRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	t.Run("should save the default catalog and list it by price", func(t *testing.T) {
		for _, p := range model.DefaultCatalog() {
			if err := repo.Save(ctx, repository.NoTX, p); err != nil {
				t.Fatalf("Save(%s) error = %v", p.Tier, err)
			}
		}

		plans, err := repo.ListAll(ctx, repository.NoTX)

		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(plans) != 3 || plans[0].Tier != model.PlanBasic || plans[2].Tier != model.PlanEnterprise {
			t.Fatalf("ListAll() = %v", plans)
		}
		if len(plans[1].Features) != 5 {
			t.Errorf("pro features = %v", plans[1].Features)
		}
	})

	t.Run("should update an existing tier", func(t *testing.T) {
		p, err := repo.FindByTier(ctx, repository.NoTX, model.PlanPro)
		if err != nil {
			t.Fatal(err)
		}
		p.ListingLimit = 60
		p.IsActive = false

		if err := repo.Save(ctx, repository.NoTX, p); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := repo.FindByTier(ctx, repository.NoTX, model.PlanPro)
		if err != nil {
			t.Fatal(err)
		}
		if got.ListingLimit != 60 || got.IsActive {
			t.Errorf("plan not updated: %+v", got)
		}
	})

	t.Run("should return ErrNotFound for unknown tier", func(t *testing.T) {
		_, err := repo.FindByTier(ctx, repository.NoTX, "gold")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("FindByTier() error = %v, want ErrNotFound", err)
		}
	})
}
