package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/joho/godotenv"

	"realty-marketplace/internal/config"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/infra/api"
	"realty-marketplace/internal/infra/db/postgres"
	"realty-marketplace/internal/infra/redis"
)

// seed prepares a postgres database for manual testing: it upserts the
// default plan catalog and prints a bearer token for a development owner.
func main() {
	reset := flag.Bool("reset", false, "truncate agencies, listings and plans first (and flush redis when enabled)")
	owner := flag.String("owner", "dev-owner", "user id to mint a token for; empty skips the token")
	ttl := flag.Duration("token-ttl", 24*time.Hour, "token lifetime")

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("seed needs database.driver=postgres, got %q", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	if *reset {
		log.Println("wiping agencies, listings and plans")
		if _, err := pool.Exec(ctx, `TRUNCATE listings, agencies, plans RESTART IDENTITY CASCADE`); err != nil {
			log.Fatalf("truncate: %v", err)
		}
		if cfg.Redis.Enabled {
			rc, err := redis.NewClient(ctx, &cfg.Redis)
			if err != nil {
				log.Fatalf("redis connection failed: %v", err)
			}
			// only the plan cache lives in redis long enough to matter
			if err := rc.Del(ctx, "plans:all", "plan:basic", "plan:pro", "plan:enterprise"); err != nil {
				log.Printf("plan cache not cleared: %v", err)
			}
			_ = rc.Close()
		}
	}

	tm := postgres.NewTxManager(pool)
	plans := postgres.NewPostgresPlanRepo(pool)
	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, p := range model.DefaultCatalog() {
			if err := plans.Save(ctx, tx, p); err != nil {
				return fmt.Errorf("save %s: %w", p.Tier, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed plans: %v", err)
	}

	all, err := plans.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	fmt.Printf("%d plans in catalog:\n", len(all))
	for _, p := range all {
		fmt.Printf("  - %-10s monthly=%d yearly=%d listings=%d storage=%dMiB active=%t\n",
			p.Tier, p.PriceMonthly, p.PriceYearly, p.ListingLimit, p.StorageLimitBytes>>20, p.IsActive)
	}

	if *owner != "" {
		tok, err := api.NewAuthenticator(cfg.Auth.JWTSecret).Mint(*owner, "agency", *ttl)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("\nAuthorization: Bearer %s\n", tok)
	}
}
