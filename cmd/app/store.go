package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"realty-marketplace/internal/config"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/infra/db/memory"
	pg "realty-marketplace/internal/infra/db/postgres"
	"realty-marketplace/internal/infra/logging"
	red "realty-marketplace/internal/infra/redis"
	"realty-marketplace/internal/infra/sched"
)

type store struct {
	tm        repository.TransactionManager
	agencies  repository.AgencyRepository
	listings  repository.ListingRepository
	plans     repository.PlanRepository
	poolStats sched.PoolStats
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*store, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return &store{
			tm:       s,
			agencies: memory.NewAgencyRepo(s),
			listings: memory.NewListingRepo(s),
			plans:    memory.NewPlanRepo(s),
			close:    func() {},
		}, nil
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		logger.Info().Str("dsn", logging.Redact(cfg.Database.URL, cfg.Runtime.Dev)).Msg("postgres connected")
		return &store{
			tm:       pg.NewTxManager(pool),
			agencies: pg.NewPostgresAgencyRepo(pool),
			listings: pg.NewPostgresListingRepo(pool),
			plans:    pg.NewPostgresPlanRepo(pool),
			poolStats: func() (int32, int32, int32) {
				s := pool.Stat()
				return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
			},
			close: pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func wrapPlanCache(plans repository.PlanRepository, rc *red.Client, ttl time.Duration, logger *zerolog.Logger) repository.PlanRepository {
	return pg.NewPlanRepoCacheDecorator(plans, rc, ttl, logger)
}

// seedCatalog stores the default plans when the catalog is empty.
func seedCatalog(ctx context.Context, plans repository.PlanRepository, logger *zerolog.Logger) error {
	existing, err := plans.ListAll(ctx, repository.NoTX)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range model.DefaultCatalog() {
		if err := plans.Save(ctx, repository.NoTX, p); err != nil {
			return fmt.Errorf("seed plan %s: %w", p.Tier, err)
		}
	}
	logger.Info().Int("plans", len(model.DefaultCatalog())).Msg("default plan catalog seeded")
	return nil
}
