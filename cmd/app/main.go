// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"realty-marketplace/internal/config"
	"realty-marketplace/internal/domain/ports/adapter"
	"realty-marketplace/internal/infra/adapters/payment"
	"realty-marketplace/internal/infra/adapters/speech"
	"realty-marketplace/internal/infra/adapters/telegram"
	"realty-marketplace/internal/infra/api"
	"realty-marketplace/internal/infra/i18n"
	"realty-marketplace/internal/infra/lock"
	"realty-marketplace/internal/infra/logging"
	"realty-marketplace/internal/infra/metrics"
	red "realty-marketplace/internal/infra/redis"
	"realty-marketplace/internal/infra/sched"
	"realty-marketplace/internal/infra/storage"
	"realty-marketplace/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// ---- Redis (optional) ----
	var (
		locker  adapter.TenantLocker = lock.NewKeyedMutex()
		limiter api.RateLimiter
		plans   = st.plans
	)
	if cfg.Redis.Enabled {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		locker = red.NewLocker(rc, cfg.Redis.LockTTL)
		limiter = red.NewRateLimiter(rc)
		plans = wrapPlanCache(plans, rc, cfg.Redis.TTL, logger)
		logger.Info().Msg("redis enabled: distributed locks, rate limits and plan cache")
	}

	if err := seedCatalog(ctx, plans, logger); err != nil {
		return err
	}

	// ---- Storage ----
	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	uploadsDir := ""
	if local, ok := images.(*storage.LocalStorage); ok {
		uploadsDir = local.Dir()
	}

	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Use cases ----
	listingUC := usecase.NewListingUseCase(st.tm, st.agencies, st.listings, images, locker, logger)
	agencyUC := usecase.NewAgencyUseCase(st.tm, st.agencies, st.listings, locker, logger)
	subUC := usecase.NewSubscriptionUseCase(st.tm, plans, st.agencies, payment.NewNoopPaymentGateway(), locker, logger)
	assistantUC := usecase.NewAssistantUseCase(st.listings, st.agencies, speech.NewStubTranscriber(), bundle, logger)

	// ---- Background ----
	watcher := sched.NewSubscriptionWatcher(cfg.Scheduler.ExpiryInterval, cfg.Scheduler.WarnWindow, st.agencies, st.poolStats, logger)
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("subscription watcher stopped")
		}
	}()

	if token := strings.TrimSpace(cfg.Assistant.TelegramToken); token != "" {
		botAPI, err := telegram.NewBotAPI(token)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot := telegram.NewBot(botAPI, assistantUC, bundle, limiter, telegram.Options{
			Workers:    cfg.Assistant.BotWorkers,
			RateLimit:  cfg.Assistant.RateLimit,
			RateWindow: cfg.Assistant.RateWindow,
		}, logger)
		go func() {
			if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram bot stopped")
			}
		}()
	}

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Listings:      listingUC,
		Agencies:      agencyUC,
		Subscriptions: subUC,
		Assistant:     assistantUC,
		Storage:       images,
		Auth:          api.NewAuthenticator(cfg.Auth.JWTSecret),
		Limiter:       limiter,
	}, api.Options{
		AdminAPIKey:         cfg.Auth.AdminAPIKey,
		AllowedOrigins:      cfg.HTTP.AllowedOrigins,
		RequestTimeout:      cfg.HTTP.RequestTimeout,
		MaxFileBytes:        cfg.Storage.MaxFileBytes,
		MaxFiles:            cfg.Storage.MaxFiles,
		AssistantRateLimit:  cfg.Assistant.RateLimit,
		AssistantRateWindow: cfg.Assistant.RateWindow,
		UploadsDir:          uploadsDir,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("db", cfg.Database.Driver).Str("storage", cfg.Storage.Driver).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
