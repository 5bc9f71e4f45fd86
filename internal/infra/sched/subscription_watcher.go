package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/infra/logging"
	"realty-marketplace/internal/infra/metrics"
)

// PoolStats reports connection pool occupancy; nil when there is no pool.
type PoolStats func() (total, idle, inUse int32)

// SubscriptionWatcher refreshes the subscription gauges and logs agencies
// whose subscription ends inside the warning window. It never changes
// subscriptions; expiry is evaluated lazily by the listing gate.
type SubscriptionWatcher struct {
	interval   time.Duration
	warnWindow time.Duration
	agencies   repository.AgencyRepository
	pool       PoolStats
	now        func() time.Time
	log        *zerolog.Logger
}

func NewSubscriptionWatcher(interval, warnWindow time.Duration, agencies repository.AgencyRepository, pool PoolStats, logger *zerolog.Logger) *SubscriptionWatcher {
	if interval <= 0 {
		interval = time.Hour
	}
	if warnWindow <= 0 {
		warnWindow = 72 * time.Hour
	}
	compLog := logger.With().Str("component", "SubscriptionWatcher").Logger()
	return &SubscriptionWatcher{
		interval:   interval,
		warnWindow: warnWindow,
		agencies:   agencies,
		pool:       pool,
		now:        time.Now,
		log:        &compLog,
	}
}

func (w *SubscriptionWatcher) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting subscription watcher")
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping subscription watcher")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *SubscriptionWatcher) runCheck(ctx context.Context) {
	if _, err := w.Check(ctx); err != nil {
		w.log.Error().Err(err).Msg("subscription check failed")
	}
}

// CheckResult is what a single pass observed.
type CheckResult struct {
	Totals   repository.AgencyTotals
	Expiring []string // agency ids
}

// Check runs one pass and updates the gauges.
func (w *SubscriptionWatcher) Check(ctx context.Context) (CheckResult, error) {
	defer logging.TraceDuration(w.log, "SubscriptionWatcher.Check")()

	var res CheckResult
	now := w.now()

	totals, err := w.agencies.Totals(ctx, repository.NoTX, now)
	if err != nil {
		return res, err
	}
	res.Totals = totals
	metrics.SetSubscriptionsTotal(totals.ValidSubscriptions, totals.Agencies-totals.ValidSubscriptions)
	metrics.SetStorageUsed(totals.StorageUsedBytes)

	expiring, err := w.agencies.ListExpiringBetween(ctx, repository.NoTX, now, now.Add(w.warnWindow))
	if err != nil {
		return res, err
	}
	metrics.SetExpiringSoon(len(expiring))
	for _, a := range expiring {
		res.Expiring = append(res.Expiring, a.ID)
		ev := w.log.Info().Str("agency_id", a.ID).Str("plan", string(a.Subscription.PlanTier))
		if a.Subscription.EndDate != nil {
			ev = ev.Time("end_date", *a.Subscription.EndDate)
		}
		ev.Msg("subscription expiring soon")
	}

	if w.pool != nil {
		metrics.SetDBPoolStats(w.pool())
	}
	return res, nil
}
