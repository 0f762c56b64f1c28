package worker

import (
	"context"
	"errors"
	"time"

	"seat-booking/internal/clock"
	"seat-booking/internal/usecase"

	"go.uber.org/zap"
)

const (
	ExpirySweeperName = "hold-expiry-sweeper"
	CatalogResetName  = "catalog-reset"
)

// NewExpirySweeper releases holds whose expiry has passed. It runs once at
// start so holds left over from a previous process are reclaimed.
func NewExpirySweeper(booking usecase.BookingService, clk clock.Clock, interval time.Duration, log *zap.Logger) *Periodic {
	var p *Periodic
	p = NewPeriodic(ExpirySweeperName, interval, true, func(ctx context.Context) error {
		released, err := booking.ReleaseExpiredHolds(ctx, clk.Now())
		if err != nil {
			return err
		}
		if released > 0 {
			p.log.Info("Expired holds released", zap.Int("count", released))
		}
		return nil
	}, log)
	return p
}

// Reset retry on lock conflicts. A deadlock victim is retried within the same
// tick rather than waiting a full interval.
var (
	resetAttempts   = 3
	resetBackoff    = 250 * time.Millisecond
	resetBackoffMax = 2 * time.Second
)

// NewCatalogReset wipes every hold and returns all seats to AVAILABLE once
// per interval. The first reset happens one interval after start.
func NewCatalogReset(catalog usecase.CatalogService, interval time.Duration, log *zap.Logger) *Periodic {
	var p *Periodic
	p = NewPeriodic(CatalogResetName, interval, false, func(ctx context.Context) error {
		result, err := resetWithRetry(ctx, catalog, p.log)
		if err != nil {
			return err
		}
		p.log.Debug("Catalog reset run finished",
			zap.Int64("holds_deleted", result.HoldsDeleted),
			zap.Int("seats_reset", result.SeatsReset),
		)
		return nil
	}, log)
	return p
}

func resetWithRetry(ctx context.Context, catalog usecase.CatalogService, log *zap.Logger) (*usecase.ResetResult, error) {
	wait := resetBackoff
	for attempt := 1; ; attempt++ {
		result, err := catalog.ResetCatalog(ctx)
		if err == nil || !errors.Is(err, usecase.ErrLockConflict) || attempt >= resetAttempts {
			return result, err
		}

		log.Warn("Catalog reset hit a lock conflict, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		wait = min(wait*2, resetBackoffMax)
	}
}
