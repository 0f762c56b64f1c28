// Package worker runs the background jobs that keep hold state bounded.
package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "seat-booking/worker"

// Periodic calls Fn every Interval until its context is cancelled. Ticks are
// fixed-rate; a tick that overruns the interval delays the next one rather
// than overlapping it.
type Periodic struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Fn         func(ctx context.Context) error

	log      *zap.Logger
	runs     metric.Int64Counter
	failures metric.Int64Counter
}

func NewPeriodic(name string, interval time.Duration, runOnStart bool, fn func(ctx context.Context) error, log *zap.Logger) *Periodic {
	p := &Periodic{
		Name:       name,
		Interval:   interval,
		RunOnStart: runOnStart,
		Fn:         fn,
		log:        log.With(zap.String("worker", name)),
	}

	meter := otel.Meter(meterName)
	var err error
	if p.runs, err = meter.Int64Counter("worker.runs",
		metric.WithDescription("Completed periodic job runs")); err != nil {
		p.log.Warn("Worker metrics disabled", zap.Error(err))
	}
	if p.failures, err = meter.Int64Counter("worker.failures",
		metric.WithDescription("Periodic job runs that returned an error")); err != nil {
		p.log.Warn("Worker metrics disabled", zap.Error(err))
	}

	return p
}

// Run blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	if p.Interval <= 0 {
		p.log.Warn("Worker disabled, non-positive interval", zap.Duration("interval", p.Interval))
		return
	}

	p.log.Info("Worker started",
		zap.Duration("interval", p.Interval),
		zap.Bool("run_on_start", p.RunOnStart),
	)

	if p.RunOnStart {
		p.tick(ctx)
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Worker stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Periodic) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := p.Fn(ctx)
	attrs := metric.WithAttributes(attribute.String("worker", p.Name))

	if p.runs != nil {
		p.runs.Add(ctx, 1, attrs)
	}
	if err != nil {
		if p.failures != nil {
			p.failures.Add(ctx, 1, attrs)
		}
		p.log.Error("Worker run failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}

	p.log.Debug("Worker run completed", zap.Duration("duration", time.Since(start)))
}
