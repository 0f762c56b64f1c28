package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "seat-booking/usecase"

// holdMetrics counts hold transitions. Counters are noops until a meter
// provider is installed.
type holdMetrics struct {
	created   metric.Int64Counter
	confirmed metric.Int64Counter
	released  metric.Int64Counter
	expired   metric.Int64Counter
	rejected  metric.Int64Counter
}

func newHoldMetrics(meter metric.Meter) (*holdMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	m := &holdMetrics{}
	var err error

	if m.created, err = meter.Int64Counter("holds.created",
		metric.WithDescription("Holds placed on seats")); err != nil {
		return nil, err
	}
	if m.confirmed, err = meter.Int64Counter("holds.confirmed",
		metric.WithDescription("Holds converted into bookings")); err != nil {
		return nil, err
	}
	if m.released, err = meter.Int64Counter("holds.released",
		metric.WithDescription("Holds released on request")); err != nil {
		return nil, err
	}
	if m.expired, err = meter.Int64Counter("holds.expired",
		metric.WithDescription("Holds released by the expiry sweeper")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("holds.rejected",
		metric.WithDescription("Hold requests rejected because a seat was missing, taken or locked")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *holdMetrics) add(ctx context.Context, c metric.Int64Counter, n int) {
	if m == nil || n <= 0 {
		return
	}
	c.Add(ctx, int64(n))
}
