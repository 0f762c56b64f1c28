package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seat-booking/internal/clock"
	"seat-booking/internal/data/entity"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/dto/event"
	"seat-booking/pkg/database"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const DefaultHoldTTL = 6 * time.Minute

// Buyer identifies who a hold is placed for. The fields are stored as given.
type Buyer struct {
	Name  string
	Email string
	Phone string
}

// EventPublisher delivers hold lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BookingService moves seats between AVAILABLE, HELD and BOOKED. Every
// operation runs in one store transaction; seat row locks are the only
// synchronization between concurrent callers.
type BookingService interface {
	// HoldSeats holds every seat in seatIDs for buyer or none of them.
	// Seats are locked in the given order; callers that want to avoid
	// deadlocks between overlapping requests should sort the ids first.
	// Returns the hold ids in request order and their shared expiry time.
	HoldSeats(ctx context.Context, seatIDs []int64, buyer Buyer) ([]int64, time.Time, error)

	// ConfirmBooking completes the given holds and books their seats.
	// Unknown ids are skipped. Returns the number of holds confirmed.
	ConfirmBooking(ctx context.Context, holdIDs []int64) (int, error)

	// ReleaseExpiredHolds expires every active hold whose expiry is before now.
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error)

	// ReleaseHolds expires the given holds if they are still active.
	ReleaseHolds(ctx context.Context, holdIDs []int64) (int, error)

	HoldTTL() time.Duration
}

type BookingOption func(*bookingService)

// WithHoldTTL overrides how long a hold stays active.
func WithHoldTTL(ttl time.Duration) BookingOption {
	return func(s *bookingService) {
		if ttl > 0 {
			s.holdTTL = ttl
		}
	}
}

func WithClock(c clock.Clock) BookingOption {
	return func(s *bookingService) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithPublisher(p EventPublisher) BookingOption {
	return func(s *bookingService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMeter(meter metric.Meter) BookingOption {
	return func(s *bookingService) {
		s.meter = meter
	}
}

// WithLenientConfirm makes ConfirmBooking complete holds whatever their
// current status, including holds that have already expired.
func WithLenientConfirm() BookingOption {
	return func(s *bookingService) {
		s.strictConfirm = false
	}
}

type bookingService struct {
	repo          *repository.Repository
	log           *zap.Logger
	clock         clock.Clock
	publisher     EventPublisher
	meter         metric.Meter
	metrics       *holdMetrics
	holdTTL       time.Duration
	strictConfirm bool
}

func NewBookingService(repo *repository.Repository, log *zap.Logger, opts ...BookingOption) BookingService {
	s := &bookingService{
		repo:          repo,
		log:           log.With(zap.String("service", "booking")),
		clock:         clock.NewSystem(),
		publisher:     nopPublisher{},
		holdTTL:       DefaultHoldTTL,
		strictConfirm: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := newHoldMetrics(s.meter)
	if err != nil {
		s.log.Warn("Hold metrics disabled", zap.Error(err))
	}
	s.metrics = m

	return s
}

func (s *bookingService) HoldTTL() time.Duration {
	return s.holdTTL
}

func (s *bookingService) HoldSeats(ctx context.Context, seatIDs []int64, buyer Buyer) ([]int64, time.Time, error) {
	if len(seatIDs) == 0 {
		return nil, time.Time{}, ErrNoSeatsRequested
	}

	now := s.clock.Now()
	expiry := now.Add(s.holdTTL)

	var holdIDs []int64
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		holdIDs = make([]int64, 0, len(seatIDs))

		for _, seatID := range seatIDs {
			seat, err := s.repo.Seat.LockByID(ctx, seatID)
			if err != nil {
				return fmt.Errorf("lock seat %d: %w", seatID, err)
			}
			if seat == nil {
				return fmt.Errorf("seat %d: %w", seatID, ErrSeatNotFound)
			}
			if !seat.IsAvailable() {
				return fmt.Errorf("seat %s: %w", seat.SeatNumber, ErrSeatUnavailable)
			}

			seat.Status = entity.SeatStatusHeld
			if err := s.repo.Seat.Save(ctx, seat); err != nil {
				return fmt.Errorf("hold seat %d: %w", seatID, err)
			}

			hold := &entity.Hold{
				SeatID:     seat.ID,
				UserName:   buyer.Name,
				UserEmail:  buyer.Email,
				UserPhone:  buyer.Phone,
				HoldTime:   now,
				ExpiryTime: expiry,
				Status:     entity.HoldStatusActive,
			}
			if err := s.repo.Hold.Create(ctx, hold); err != nil {
				return fmt.Errorf("create hold for seat %d: %w", seatID, err)
			}

			holdIDs = append(holdIDs, hold.ID)
		}

		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		if s.metrics != nil {
			s.metrics.add(ctx, s.metrics.rejected, 1)
		}
		s.log.Warn("Hold seats failed",
			zap.Error(err),
			zap.Int64s("seat_ids", seatIDs),
		)
		return nil, time.Time{}, err
	}

	s.log.Info("Seats held",
		zap.Int64s("seat_ids", seatIDs),
		zap.Int64s("hold_ids", holdIDs),
		zap.Time("expiry_time", expiry),
	)
	if s.metrics != nil {
		s.metrics.add(ctx, s.metrics.created, len(holdIDs))
	}
	s.publish(ctx, event.HoldEvent{
		Type:       event.HoldsCreated,
		HoldIDs:    holdIDs,
		SeatIDs:    seatIDs,
		UserEmail:  buyer.Email,
		ExpiresAt:  expiry,
		OccurredAt: now,
	})

	return holdIDs, expiry, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, holdIDs []int64) (int, error) {
	if len(holdIDs) == 0 {
		return 0, nil
	}

	var confirmed []*entity.Hold
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		confirmed = nil

		holds, err := s.repo.Hold.FindByIDsForUpdate(ctx, holdIDs)
		if err != nil {
			return err
		}

		for _, hold := range holds {
			if s.strictConfirm && !hold.IsActive() {
				s.log.Debug("Skipping confirmation of inactive hold",
					zap.Int64("hold_id", hold.ID),
					zap.String("status", string(hold.Status)),
				)
				continue
			}

			if err := s.repo.Hold.UpdateStatus(ctx, hold.ID, entity.HoldStatusCompleted); err != nil {
				return err
			}
			if err := s.repo.Seat.UpdateStatus(ctx, hold.SeatID, entity.SeatStatusBooked); err != nil {
				return err
			}
			confirmed = append(confirmed, hold)
		}

		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		s.log.Error("Confirm booking failed", zap.Error(err), zap.Int64s("hold_ids", holdIDs))
		return 0, fmt.Errorf("confirm booking: %w", err)
	}

	if len(confirmed) > 0 {
		s.log.Info("Booking confirmed", zap.Int64s("hold_ids", holdIDsOf(confirmed)))
		if s.metrics != nil {
			s.metrics.add(ctx, s.metrics.confirmed, len(confirmed))
		}
		s.publish(ctx, event.HoldEvent{
			Type:       event.HoldsConfirmed,
			HoldIDs:    holdIDsOf(confirmed),
			SeatIDs:    seatIDsOf(confirmed),
			UserEmail:  confirmed[0].UserEmail,
			OccurredAt: s.clock.Now(),
		})
	}

	return len(confirmed), nil
}

func (s *bookingService) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	var released []*entity.Hold
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		holds, err := s.repo.Hold.FindActiveExpiredBefore(ctx, now)
		if err != nil {
			return err
		}

		released, err = s.expire(ctx, holds)
		return err
	})
	if err != nil {
		err = classifyStoreError(err)
		s.log.Error("Release expired holds failed", zap.Error(err), zap.Time("now", now))
		return 0, fmt.Errorf("release expired holds: %w", err)
	}

	if len(released) > 0 {
		s.log.Info("Expired holds released",
			zap.Int("count", len(released)),
			zap.Int64s("hold_ids", holdIDsOf(released)),
		)
		if s.metrics != nil {
			s.metrics.add(ctx, s.metrics.expired, len(released))
		}
		s.publish(ctx, event.HoldEvent{
			Type:       event.HoldsExpired,
			HoldIDs:    holdIDsOf(released),
			SeatIDs:    seatIDsOf(released),
			OccurredAt: now,
		})
	}

	return len(released), nil
}

func (s *bookingService) ReleaseHolds(ctx context.Context, holdIDs []int64) (int, error) {
	if len(holdIDs) == 0 {
		return 0, nil
	}

	var released []*entity.Hold
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		holds, err := s.repo.Hold.FindByIDsForUpdate(ctx, holdIDs)
		if err != nil {
			return err
		}

		released, err = s.expire(ctx, holds)
		return err
	})
	if err != nil {
		err = classifyStoreError(err)
		s.log.Error("Release holds failed", zap.Error(err), zap.Int64s("hold_ids", holdIDs))
		return 0, fmt.Errorf("release holds: %w", err)
	}

	if len(released) > 0 {
		s.log.Info("Holds released", zap.Int64s("hold_ids", holdIDsOf(released)))
		if s.metrics != nil {
			s.metrics.add(ctx, s.metrics.released, len(released))
		}
		s.publish(ctx, event.HoldEvent{
			Type:       event.HoldsReleased,
			HoldIDs:    holdIDsOf(released),
			SeatIDs:    seatIDsOf(released),
			OccurredAt: s.clock.Now(),
		})
	}

	return len(released), nil
}

// expire marks each active hold EXPIRED and frees its seat. Holds that are
// no longer active are left untouched.
func (s *bookingService) expire(ctx context.Context, holds []*entity.Hold) ([]*entity.Hold, error) {
	released := make([]*entity.Hold, 0, len(holds))
	for _, hold := range holds {
		if !hold.IsActive() {
			continue
		}
		if err := s.repo.Hold.UpdateStatus(ctx, hold.ID, entity.HoldStatusExpired); err != nil {
			return nil, err
		}
		if err := s.repo.Seat.UpdateStatus(ctx, hold.SeatID, entity.SeatStatusAvailable); err != nil {
			return nil, err
		}
		released = append(released, hold)
	}
	return released, nil
}

func (s *bookingService) publish(ctx context.Context, ev event.HoldEvent) {
	if err := s.publisher.Publish(ctx, ev.Type, ev); err != nil {
		s.log.Warn("Failed to publish hold event",
			zap.Error(err),
			zap.String("type", ev.Type),
			zap.Int64s("hold_ids", ev.HoldIDs),
		)
	}
}

// classifyStoreError turns retryable lock failures into ErrLockConflict and
// a lost race on the active-hold index into ErrSeatUnavailable.
func classifyStoreError(err error) error {
	switch {
	case errors.Is(err, ErrSeatNotFound), errors.Is(err, ErrSeatUnavailable):
		return err
	case database.IsLockConflict(err):
		return fmt.Errorf("%w: %v", ErrLockConflict, err)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrSeatUnavailable, err)
	default:
		return err
	}
}

func holdIDsOf(holds []*entity.Hold) []int64 {
	ids := make([]int64, len(holds))
	for i, h := range holds {
		ids[i] = h.ID
	}
	return ids
}

func seatIDsOf(holds []*entity.Hold) []int64 {
	ids := make([]int64, len(holds))
	for i, h := range holds {
		ids[i] = h.SeatID
	}
	return ids
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
