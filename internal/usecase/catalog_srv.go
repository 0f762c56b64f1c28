package usecase

import (
	"context"
	"fmt"

	"seat-booking/internal/data/entity"
	"seat-booking/internal/data/repository"
	"seat-booking/pkg/database"
	"seat-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListSeats(ctx context.Context) ([]*entity.Seat, error)

	// CreateSeats appends AVAILABLE seats. A nil price uses the default price.
	CreateSeats(ctx context.Context, seatNumbers []string, price *decimal.Decimal) ([]*entity.Seat, error)

	// EnsureInventory tops up available seats to the configured initial count.
	EnsureInventory(ctx context.Context) (int, error)

	// ResetCatalog deletes every hold and makes every seat AVAILABLE in one
	// transaction.
	ResetCatalog(ctx context.Context) (*ResetResult, error)
}

type ResetResult struct {
	HoldsDeleted int64
	SeatsReset   int
}

type catalogService struct {
	repo   *repository.Repository
	config utils.BookingConfig
	log    *zap.Logger
}

func NewCatalogService(repo *repository.Repository, config utils.BookingConfig, log *zap.Logger) CatalogService {
	return &catalogService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) ListSeats(ctx context.Context) ([]*entity.Seat, error) {
	seats, err := s.repo.Seat.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return seats, nil
}

func (s *catalogService) CreateSeats(ctx context.Context, seatNumbers []string, price *decimal.Decimal) ([]*entity.Seat, error) {
	if len(seatNumbers) == 0 {
		return nil, fmt.Errorf("validation failed: no seat numbers given")
	}

	p := s.config.DefaultSeatPrice
	if price != nil {
		if price.IsNegative() {
			return nil, fmt.Errorf("validation failed: price must not be negative")
		}
		p = *price
	}

	seats := make([]*entity.Seat, len(seatNumbers))
	for i, number := range seatNumbers {
		seats[i] = &entity.Seat{
			SeatNumber: number,
			Price:      p,
			Status:     entity.SeatStatusAvailable,
		}
	}

	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Seat.LockInventory(ctx); err != nil {
			return err
		}
		return s.repo.Seat.CreateBatch(ctx, seats)
	})
	if database.IsUniqueViolation(err) {
		s.log.Warn("Seat number already exists", zap.Strings("seat_numbers", seatNumbers))
		return nil, fmt.Errorf("create seats: %w", ErrSeatNumberTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("create seats: %w", err)
	}

	s.log.Info("Seats created",
		zap.Int("count", len(seats)),
		zap.String("price", p.StringFixed(2)),
	)

	return seats, nil
}

func (s *catalogService) EnsureInventory(ctx context.Context) (int, error) {
	created := 0

	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		created = 0

		// Serializes top-ups across replicas.
		if err := s.repo.Seat.LockInventory(ctx); err != nil {
			return err
		}

		available, err := s.repo.Seat.CountByStatus(ctx, entity.SeatStatusAvailable)
		if err != nil {
			return err
		}
		existing, err := s.repo.Seat.FindAll(ctx)
		if err != nil {
			return err
		}
		total := len(existing)

		s.log.Info("Seat inventory check",
			zap.Int("total", total),
			zap.Int64("available", available),
			zap.Int("target", s.config.InitialSeatCount),
		)

		missing := s.config.InitialSeatCount - int(available)
		if missing <= 0 {
			return nil
		}

		taken := make([]string, len(existing))
		for i, seat := range existing {
			taken[i] = seat.SeatNumber
		}

		numbers := utils.GenerateSeatNumbers(taken, missing, s.config.SeatsPerRow)
		seats := make([]*entity.Seat, len(numbers))
		for i, number := range numbers {
			seats[i] = &entity.Seat{
				SeatNumber: number,
				Price:      s.config.DefaultSeatPrice,
				Status:     entity.SeatStatusAvailable,
			}
		}

		if err := s.repo.Seat.CreateBatch(ctx, seats); err != nil {
			return err
		}
		created = len(seats)
		return nil
	})
	if err != nil {
		s.log.Error("Failed to ensure seat inventory", zap.Error(err))
		return 0, fmt.Errorf("ensure inventory: %w", err)
	}

	if created > 0 {
		s.log.Info("Seat inventory topped up", zap.Int("created", created))
	}

	return created, nil
}

func (s *catalogService) ResetCatalog(ctx context.Context) (*ResetResult, error) {
	result := &ResetResult{}

	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		// Seats are locked before holds are deleted so a hold committed
		// while the reset waits cannot survive it.
		seats, err := s.repo.Seat.LockAll(ctx)
		if err != nil {
			return err
		}

		deleted, err := s.repo.Hold.DeleteAll(ctx)
		if err != nil {
			return err
		}

		for _, seat := range seats {
			seat.Status = entity.SeatStatusAvailable
		}
		if err := s.repo.Seat.SaveAll(ctx, seats); err != nil {
			return err
		}

		result.HoldsDeleted = deleted
		result.SeatsReset = len(seats)
		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		s.log.Error("Catalog reset failed", zap.Error(err))
		return nil, fmt.Errorf("reset catalog: %w", err)
	}

	s.log.Info("Catalog reset",
		zap.Int64("holds_deleted", result.HoldsDeleted),
		zap.Int("seats_reset", result.SeatsReset),
	)

	return result, nil
}
