package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"seat-booking/internal/clock"
	"seat-booking/internal/data/entity"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/usecase"
	"seat-booking/migrations"
	"seat-booking/pkg/database"
	"seat-booking/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const (
	dbImageName = "postgres:17-alpine"
	dbName      = "seat_booking"
	dbUser      = "test_user"
	dbPassword  = "test_password"
)

type StoreSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *database.DB
	repo      *repository.Repository
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, needs docker")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = ctr

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(database.RunMigrations(dsn, migrations.FS))
	// idempotent
	s.Require().NoError(database.RunMigrations(dsn, migrations.FS))

	pool, err := pgxpool.New(ctx, dsn)
	s.Require().NoError(err)

	s.db = database.NewDB(pool)
	s.repo = repository.NewRepository(s.db, zap.NewNop())
}

func (s *StoreSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.db.Exec(context.Background(), `TRUNCATE holds, seats RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *StoreSuite) seedSeats(numbers ...string) []*entity.Seat {
	seats := make([]*entity.Seat, 0, len(numbers))
	for _, n := range numbers {
		seats = append(seats, &entity.Seat{
			SeatNumber: n,
			Price:      decimal.RequireFromString("150.00"),
			Status:     entity.SeatStatusAvailable,
		})
	}
	s.Require().NoError(s.repo.Seat.CreateBatch(context.Background(), seats))
	return seats
}

func (s *StoreSuite) TestSeatRepository() {
	ctx := context.Background()
	seats := s.seedSeats("A1", "A2", "A3")

	for _, seat := range seats {
		s.NotZero(seat.ID)
		s.False(seat.CreatedAt.IsZero())
	}

	all, err := s.repo.Seat.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("A1", all[0].SeatNumber)
	s.True(all[0].Price.Equal(decimal.NewFromInt(150)))

	s.Require().NoError(s.repo.Seat.UpdateStatus(ctx, seats[1].ID, entity.SeatStatusBooked))

	booked, err := s.repo.Seat.CountByStatus(ctx, entity.SeatStatusBooked)
	s.Require().NoError(err)
	s.Equal(int64(1), booked)

	s.Require().NoError(s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Seat.LockInventory(ctx)
	}))

	err = s.repo.Seat.CreateBatch(ctx, []*entity.Seat{
		{SeatNumber: "A1", Price: decimal.NewFromInt(150), Status: entity.SeatStatusAvailable},
	})
	s.True(database.IsUniqueViolation(err), "duplicate seat number must be rejected, got %v", err)

	missing, err := s.repo.Seat.FindByID(ctx, 999)
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *StoreSuite) TestOneActiveHoldPerSeat() {
	ctx := context.Background()
	seat := s.seedSeats("A1")[0]
	now := time.Now().UTC()

	first := &entity.Hold{SeatID: seat.ID, HoldTime: now, ExpiryTime: now.Add(time.Minute), Status: entity.HoldStatusActive}
	s.Require().NoError(s.repo.Hold.Create(ctx, first))

	second := &entity.Hold{SeatID: seat.ID, HoldTime: now, ExpiryTime: now.Add(time.Minute), Status: entity.HoldStatusActive}
	err := s.repo.Hold.Create(ctx, second)
	s.Require().Error(err)
	s.True(database.IsUniqueViolation(err))

	s.Require().NoError(s.repo.Hold.UpdateStatus(ctx, first.ID, entity.HoldStatusExpired))
	s.NoError(s.repo.Hold.Create(ctx, second))
}

func (s *StoreSuite) TestWithTxRollsBack() {
	ctx := context.Background()
	seat := s.seedSeats("A1")[0]
	boom := errors.New("boom")

	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.repo.Seat.LockByID(ctx, seat.ID)
		s.Require().NoError(err)
		locked.Status = entity.SeatStatusHeld
		s.Require().NoError(s.repo.Seat.Save(ctx, locked))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repo.Seat.FindByID(ctx, seat.ID)
	s.Require().NoError(err)
	s.Equal(entity.SeatStatusAvailable, got.Status)
}

func (s *StoreSuite) TestConcurrentHoldsOnOneSeat() {
	ctx := context.Background()
	seat := s.seedSeats("A1")[0]
	booking := usecase.NewBookingService(s.repo, zap.NewNop())

	const buyers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := booking.HoldSeats(ctx, []int64{seat.ID}, usecase.Buyer{Name: "Buyer", Email: "b@example.com"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, usecase.ErrSeatUnavailable), errors.Is(err, usecase.ErrLockConflict):
				rejected++
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(buyers-1, rejected)

	got, err := s.repo.Seat.FindByID(ctx, seat.ID)
	s.Require().NoError(err)
	s.Equal(entity.SeatStatusHeld, got.Status)
}

func (s *StoreSuite) TestConcurrentEnsureInventory() {
	ctx := context.Background()
	s.seedSeats("A1", "A2")
	config := utils.BookingConfig{
		InitialSeatCount: 20,
		DefaultSeatPrice: decimal.NewFromInt(150),
		SeatsPerRow:      10,
	}

	const replicas = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < replicas; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// each replica builds its own service, as separate processes would
			n, err := usecase.NewCatalogService(s.repo, config, zap.NewNop()).EnsureInventory(ctx)
			s.NoError(err)

			mu.Lock()
			created += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(18, created)

	all, err := s.repo.Seat.FindAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 20)

	numbers := make(map[string]struct{}, len(all))
	for _, seat := range all {
		numbers[seat.SeatNumber] = struct{}{}
	}
	s.Len(numbers, 20, "seat numbers must be unique")
}

func (s *StoreSuite) TestCreateSeatsRejectsTakenNumber() {
	ctx := context.Background()
	s.seedSeats("A1")
	catalog := usecase.NewCatalogService(s.repo, utils.BookingConfig{
		DefaultSeatPrice: decimal.NewFromInt(150),
		SeatsPerRow:      10,
	}, zap.NewNop())

	_, err := catalog.CreateSeats(ctx, []string{"B1", "A1"}, nil)
	s.ErrorIs(err, usecase.ErrSeatNumberTaken)

	all, err := s.repo.Seat.FindAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 1, "a rejected batch inserts nothing")
}

func (s *StoreSuite) TestHoldLifecycle() {
	ctx := context.Background()
	seats := s.seedSeats("A1", "A2", "A3")
	t0 := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	booking := usecase.NewBookingService(s.repo, zap.NewNop(), usecase.WithClock(clock.NewFixed(t0)))
	buyer := usecase.Buyer{Name: "Ann", Email: "ann@example.com"}

	holdIDs, _, err := booking.HoldSeats(ctx, []int64{seats[0].ID, seats[1].ID}, buyer)
	s.Require().NoError(err)
	s.Require().Len(holdIDs, 2)

	confirmed, err := booking.ConfirmBooking(ctx, holdIDs)
	s.Require().NoError(err)
	s.Equal(2, confirmed)

	_, _, err = booking.HoldSeats(ctx, []int64{seats[2].ID}, buyer)
	s.Require().NoError(err)

	released, err := booking.ReleaseExpiredHolds(ctx, t0.Add(7*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, released)

	all, err := s.repo.Seat.FindAll(ctx)
	s.Require().NoError(err)
	s.Equal(entity.SeatStatusBooked, all[0].Status)
	s.Equal(entity.SeatStatusBooked, all[1].Status)
	s.Equal(entity.SeatStatusAvailable, all[2].Status)

	catalog := usecase.NewCatalogService(s.repo, utils.BookingConfig{
		InitialSeatCount: 3,
		DefaultSeatPrice: decimal.NewFromInt(150),
		SeatsPerRow:      10,
	}, zap.NewNop())

	result, err := catalog.ResetCatalog(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), result.HoldsDeleted)
	s.Equal(3, result.SeatsReset)

	available, err := s.repo.Seat.CountByStatus(ctx, entity.SeatStatusAvailable)
	s.Require().NoError(err)
	s.Equal(int64(3), available)

	expired, err := s.repo.Hold.FindActiveExpiredBefore(ctx, t0.Add(time.Hour))
	s.Require().NoError(err)
	s.Empty(expired)
}
