package repository

import (
	"context"
	"errors"
	"fmt"

	"seat-booking/internal/data/entity"
	"seat-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SeatRepository interface {
	// CRUD Seat
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByID(ctx context.Context, id int64) (*entity.Seat, error)
	FindAll(ctx context.Context) ([]*entity.Seat, error)
	Save(ctx context.Context, seat *entity.Seat) error
	SaveAll(ctx context.Context, seats []*entity.Seat) error
	UpdateStatus(ctx context.Context, id int64, status entity.SeatStatus) error

	// Counter for inventory bootstrap
	CountByStatus(ctx context.Context, status entity.SeatStatus) (int64, error)

	// LockByID reads the seat with an exclusive row lock held until the
	// surrounding transaction ends. Returns nil, nil when the seat does not exist.
	LockByID(ctx context.Context, id int64) (*entity.Seat, error)
	LockAll(ctx context.Context) ([]*entity.Seat, error)

	// LockInventory serializes inventory changes across processes until the
	// surrounding transaction ends. Must be called inside WithTx.
	LockInventory(ctx context.Context) error
}

// inventoryLockKey is the pg_advisory_xact_lock key guarding seat creation.
const inventoryLockKey int64 = 0x5ea7_1000

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, seat_number, price, status, created_at, updated_at`

func scanSeat(row pgx.Row) (*entity.Seat, error) {
	var seat entity.Seat
	err := row.Scan(
		&seat.ID,
		&seat.SeatNumber,
		&seat.Price,
		&seat.Status,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `
		INSERT INTO seats (seat_number, price, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	batch := &pgx.Batch{}
	for _, seat := range seats {
		batch.Queue(query, seat.SeatNumber, seat.Price, seat.Status)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, seat := range seats {
		err := results.QueryRow().Scan(&seat.ID, &seat.CreatedAt, &seat.UpdatedAt)
		if err != nil {
			r.log.Error("Failed to create batch seats",
				zap.Error(err),
				zap.Int("count", len(seats)),
				zap.String("seat_number", seat.SeatNumber),
			)
			return fmt.Errorf("failed to create batch seats: %w", err)
		}
	}

	return nil
}

func (r *seatRepository) FindByID(ctx context.Context, id int64) (*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	seat, err := scanSeat(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.Int64("seat_id", id),
		)
		return nil, fmt.Errorf("failed to find seat: %w", err)
	}

	return seat, nil
}

func (r *seatRepository) LockByID(ctx context.Context, id int64) (*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1 FOR UPDATE`

	seat, err := scanSeat(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock seat",
			zap.Error(err),
			zap.Int64("seat_id", id),
		)
		return nil, fmt.Errorf("failed to lock seat %d: %w", id, err)
	}

	return seat, nil
}

func (r *seatRepository) FindAll(ctx context.Context) ([]*entity.Seat, error) {
	return r.querySeats(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY id`)
}

// LockAll locks every seat row in id order.
func (r *seatRepository) LockAll(ctx context.Context) ([]*entity.Seat, error) {
	return r.querySeats(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY id FOR UPDATE`)
}

func (r *seatRepository) querySeats(ctx context.Context, query string) ([]*entity.Seat, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find seats", zap.Error(err))
		return nil, fmt.Errorf("failed to find seats: %w", err)
	}
	defer rows.Close()

	seats := []*entity.Seat{}
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seats: %w", err)
	}

	return seats, nil
}

func (r *seatRepository) Save(ctx context.Context, seat *entity.Seat) error {
	query := `
		UPDATE seats
		SET seat_number = $2, price = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, seat.ID, seat.SeatNumber, seat.Price, seat.Status).Scan(&seat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("seat %d not found", seat.ID)
	}
	if err != nil {
		r.log.Error("Failed to save seat",
			zap.Error(err),
			zap.Int64("seat_id", seat.ID),
			zap.String("status", string(seat.Status)),
		)
		return fmt.Errorf("failed to save seat %d: %w", seat.ID, err)
	}

	return nil
}

func (r *seatRepository) SaveAll(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `
		UPDATE seats
		SET seat_number = $2, price = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`

	batch := &pgx.Batch{}
	for _, seat := range seats {
		batch.Queue(query, seat.ID, seat.SeatNumber, seat.Price, seat.Status)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, seat := range seats {
		if _, err := results.Exec(); err != nil {
			r.log.Error("Failed to save seats",
				zap.Error(err),
				zap.Int64("seat_id", seat.ID),
				zap.Int("count", len(seats)),
			)
			return fmt.Errorf("failed to save seats: %w", err)
		}
	}

	return nil
}

func (r *seatRepository) UpdateStatus(ctx context.Context, id int64, status entity.SeatStatus) error {
	query := `UPDATE seats SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update seat status",
			zap.Error(err),
			zap.Int64("seat_id", id),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update seat %d status to %s: %w", id, string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("seat %d not found", id)
	}

	return nil
}

func (r *seatRepository) CountByStatus(ctx context.Context, status entity.SeatStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM seats WHERE status = $1`, status).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count seats by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return 0, fmt.Errorf("failed to count seats by status: %w", err)
	}
	return count, nil
}

func (r *seatRepository) LockInventory(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, inventoryLockKey); err != nil {
		r.log.Error("Failed to lock seat inventory", zap.Error(err))
		return fmt.Errorf("failed to lock seat inventory: %w", err)
	}
	return nil
}
