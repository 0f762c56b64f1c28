package repository

import (
	"context"
	"fmt"
	"time"

	"seat-booking/internal/data/entity"
	"seat-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HoldRepository interface {
	Create(ctx context.Context, hold *entity.Hold) error
	UpdateStatus(ctx context.Context, id int64, status entity.HoldStatus) error
	DeleteAll(ctx context.Context) (int64, error)

	// Locking reads, used inside a transaction
	FindByIDsForUpdate(ctx context.Context, ids []int64) ([]*entity.Hold, error)
	FindActiveExpiredBefore(ctx context.Context, ts time.Time) ([]*entity.Hold, error)
}

type holdRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHoldRepository(db database.PgxIface, log *zap.Logger) HoldRepository {
	return &holdRepository{
		db:  db,
		log: log.With(zap.String("repository", "hold")),
	}
}

const holdColumns = `id, seat_id, user_name, user_email, user_phone, hold_time, expiry_time, status`

func scanHold(row pgx.Row) (*entity.Hold, error) {
	var hold entity.Hold
	err := row.Scan(
		&hold.ID,
		&hold.SeatID,
		&hold.UserName,
		&hold.UserEmail,
		&hold.UserPhone,
		&hold.HoldTime,
		&hold.ExpiryTime,
		&hold.Status,
	)
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *holdRepository) Create(ctx context.Context, hold *entity.Hold) error {
	query := `
		INSERT INTO holds (seat_id, user_name, user_email, user_phone, hold_time, expiry_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		hold.SeatID,
		hold.UserName,
		hold.UserEmail,
		hold.UserPhone,
		hold.HoldTime,
		hold.ExpiryTime,
		hold.Status,
	).Scan(&hold.ID)

	if err != nil {
		r.log.Error("Failed to create hold",
			zap.Error(err),
			zap.Int64("seat_id", hold.SeatID),
		)
		return fmt.Errorf("failed to create hold: %w", err)
	}

	return nil
}

func (r *holdRepository) UpdateStatus(ctx context.Context, id int64, status entity.HoldStatus) error {
	query := `UPDATE holds SET status = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update hold status",
			zap.Error(err),
			zap.Int64("hold_id", id),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update hold %d status to %s: %w", id, string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("hold %d not found", id)
	}

	return nil
}

func (r *holdRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM holds`)
	if err != nil {
		r.log.Error("Failed to delete holds", zap.Error(err))
		return 0, fmt.Errorf("failed to delete holds: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *holdRepository) FindByIDsForUpdate(ctx context.Context, ids []int64) ([]*entity.Hold, error) {
	if len(ids) == 0 {
		return []*entity.Hold{}, nil
	}

	// Locks are taken in id order so concurrent callers cannot deadlock on holds.
	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	return r.queryHolds(ctx, "find holds by IDs", query, ids)
}

func (r *holdRepository) FindActiveExpiredBefore(ctx context.Context, ts time.Time) ([]*entity.Hold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM holds
		WHERE status = $1 AND expiry_time < $2
		ORDER BY id
		FOR UPDATE SKIP LOCKED
	`

	return r.queryHolds(ctx, "find expired holds", query, entity.HoldStatusActive, ts)
}

func (r *holdRepository) queryHolds(ctx context.Context, operation, query string, args ...any) ([]*entity.Hold, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+operation, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", operation, err)
	}
	defer rows.Close()

	holds := []*entity.Hold{}
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			r.log.Error("Failed to scan hold row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan hold: %w", err)
		}
		holds = append(holds, hold)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", operation, err)
	}

	return holds, nil
}
