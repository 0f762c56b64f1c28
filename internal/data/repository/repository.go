package repository

import (
	"context"

	"seat-booking/pkg/database"

	"go.uber.org/zap"
)

// Transactor runs fn in one database transaction. Repository calls made with
// the context handed to fn join that transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Tx   Transactor
	Seat SeatRepository
	Hold HoldRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:   db,
		Seat: NewSeatRepository(db, log),
		Hold: NewHoldRepository(db, log),
	}
}
