package entity

import "github.com/shopspring/decimal"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

type Seat struct {
	Base
	SeatNumber string          `db:"seat_number"` // A1, A2, B1, etc.
	Price      decimal.Decimal `db:"price"`
	Status     SeatStatus      `db:"status"`
}

// IsAvailable reports whether the seat can be offered to a buyer.
func (s *Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}
