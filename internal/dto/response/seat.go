package response

import (
	"time"

	"seat-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type SeatResponse struct {
	ID         int64             `json:"id"`
	SeatNumber string            `json:"seat_number"`
	Price      decimal.Decimal   `json:"price"`
	Status     entity.SeatStatus `json:"status"`
}

type HoldResponse struct {
	HoldIDs          []int64   `json:"hold_ids"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInSeconds int       `json:"expires_in_seconds"`
}

type ReleaseResponse struct {
	Released int `json:"released"`
}

// Helper converters
func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		ID:         seat.ID,
		SeatNumber: seat.SeatNumber,
		Price:      seat.Price,
		Status:     seat.Status,
	}
}

func SeatsToResponse(seats []*entity.Seat) []SeatResponse {
	res := make([]SeatResponse, len(seats))
	for i, seat := range seats {
		res[i] = SeatToResponse(seat)
	}
	return res
}
