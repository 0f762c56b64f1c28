package entity

import (
	"time"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "ACTIVE"
	HoldStatusCompleted HoldStatus = "COMPLETED"
	HoldStatusExpired   HoldStatus = "EXPIRED"
)

// Hold is a time-bounded claim on one seat by one buyer.
type Hold struct {
	ID         int64      `db:"id"`
	SeatID     int64      `db:"seat_id"`
	UserName   string     `db:"user_name"`
	UserEmail  string     `db:"user_email"`
	UserPhone  string     `db:"user_phone"`
	HoldTime   time.Time  `db:"hold_time"`
	ExpiryTime time.Time  `db:"expiry_time"`
	Status     HoldStatus `db:"status"`
}

func (h *Hold) IsActive() bool {
	return h.Status == HoldStatusActive
}
