// Package event defines the hold lifecycle messages published to the broker.
package event

import "time"

// Routing keys, one durable queue each.
const (
	HoldsCreated   = "holds.created"
	HoldsConfirmed = "holds.confirmed"
	HoldsReleased  = "holds.released"
	HoldsExpired   = "holds.expired"
)

// HoldEvent is published after a hold transition has been committed.
type HoldEvent struct {
	Type       string    `json:"type"`
	HoldIDs    []int64   `json:"hold_ids"`
	SeatIDs    []int64   `json:"seat_ids"`
	UserEmail  string    `json:"user_email,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	OccurredAt time.Time `json:"occurred_at"`
}
