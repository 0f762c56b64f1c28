package wire

import (
	"seat-booking/internal/adaptor"
	"seat-booking/pkg/middleware"
	"seat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSeat(
	r chi.Router,
	seatHandler *adaptor.SeatHandler,
	deps Deps,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/seats", func(r chi.Router) {
		// GET /seats - All seats with their current status
		r.Get("/", seatHandler.ListSeats)

		// POST /seats/hold - Hold seats for a buyer, rate limited per client
		r.With(middleware.RateLimit(config.RateLimit, deps.Limiter, log)).
			Post("/hold", seatHandler.HoldSeats)

		// POST /seats/release - Give up holds before they expire
		r.Post("/release", seatHandler.ReleaseHolds)

		// POST /seats/bulk - Add seats to the catalog
		r.Post("/bulk", seatHandler.CreateSeats)
	})
}
