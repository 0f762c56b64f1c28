package usecase

import (
	"seat-booking/internal/clock"
	"seat-booking/internal/data/repository"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
	Catalog CatalogService
	Payment PaymentService
}

func NewService(repo *repository.Repository, config *utils.Config, publisher EventPublisher, clk clock.Clock, log *zap.Logger) *Service {
	opts := []BookingOption{
		WithHoldTTL(config.Booking.HoldTTL),
		WithClock(clk),
		WithPublisher(publisher),
	}
	if !config.Booking.StrictConfirmation {
		opts = append(opts, WithLenientConfirm())
	}

	booking := NewBookingService(repo, log, opts...)

	return &Service{
		Booking: booking,
		Catalog: NewCatalogService(repo, config.Booking, log),
		Payment: NewPaymentService(booking, config.Payment, log),
	}
}
