package adaptor

import (
	"seat-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Seat    *SeatHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Seat:    NewSeatHandler(service.Booking, service.Catalog, log),
		Payment: NewPaymentHandler(service.Payment, log),
	}
}
