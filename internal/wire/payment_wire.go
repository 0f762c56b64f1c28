package wire

import (
	"seat-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler) {
	// POST /payment/confirm - Confirm holds after a signed payment callback
	r.Post("/payment/confirm", paymentHandler.ConfirmPayment)
}
