package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"seat-booking/internal/dto/request"
	"seat-booking/internal/dto/response"
	"seat-booking/internal/usecase"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// ConfirmPayment handles POST /payment/confirm
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		h.log.Debug("Validation failed", zap.String("errors", utils.FormatValidationErrors(validationErrors)))
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	confirmed, err := h.service.ConfirmPayment(r.Context(), usecase.PaymentConfirmation{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		HoldIDs:   req.HoldIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidSignature):
			h.log.Warn("Payment confirmation rejected",
				zap.String("order_id", req.OrderID),
				zap.String("payment_id", req.PaymentID))
			utils.ResponseBadRequest(w, "Invalid payment signature", nil)
		case errors.Is(err, usecase.ErrLockConflict):
			utils.ResponseConflict(w, usecase.ErrLockConflict.Error())
		default:
			h.log.Error("Failed to confirm payment",
				zap.Error(err),
				zap.String("order_id", req.OrderID))
			utils.ResponseInternalError(w, "Payment confirmation failed")
		}
		return
	}

	utils.ResponseSuccess(w, "Payment confirmed and seats booked", response.PaymentConfirmedResponse{
		OrderID:        req.OrderID,
		PaymentID:      req.PaymentID,
		HoldsConfirmed: confirmed,
	})
}
