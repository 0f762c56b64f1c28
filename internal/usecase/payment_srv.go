package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

// PaymentConfirmation is what the payment gateway hands back to the client
// after a successful charge.
type PaymentConfirmation struct {
	OrderID   string
	PaymentID string
	Signature string
	HoldIDs   []int64
}

type PaymentService interface {
	// ConfirmPayment checks the gateway signature and, when it matches,
	// confirms the holds. Returns the number of holds confirmed.
	ConfirmPayment(ctx context.Context, confirmation PaymentConfirmation) (int, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type paymentService struct {
	booking BookingService
	secret  []byte
	log     *zap.Logger
}

func NewPaymentService(booking BookingService, config utils.PaymentConfig, log *zap.Logger) PaymentService {
	return &paymentService{
		booking: booking,
		secret:  []byte(config.Secret),
		log:     log.With(zap.String("service", "payment")),
	}
}

// SignPayment returns the hex HMAC-SHA256 of "orderID|paymentID".
func SignPayment(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *paymentService) VerifySignature(orderID, paymentID, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}
	expected := SignPayment(s.secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *paymentService) ConfirmPayment(ctx context.Context, confirmation PaymentConfirmation) (int, error) {
	if !s.VerifySignature(confirmation.OrderID, confirmation.PaymentID, confirmation.Signature) {
		s.log.Warn("Payment signature mismatch",
			zap.String("order_id", confirmation.OrderID),
			zap.String("payment_id", confirmation.PaymentID),
		)
		return 0, ErrInvalidSignature
	}

	confirmed, err := s.booking.ConfirmBooking(ctx, confirmation.HoldIDs)
	if err != nil {
		return 0, fmt.Errorf("confirm payment %s: %w", confirmation.PaymentID, err)
	}

	s.log.Info("Payment confirmed",
		zap.String("order_id", confirmation.OrderID),
		zap.String("payment_id", confirmation.PaymentID),
		zap.Int("holds_confirmed", confirmed),
	)

	return confirmed, nil
}
