package request

type ConfirmPaymentRequest struct {
	OrderID   string  `json:"order_id" validate:"required"`
	PaymentID string  `json:"payment_id" validate:"required"`
	Signature string  `json:"signature" validate:"required,hexadecimal"`
	HoldIDs   []int64 `json:"hold_ids" validate:"required,min=1,dive,gt=0"`
}
