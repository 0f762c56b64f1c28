package response

type PaymentConfirmedResponse struct {
	OrderID        string `json:"order_id"`
	PaymentID      string `json:"payment_id"`
	HoldsConfirmed int    `json:"holds_confirmed"`
}
