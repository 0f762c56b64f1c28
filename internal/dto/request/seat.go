package request

import "github.com/shopspring/decimal"

type UserDetails struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type HoldSeatsRequest struct {
	SeatIDs     []int64     `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
	UserDetails UserDetails `json:"user_details"`
}

type ReleaseHoldsRequest struct {
	HoldIDs []int64 `json:"hold_ids" validate:"required,min=1,dive,gt=0"`
}

type CreateSeatsRequest struct {
	SeatNumbers []string         `json:"seat_numbers" validate:"required,min=1,unique,dive,required,max=16"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}
