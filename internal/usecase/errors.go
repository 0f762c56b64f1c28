package usecase

import "errors"

var (
	ErrNoSeatsRequested = errors.New("validation failed: no seats requested")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatUnavailable  = errors.New("seat is not available")
	ErrSeatNumberTaken  = errors.New("seat number already exists")
	ErrHoldNotFound     = errors.New("hold not found")
	ErrLockConflict     = errors.New("lock conflict, retry the request")
	ErrInvalidSignature = errors.New("invalid payment signature")
)
