package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"seat-booking/internal/dto/request"
	"seat-booking/internal/dto/response"
	"seat-booking/internal/usecase"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type SeatHandler struct {
	booking usecase.BookingService
	catalog usecase.CatalogService
	log     *zap.Logger
}

func NewSeatHandler(booking usecase.BookingService, catalog usecase.CatalogService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		booking: booking,
		catalog: catalog,
		log:     log.With(zap.String("handler", "seat")),
	}
}

// ListSeats handles GET /seats
func (h *SeatHandler) ListSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.catalog.ListSeats(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list seats")
		return
	}

	utils.ResponseSuccess(w, "success", response.SeatsToResponse(seats))
}

// HoldSeats handles POST /seats/hold
func (h *SeatHandler) HoldSeats(w http.ResponseWriter, r *http.Request) {
	var req request.HoldSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	// Validate request
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		h.log.Debug("Validation failed", zap.String("errors", utils.FormatValidationErrors(validationErrors)))
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	buyer := usecase.Buyer{
		Name:  req.UserDetails.Name,
		Email: req.UserDetails.Email,
		Phone: req.UserDetails.Phone,
	}

	holdIDs, expiresAt, err := h.booking.HoldSeats(r.Context(), req.SeatIDs, buyer)
	if err != nil {
		h.handleServiceError(w, err, "hold seats")
		return
	}

	ttl := h.booking.HoldTTL()
	utils.ResponseCreated(w, "Seats held successfully", response.HoldResponse{
		HoldIDs:          holdIDs,
		ExpiresAt:        expiresAt,
		ExpiresInSeconds: int(ttl.Seconds()),
	})
}

// ReleaseHolds handles POST /seats/release
func (h *SeatHandler) ReleaseHolds(w http.ResponseWriter, r *http.Request) {
	var req request.ReleaseHoldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		h.log.Debug("Validation failed", zap.String("errors", utils.FormatValidationErrors(validationErrors)))
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	released, err := h.booking.ReleaseHolds(r.Context(), req.HoldIDs)
	if err != nil {
		h.handleServiceError(w, err, "release holds")
		return
	}

	utils.ResponseSuccess(w, "success", response.ReleaseResponse{Released: released})
}

// CreateSeats handles POST /seats/bulk
func (h *SeatHandler) CreateSeats(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		h.log.Debug("Validation failed", zap.String("errors", utils.FormatValidationErrors(validationErrors)))
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	seats, err := h.catalog.CreateSeats(r.Context(), req.SeatNumbers, req.Price)
	if err != nil {
		h.handleServiceError(w, err, "create seats")
		return
	}

	utils.ResponseCreated(w, "success", response.SeatsToResponse(seats))
}

// handleServiceError maps service errors to HTTP responses
func (h *SeatHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	switch {
	case errors.Is(err, usecase.ErrSeatNotFound):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, errMsg)

	case errors.Is(err, usecase.ErrSeatUnavailable), errors.Is(err, usecase.ErrSeatNumberTaken):
		h.log.Warn(operation+" failed - seat unavailable",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, usecase.ErrLockConflict):
		h.log.Warn(operation+" failed - lock conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, usecase.ErrLockConflict.Error())

	case errors.Is(err, usecase.ErrNoSeatsRequested), strings.Contains(errMsg, "validation failed"):
		h.log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, errMsg, nil)

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
