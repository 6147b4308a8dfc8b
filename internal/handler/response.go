package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartfare/internal/engine"
	"smartfare/internal/repository"
	"smartfare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/engine/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoTravelSession):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidAccountID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidDebitID),
		errors.Is(err, service.ErrInvalidDebitAmount),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, engine.ErrInvalidPosition):
		return http.StatusBadRequest

	// Conflict errors - wrong state for the requested transition
	case errors.Is(err, engine.ErrTravelInProgress),
		errors.Is(err, engine.ErrNoActiveTrip),
		errors.Is(err, engine.ErrPickupNotRequested),
		errors.Is(err, service.ErrVerificationInProgress),
		errors.Is(err, service.ErrLiveModeDisabled):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, engine.ErrVerificationFailed),
		errors.Is(err, service.ErrFingerprintNotEnrolled),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, repository.ErrInsufficientFunds):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, engine.ErrPositionSourceUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
