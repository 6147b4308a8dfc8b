package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartfare/internal/domain"
	"smartfare/internal/service"
)

// TripHandler handles HTTP requests for completed trip history.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP response for trip history operations.
type TripResponse struct {
	TripID         string  `json:"trip_id"`
	AccountID      string  `json:"account_id"`
	Status         string  `json:"status"`
	PickupLocation string  `json:"pickup_location"`
	DropLocation   string  `json:"drop_location"`
	DistanceKm     float64 `json:"distance_km"`
	EstimatedFare  int64   `json:"estimated_fare"`
	ActualFare     int64   `json:"actual_fare"`
	PickupTime     string  `json:"pickup_time"`
	DropTime       string  `json:"drop_time,omitempty"`
}

// Get handles GET /v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetByAccount handles GET /v1/accounts/:id/trips
func (h *TripHandler) GetByAccount(c *gin.Context) {
	trips, err := h.tripService.GetAccountTrips(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

func toTripResponse(trip *domain.Trip) TripResponse {
	response := TripResponse{
		TripID:         trip.ID,
		AccountID:      trip.AccountID,
		Status:         string(trip.Status),
		PickupLocation: trip.PickupLocation,
		DropLocation:   trip.DropLocation,
		DistanceKm:     trip.Distance,
		EstimatedFare:  trip.EstimatedFare,
		ActualFare:     trip.ActualFare,
		PickupTime:     trip.PickupTime.Format("2006-01-02T15:04:05Z07:00"),
	}

	if !trip.DropTime.IsZero() {
		response.DropTime = trip.DropTime.Format("2006-01-02T15:04:05Z07:00")
	}

	return response
}
