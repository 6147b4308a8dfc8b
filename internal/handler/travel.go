package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartfare/internal/domain"
	"smartfare/internal/engine"
	"smartfare/internal/service"
)

// TravelHandler handles HTTP requests for the travel lifecycle.
type TravelHandler struct {
	travelService *service.TravelService
}

// NewTravelHandler creates a new TravelHandler.
func NewTravelHandler(travelService *service.TravelService) *TravelHandler {
	return &TravelHandler{travelService: travelService}
}

// VerifyRequest carries the station label for a verified boarding or exit.
type VerifyRequest struct {
	Location string `json:"location" binding:"required"`
}

// PositionRequest is a device fix pushed in live mode.
type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TravelResponse is the HTTP response for travel state operations.
type TravelResponse struct {
	AccountID      string  `json:"account_id"`
	State          string  `json:"state"`
	TripID         string  `json:"trip_id,omitempty"`
	PickupLocation string  `json:"pickup_location,omitempty"`
	DropLocation   string  `json:"drop_location,omitempty"`
	DistanceKm     float64 `json:"distance_km"`
	EstimatedFare  int64   `json:"estimated_fare,omitempty"`
	ActualFare     int64   `json:"actual_fare,omitempty"`
	SourceStatus   string  `json:"source_status,omitempty"`
	Lat            float64 `json:"lat,omitempty"`
	Lng            float64 `json:"lng,omitempty"`
}

// CompleteTravelResponse is the HTTP response for drop verification.
type CompleteTravelResponse struct {
	Trip    TripResponse `json:"trip"`
	Debit   *DebitInfo   `json:"debit,omitempty"`
	Receipt *ReceiptInfo `json:"receipt,omitempty"`
}

// DebitInfo contains wallet debit details in the response.
type DebitInfo struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// ReceiptInfo contains receipt details in the response.
type ReceiptInfo struct {
	ID              string  `json:"id"`
	PickupLocation  string  `json:"pickup_location"`
	DropLocation    string  `json:"drop_location"`
	DistanceKm      float64 `json:"distance_km"`
	Fare            int64   `json:"fare"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// Begin handles POST /v1/travel/:accountId/begin
func (h *TravelHandler) Begin(c *gin.Context) {
	snap, err := h.travelService.BeginTravel(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTravelResponse(snap))
}

// VerifyPickup handles POST /v1/travel/:accountId/pickup/verify
func (h *TravelHandler) VerifyPickup(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	snap, err := h.travelService.VerifyPickup(c.Request.Context(), c.Param("accountId"), req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTravelResponse(snap))
}

// PublishPosition handles POST /v1/travel/:accountId/position
func (h *TravelHandler) PublishPosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.travelService.PublishPosition(c.Request.Context(), c.Param("accountId"), domain.GeoPosition{
		Lat: req.Lat,
		Lng: req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// End handles POST /v1/travel/:accountId/drop
func (h *TravelHandler) End(c *gin.Context) {
	snap, err := h.travelService.EndTravel(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTravelResponse(snap))
}

// VerifyDrop handles POST /v1/travel/:accountId/drop/verify
func (h *TravelHandler) VerifyDrop(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.travelService.VerifyDrop(c.Request.Context(), c.Param("accountId"), req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	response := CompleteTravelResponse{
		Trip: toTripResponse(result.Trip),
	}

	if result.Debit != nil {
		response.Debit = &DebitInfo{
			ID:     result.Debit.ID,
			Amount: result.Debit.Amount,
			Status: string(result.Debit.Status),
		}
	}

	if result.Receipt != nil {
		response.Receipt = &ReceiptInfo{
			ID:              result.Receipt.ID,
			PickupLocation:  result.Receipt.PickupLocation,
			DropLocation:    result.Receipt.DropLocation,
			DistanceKm:      result.Receipt.DistanceKm,
			Fare:            result.Receipt.Fare,
			DurationMinutes: result.Receipt.Duration.Minutes(),
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// Cancel handles POST /v1/travel/:accountId/cancel
func (h *TravelHandler) Cancel(c *gin.Context) {
	if err := h.travelService.CancelTravel(c.Request.Context(), c.Param("accountId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Current handles GET /v1/travel/:accountId
func (h *TravelHandler) Current(c *gin.Context) {
	snap, err := h.travelService.CurrentTravel(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, snap)
}

func toTravelResponse(snap engine.Snapshot) TravelResponse {
	response := TravelResponse{
		AccountID:    snap.AccountID,
		State:        string(snap.State),
		DistanceKm:   snap.DistanceKm,
		SourceStatus: string(snap.SourceStatus),
	}

	if snap.Trip != nil {
		response.TripID = snap.Trip.ID
		response.PickupLocation = snap.Trip.PickupLocation
		response.DropLocation = snap.Trip.DropLocation
		response.EstimatedFare = snap.Trip.EstimatedFare
		response.ActualFare = snap.Trip.ActualFare
	}

	if snap.HasPosition {
		response.Lat = snap.Position.Lat
		response.Lng = snap.Position.Lng
	}

	return response
}
