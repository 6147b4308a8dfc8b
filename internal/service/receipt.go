package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smartfare/internal/domain"
	"smartfare/internal/geo"
)

// ReceiptService handles receipt generation.
type ReceiptService struct {
	notificationService *NotificationService
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(notificationService *NotificationService) *ReceiptService {
	return &ReceiptService{
		notificationService: notificationService,
	}
}

// GenerateReceipt generates a receipt for a completed trip.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, trip *domain.Trip) (*domain.Receipt, error) {
	if trip == nil || trip.Status != domain.TripStatusCompleted {
		return nil, ErrInvalidTripID
	}

	receipt := &domain.Receipt{
		ID:             uuid.New().String(),
		TripID:         trip.ID,
		AccountID:      trip.AccountID,
		PickupLocation: trip.PickupLocation,
		DropLocation:   trip.DropLocation,
		DistanceKm:     geo.RoundKm(trip.Distance),
		Fare:           trip.ActualFare,
		Duration:       trip.DropTime.Sub(trip.PickupTime),
		StartedAt:      trip.PickupTime,
		EndedAt:        trip.DropTime,
		CreatedAt:      time.Now(),
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyReceiptReady(ctx, receipt)
	}

	return receipt, nil
}

// FormatReceipt formats the receipt as a string (for email/print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	return `
=====================================
        TRAVEL RECEIPT
=====================================
Receipt ID: ` + receipt.ID + `
Trip ID: ` + receipt.TripID + `
Date: ` + receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

TRIP DETAILS
-------------------------------------
Pickup:   ` + receipt.PickupLocation + `
Drop:     ` + receipt.DropLocation + `
Duration: ` + formatDuration(receipt.Duration) + `
Distance: ` + fmt.Sprintf("%.2f", receipt.DistanceKm) + ` km

FARE
-------------------------------------
TOTAL:    ` + fmt.Sprintf("%d", receipt.Fare) + `

=====================================
    Thank you for riding with us!
=====================================
`
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	return fmt.Sprintf("%d min", minutes)
}
