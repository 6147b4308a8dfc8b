package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"smartfare/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripStarted  NotificationType = "TRIP_STARTED"
	NotificationTripEnded    NotificationType = "TRIP_ENDED"
	NotificationDebitSuccess NotificationType = "DEBIT_SUCCESS"
	NotificationDebitFailed  NotificationType = "DEBIT_FAILED"
	NotificationReceiptReady NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would hold a push client (FCM/APNS) and an
	// SMS client; the wallet app receives trip and debit events.
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyTripStarted notifies the rider that pickup was verified.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripStarted,
		RecipientID: trip.AccountID,
		Title:       "Trip Started",
		Message:     fmt.Sprintf("Boarded at %s", trip.PickupLocation),
		Data: map[string]interface{}{
			"trip_id":         trip.ID,
			"pickup_location": trip.PickupLocation,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyTripEnded notifies the rider about the final fare.
func (s *NotificationService) NotifyTripEnded(ctx context.Context, trip *domain.Trip) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripEnded,
		RecipientID: trip.AccountID,
		Title:       "Trip Ended",
		Message:     fmt.Sprintf("Trip ended at %s. Fare: %d", trip.DropLocation, trip.ActualFare),
		Data: map[string]interface{}{
			"trip_id":     trip.ID,
			"distance_km": trip.Distance,
			"actual_fare": trip.ActualFare,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDebitResult notifies the rider whether the wallet debit went through.
func (s *NotificationService) NotifyDebitResult(ctx context.Context, debit *domain.Debit) error {
	notification := Notification{
		RecipientID: debit.AccountID,
		Data: map[string]interface{}{
			"debit_id": debit.ID,
			"trip_id":  debit.TripID,
			"amount":   debit.Amount,
		},
		CreatedAt: time.Now(),
	}

	if debit.Status == domain.DebitStatusSuccess {
		notification.Type = NotificationDebitSuccess
		notification.Title = "Fare Paid"
		notification.Message = fmt.Sprintf("%d deducted from your wallet", debit.Amount)
	} else {
		notification.Type = NotificationDebitFailed
		notification.Title = "Payment Failed"
		notification.Message = "Fare could not be deducted. Please top up your wallet."
	}

	return s.send(ctx, notification)
}

// NotifyReceiptReady notifies the rider that the receipt is ready.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) error {
	return s.send(ctx, Notification{
		Type:        NotificationReceiptReady,
		RecipientID: receipt.AccountID,
		Title:       "Receipt Ready",
		Message:     fmt.Sprintf("Your receipt for %d is ready", receipt.Fare),
		Data: map[string]interface{}{
			"receipt_id": receipt.ID,
			"trip_id":    receipt.TripID,
			"fare":       receipt.Fare,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
