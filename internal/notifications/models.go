package notifications

import (
	"encoding/json"
	"time"
)

// EventType identifies the booking lifecycle transition an event describes.
type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
)

// BookingEvent is the message published to Kafka when a booking changes
// state. Downstream consumers (email, SMS, analytics) subscribe to the
// booking-events topic; this service only produces.
type BookingEvent struct {
	Type            EventType `json:"type"`
	BookingID       string    `json:"booking_id"`
	ReferenceNumber string    `json:"reference_number"`
	PackageID       string    `json:"package_id"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	Total           float64   `json:"total"`
	AmountPaid      float64   `json:"amount_paid"`
	CustomerEmail   string    `json:"customer_email"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ToJSON serializes the event for the wire.
func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events for one booking to the same partition so
// consumers see them in order.
func (e *BookingEvent) PartitionKey() string {
	return e.BookingID
}
