package bookings

import (
	"time"

	"zappoint/internal/pricing"
)

// CreateBookingResponse is the confirmation returned to the portal.
type CreateBookingResponse struct {
	BookingID       string            `json:"booking_id"`
	ReferenceNumber string            `json:"reference_number"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	AmountPaid      float64           `json:"amount_paid"`
	Breakdown       pricing.Breakdown `json:"breakdown"`
	CreatedAt       time.Time         `json:"created_at"`
}
