package bookings

import (
	"zappoint/internal/payments"
)

// ItemSelectionRequest selects one attraction or add-on by id.
type ItemSelectionRequest struct {
	ID       string `json:"id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CustomerRequest is the customer contact block; every field is required
// before submission.
type CustomerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
}

// CreateBookingRequest carries the fully selected booking. Totals are NOT
// part of the request: the service re-prices server-side and clients cannot
// influence what is charged.
type CreateBookingRequest struct {
	PackageID string `json:"package_id" binding:"required,uuid"`
	RoomID    string `json:"room_id" binding:"omitempty,uuid"`

	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required"`

	Participants int `json:"participants" binding:"required,min=1"`

	Attractions []ItemSelectionRequest `json:"attractions" binding:"omitempty,dive"`
	AddOns      []ItemSelectionRequest `json:"add_ons" binding:"omitempty,dive"`

	PromoCode    string `json:"promo_code"`
	GiftCardCode string `json:"gift_card_code"`

	Customer CustomerRequest `json:"customer" binding:"required"`

	PaymentMethod string `json:"payment_method" binding:"required,oneof=card on_site"`
	PaymentSplit  string `json:"payment_split" binding:"omitempty,oneof=full partial"`

	// Card details, only consulted when PaymentMethod is card and the
	// package has online processing enabled. Never persisted.
	Card *payments.CardDetails `json:"card,omitempty"`
}
