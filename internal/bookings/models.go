package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is a confirmed reservation of a package slot, carrying the fully
// priced selection as a snapshot: prices are copied at booking time so later
// catalog edits never change what a customer was charged.
type Booking struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PackageID uuid.UUID  `gorm:"type:uuid;index;not null" json:"package_id"`
	RoomID    *uuid.UUID `gorm:"type:uuid;index" json:"room_id,omitempty"`

	// Slot: calendar date plus start/end within the operating window
	Date      string `gorm:"type:varchar(10);index;not null" json:"date"` // YYYY-MM-DD
	StartTime string `gorm:"type:varchar(5);not null" json:"start_time"` // HH:MM
	EndTime   string `gorm:"type:varchar(5);not null" json:"end_time"`   // HH:MM

	Participants int `gorm:"not null" json:"participants"`

	// Priced totals at booking time
	Subtotal   float64 `gorm:"not null" json:"subtotal"`
	Discount   float64 `json:"discount"`
	Total      float64 `gorm:"not null" json:"total"`
	AmountPaid float64 `json:"amount_paid"`

	// Resolved discount sources (codes resolved to ids at booking time)
	PromoID    *uuid.UUID `gorm:"type:uuid" json:"promo_id,omitempty"`
	GiftCardID *uuid.UUID `gorm:"type:uuid" json:"gift_card_id,omitempty"`

	PaymentMethod string `gorm:"type:varchar(20)" json:"payment_method"`
	PaymentStatus string `gorm:"type:varchar(20);check:payment_status IN ('UNPAID', 'PARTIALLY_PAID', 'PAID');default:'UNPAID'" json:"payment_status"`

	Status          string `gorm:"type:varchar(20);check:status IN ('CONFIRMED', 'CANCELLED');default:'CONFIRMED'" json:"status"`
	ReferenceNumber string `gorm:"unique;not null" json:"reference_number"`

	CustomerFirstName string `gorm:"not null" json:"customer_first_name"`
	CustomerLastName  string `gorm:"not null" json:"customer_last_name"`
	CustomerEmail     string `gorm:"not null" json:"customer_email"`
	CustomerPhone     string `gorm:"not null" json:"customer_phone"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// Relationships
	Items    []BookingItem `json:"items,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
	Payments []Payment     `json:"payments,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:RESTRICT;"`
}

// BookingItem is one attraction or add-on line frozen at its booking-time
// price.
type BookingItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	ItemType  string    `gorm:"type:varchar(20);check:item_type IN ('attraction', 'add_on');not null" json:"item_type"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null" json:"item_id"`
	Name      string    `gorm:"not null" json:"name"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	LineTotal float64   `gorm:"not null" json:"line_total"`
	CreatedAt time.Time `json:"created_at"`
}

// Payment tracks one charge against a booking.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Status        string     `gorm:"type:varchar(20);check:status IN ('PENDING', 'COMPLETED', 'FAILED', 'REFUNDED');default:'PENDING'" json:"status"`
	Method        string     `gorm:"type:varchar(20)" json:"method"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Booking) TableName() string     { return "bookings" }
func (BookingItem) TableName() string { return "booking_items" }
func (Payment) TableName() string     { return "payments" }

// Booking status values
const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Payment status values on the booking
const (
	PaymentUnpaid        = "UNPAID"
	PaymentPartiallyPaid = "PARTIALLY_PAID"
	PaymentPaid          = "PAID"
)

// Payment methods
const (
	MethodCard   = "card"
	MethodOnSite = "on_site"
)

// Payment split choices
const (
	SplitFull    = "full"
	SplitPartial = "partial"
)

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

func (b *Booking) Cancel() {
	now := time.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
}
