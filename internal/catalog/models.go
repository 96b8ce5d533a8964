package catalog

import (
	"time"

	"github.com/google/uuid"
)

// DurationUnit is how a package expresses session length.
type DurationUnit string

const (
	DurationMinutes DurationUnit = "minutes"
	DurationHours   DurationUnit = "hours"
)

// PricingType says how an attraction line multiplies.
type PricingType string

const (
	// PricingPerPerson multiplies the line by the participant count.
	PricingPerPerson PricingType = "per_person"
	// PricingPerUnit charges per selected unit regardless of party size.
	PricingPerUnit PricingType = "per_unit"
)

// DiscountType applies to promos and gift cards.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Package is the bookable product: a priced base session plus everything the
// booking engine derives from it (availability rule, operating window, rooms,
// attractions, add-ons, discount codes, partial-payment policy). It is owned
// by the catalog and treated as immutable for the duration of a booking
// session.
type Package struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `gorm:"not null" json:"price"`

	// MaxParticipants is how many people the base price includes;
	// PricePerAdditional (0 = overage not sold) prices each person beyond it.
	MaxParticipants    int     `gorm:"not null;default:1" json:"max_participants"`
	PricePerAdditional float64 `json:"price_per_additional"`

	DurationValue int          `gorm:"not null" json:"duration_value"`
	DurationUnit  DurationUnit `gorm:"type:varchar(10);default:'minutes'" json:"duration_unit"`

	// Operating window and slot cadence, times as "HH:MM"
	StartTime           string `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime             string `gorm:"type:varchar(5);not null" json:"end_time"`
	SlotIntervalMinutes int    `gorm:"not null" json:"slot_interval_minutes"`

	// Recurring availability. AvailabilityType selects the rule variant;
	// AvailabilityDays serves daily/weekly, MonthlyPatterns serves monthly.
	AvailabilityType string               `gorm:"type:varchar(10);check:availability_type IN ('daily','weekly','monthly');default:'daily'" json:"availability_type"`
	AvailabilityDays []string             `gorm:"serializer:json" json:"availability_days,omitempty"`
	MonthlyPatterns  []MonthlyPatternSpec `gorm:"serializer:json" json:"monthly_patterns,omitempty"`

	// Partial payment policy: percentage wins when both are configured,
	// both zero means partial payment is not offered.
	PartialPaymentPercentage float64 `json:"partial_payment_percentage"`
	PartialPaymentFixed      float64 `json:"partial_payment_fixed"`

	// OnlineProcessingEnabled gates the card sub-flow at booking time.
	OnlineProcessingEnabled bool `gorm:"default:false" json:"online_processing_enabled"`

	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Attractions []Attraction `json:"attractions,omitempty" gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE;"`
	AddOns      []AddOn      `json:"add_ons,omitempty" gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE;"`
	Rooms       []Room       `json:"rooms,omitempty" gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE;"`
	Promos      []Promo      `json:"promos,omitempty" gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE;"`
	GiftCards   []GiftCard   `json:"gift_cards,omitempty" gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE;"`
}

// MonthlyPatternSpec is the stored shape of one monthly recurrence pattern.
// Exactly one of the three forms is populated: Day (1-31), Weekday+Ordinal
// ("sunday"+"last"), or LastDay.
type MonthlyPatternSpec struct {
	Day     int    `json:"day,omitempty"`
	Weekday string `json:"weekday,omitempty"`
	Ordinal string `json:"ordinal,omitempty"`
	LastDay bool   `json:"last_day,omitempty"`
}

// Attraction is a per-person or per-unit priced extra tied to a package.
type Attraction struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PackageID   uuid.UUID   `gorm:"type:uuid;index;not null" json:"package_id"`
	Name        string      `gorm:"not null" json:"name"`
	Price       float64     `gorm:"not null" json:"price"`
	PricingType PricingType `gorm:"type:varchar(20);check:pricing_type IN ('per_person','per_unit');default:'per_unit'" json:"pricing_type"`
	Active      bool        `gorm:"default:true" json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AddOn is a flat-priced extra (party favors, pizza trays, ...).
type AddOn struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PackageID uuid.UUID `gorm:"type:uuid;index;not null" json:"package_id"`
	Name      string    `gorm:"not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Room is a physical space a package can be booked into. Packages without
// rooms are booked venue-wide.
type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PackageID uuid.UUID `gorm:"type:uuid;index;not null" json:"package_id"`
	Name      string    `gorm:"not null" json:"name"`
	Capacity  int       `json:"capacity"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Promo is a redeemable discount code scoped to a package.
type Promo struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PackageID    uuid.UUID    `gorm:"type:uuid;index;not null" json:"package_id"`
	Code         string       `gorm:"not null;index" json:"code"`
	DiscountType DiscountType `gorm:"type:varchar(10);check:discount_type IN ('percentage','fixed');not null" json:"discount_type"`
	Value        float64      `gorm:"not null" json:"value"`
	Active       bool         `gorm:"default:true" json:"active"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// GiftCard is a prepaid discount code scoped to a package.
type GiftCard struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PackageID    uuid.UUID    `gorm:"type:uuid;index;not null" json:"package_id"`
	Code         string       `gorm:"not null;index" json:"code"`
	DiscountType DiscountType `gorm:"type:varchar(10);check:discount_type IN ('percentage','fixed');not null" json:"discount_type"`
	Value        float64      `gorm:"not null" json:"value"`
	Active       bool         `gorm:"default:true" json:"active"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Package) TableName() string    { return "packages" }
func (Attraction) TableName() string { return "attractions" }
func (AddOn) TableName() string      { return "add_ons" }
func (Room) TableName() string       { return "rooms" }
func (Promo) TableName() string      { return "promos" }
func (GiftCard) TableName() string   { return "gift_cards" }

// DurationMinutes normalizes the duration value+unit to minutes.
func (p *Package) DurationMinutes() int {
	if p.DurationUnit == DurationHours {
		return p.DurationValue * 60
	}
	return p.DurationValue
}

// HasRooms reports whether a room choice is required before booking.
func (p *Package) HasRooms() bool {
	return len(p.Rooms) > 0
}

// OffersPartialPayment reports whether either partial-payment policy is set.
func (p *Package) OffersPartialPayment() bool {
	return p.PartialPaymentPercentage > 0 || p.PartialPaymentFixed > 0
}

// FindRoom returns the package room with the given id, or nil.
func (p *Package) FindRoom(id uuid.UUID) *Room {
	for i := range p.Rooms {
		if p.Rooms[i].ID == id {
			return &p.Rooms[i]
		}
	}
	return nil
}

// FindAttraction returns the package attraction with the given id, or nil.
func (p *Package) FindAttraction(id uuid.UUID) *Attraction {
	for i := range p.Attractions {
		if p.Attractions[i].ID == id {
			return &p.Attractions[i]
		}
	}
	return nil
}

// FindAddOn returns the package add-on with the given id, or nil.
func (p *Package) FindAddOn(id uuid.UUID) *AddOn {
	for i := range p.AddOns {
		if p.AddOns[i].ID == id {
			return &p.AddOns[i]
		}
	}
	return nil
}

// FindPromo returns the redeemable promo matching the code, or nil. Inactive
// and expired promos never match.
func (p *Package) FindPromo(code string) *Promo {
	if code == "" {
		return nil
	}
	now := time.Now()
	for i := range p.Promos {
		pr := &p.Promos[i]
		if pr.Code == code && pr.Active && (pr.ExpiresAt == nil || pr.ExpiresAt.After(now)) {
			return pr
		}
	}
	return nil
}

// FindGiftCard returns the redeemable gift card matching the code, or nil.
func (p *Package) FindGiftCard(code string) *GiftCard {
	if code == "" {
		return nil
	}
	now := time.Now()
	for i := range p.GiftCards {
		gc := &p.GiftCards[i]
		if gc.Code == code && gc.Active && (gc.ExpiresAt == nil || gc.ExpiresAt.After(now)) {
			return gc
		}
	}
	return nil
}
