package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	ListForSlotKey(ctx context.Context, packageID uuid.UUID, roomID *uuid.UUID, date string) ([]Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, cancelledAt *time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create persists the booking with its items and payments in one
// transaction; gorm cascades the associations.
//
// The service validates slot availability with plain reads, so two concurrent
// requests for the same slot can both pass validation. The transaction takes
// an advisory lock on the slot key and re-checks overlap before inserting,
// which serializes creates per (package, room, date); the unique live-slot
// index backstops the exact-start-time case.
func (r *repository) Create(ctx context.Context, booking *Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockErr := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtextextended(?, 0))",
			slotLockKey(booking),
		).Error
		if lockErr != nil {
			return fmt.Errorf("failed to lock slot key: %w", lockErr)
		}

		existing, err := listForSlotKeyTx(tx, booking.PackageID, booking.RoomID, booking.Date)
		if err != nil {
			return err
		}
		for _, b := range existing {
			if spansOverlap(b.StartTime, b.EndTime, booking.StartTime, booking.EndTime) {
				return ErrSlotUnavailable
			}
		}

		return tx.Create(booking).Error
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) || isSlotUniqueViolation(err) {
			return fmt.Errorf("%w: taken by a concurrent booking", ErrSlotUnavailable)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func slotLockKey(b *Booking) string {
	room := "venue"
	if b.RoomID != nil {
		room = b.RoomID.String()
	}
	return fmt.Sprintf("bookings:%s:%s:%s", b.PackageID, room, b.Date)
}

// spansOverlap reports strict overlap between two "HH:MM" spans. The times
// are zero-padded so lexicographic order is time order; touching endpoints do
// not conflict.
func spansOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// isSlotUniqueViolation matches inserts rejected by the uniq_bookings_live_slot
// index regardless of whether the driver translated the error.
func isSlotUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "uniq_bookings_live_slot") || strings.Contains(msg, "SQLSTATE 23505")
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	return &booking, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("reference_number = ?", reference).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking %s: %w", reference, err)
	}
	return &booking, nil
}

// ListForSlotKey returns the non-cancelled bookings occupying slots for a
// (package, room, date) triple. This is the authoritative "booked" set the
// slot feed reconciles against; roomID nil means the package books
// venue-wide.
func (r *repository) ListForSlotKey(ctx context.Context, packageID uuid.UUID, roomID *uuid.UUID, date string) ([]Booking, error) {
	return listForSlotKeyTx(r.db.WithContext(ctx), packageID, roomID, date)
}

func listForSlotKeyTx(tx *gorm.DB, packageID uuid.UUID, roomID *uuid.UUID, date string) ([]Booking, error) {
	q := tx.Where("package_id = ? AND date = ? AND status <> ?", packageID, date, StatusCancelled)
	if roomID != nil {
		q = q.Where("room_id = ?", *roomID)
	} else {
		q = q.Where("room_id IS NULL")
	}

	var bookings []Booking
	if err := q.Order("start_time asc").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings for slot key: %w", err)
	}
	return bookings, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update booking %s status: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}
