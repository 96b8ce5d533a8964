package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the critical constraints for booking concurrency
// control, plus the indexes the slot queries depend on. AutoMigrate covers
// columns and basic indexes only.
func MigrateConstraints(db *gorm.DB) error {
	// At most one live booking per exact slot. The create path checks
	// availability with plain reads, so two concurrent requests can both see
	// the slot free; this index makes the second insert fail. room_id is NULL
	// for venue-wide packages and unique indexes treat NULLs as distinct,
	// hence the sentinel coalesce.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_bookings_live_slot
		ON bookings (package_id, COALESCE(room_id, '00000000-0000-0000-0000-000000000000'::uuid), date, start_time)
		WHERE status <> 'CANCELLED';
	`).Error
	if err != nil {
		return err
	}

	// slot-key lookups: (package, date) filtered by room and status
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_slot_key
		ON bookings (package_id, date, room_id)
		WHERE status <> 'CANCELLED';
	`).Error
	if err != nil {
		return err
	}

	// reference lookups from confirmation emails
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_reference
		ON bookings (reference_number);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
