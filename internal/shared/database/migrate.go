package database

import (
	"zappoint/internal/bookings"
	"zappoint/internal/catalog"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalog.Package{},
		&catalog.Attraction{},
		&catalog.AddOn{},
		&catalog.Room{},
		&catalog.Promo{},
		&catalog.GiftCard{},
		&bookings.Booking{},
		&bookings.BookingItem{},
		&bookings.Payment{},
	)
}
