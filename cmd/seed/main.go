package main

import (
	"fmt"
	"log"
	"time"

	"zappoint/internal/catalog"
	"zappoint/internal/shared/config"
	"zappoint/internal/shared/database"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Zappoint Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payments",
		"booking_items",
		"bookings",
		"gift_cards",
		"promos",
		"rooms",
		"add_ons",
		"attractions",
		"packages",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, table := range tables {
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clean table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

func (s *Seeder) SeedAll() error {
	for _, pkg := range demoPackages() {
		if err := s.db.PostgreSQL.Create(pkg).Error; err != nil {
			return fmt.Errorf("failed to seed package %q: %w", pkg.Name, err)
		}
		fmt.Printf("  📦 %s ($%.2f, %s)\n", pkg.Name, pkg.Price, pkg.AvailabilityType)
	}
	return nil
}

// demoPackages covers every availability variant and pricing feature so the
// whole booking flow can be exercised against seeded data.
func demoPackages() []*catalog.Package {
	promoExpiry := time.Now().AddDate(0, 6, 0)

	laserTag := &catalog.Package{
		Name:                     "Laser Tag Party",
		Description:              "Two arena sessions plus a private party room.",
		Price:                    299.99,
		MaxParticipants:          10,
		PricePerAdditional:       15,
		DurationValue:            2,
		DurationUnit:             catalog.DurationHours,
		StartTime:                "10:00",
		EndTime:                  "22:00",
		SlotIntervalMinutes:      30,
		AvailabilityType:         "daily",
		PartialPaymentPercentage: 50,
		OnlineProcessingEnabled:  true,
		Active:                   true,
		Attractions: []catalog.Attraction{
			{Name: "Laser Maze", Price: 5.50, PricingType: catalog.PricingPerPerson, Active: true},
			{Name: "Arcade Card", Price: 12, PricingType: catalog.PricingPerUnit, Active: true},
			{Name: "VR Experience", Price: 9, PricingType: catalog.PricingPerPerson, Active: true},
		},
		AddOns: []catalog.AddOn{
			{Name: "Pizza Tray", Price: 18.50, Active: true},
			{Name: "Party Favors", Price: 24, Active: true},
			{Name: "Soda Pitcher", Price: 7, Active: true},
		},
		Rooms: []catalog.Room{
			{Name: "Party Room A", Capacity: 16, Active: true},
			{Name: "Party Room B", Capacity: 24, Active: true},
		},
		Promos: []catalog.Promo{
			{Code: "WELCOME10", DiscountType: catalog.DiscountPercentage, Value: 10, Active: true, ExpiresAt: &promoExpiry},
			{Code: "TWENTYOFF", DiscountType: catalog.DiscountFixed, Value: 20, Active: true},
		},
		GiftCards: []catalog.GiftCard{
			{Code: "GIFT-ABCD-1234", DiscountType: catalog.DiscountFixed, Value: 50, Active: true},
		},
	}

	bowling := &catalog.Package{
		Name:                "Weekend Bowling Bash",
		Description:         "Ninety minutes of bowling, weekends only.",
		Price:               149.99,
		MaxParticipants:     6,
		PricePerAdditional:  12,
		DurationValue:       90,
		DurationUnit:        catalog.DurationMinutes,
		StartTime:           "12:00",
		EndTime:             "23:00",
		SlotIntervalMinutes: 60,
		AvailabilityType:    "weekly",
		AvailabilityDays:    []string{"friday", "saturday", "sunday"},
		PartialPaymentFixed: 40,
		Active:              true,
		Rooms: []catalog.Room{
			{Name: "Lane 1-2", Capacity: 12, Active: true},
			{Name: "Lane 3-4", Capacity: 12, Active: true},
		},
		AddOns: []catalog.AddOn{
			{Name: "Shoe Rental Bundle", Price: 15, Active: true},
		},
	}

	vipNight := &catalog.Package{
		Name:                "VIP Game Night",
		Description:         "After-hours venue access on select monthly dates.",
		Price:               499,
		MaxParticipants:     20,
		DurationValue:       3,
		DurationUnit:        catalog.DurationHours,
		StartTime:           "18:00",
		EndTime:             "23:00",
		SlotIntervalMinutes: 60,
		AvailabilityType:    "monthly",
		MonthlyPatterns: []catalog.MonthlyPatternSpec{
			{Weekday: "friday", Ordinal: "last"},
			{Day: 15},
			{LastDay: true},
		},
		OnlineProcessingEnabled: true,
		Active:                  true,
		Attractions: []catalog.Attraction{
			{Name: "Open Arcade", Price: 25, PricingType: catalog.PricingPerUnit, Active: true},
		},
	}

	return []*catalog.Package{laserTag, bowling, vipNight}
}
