package constants

import (
	"fmt"
	"time"
)

// Redis key registry for the booking engine.
// Pattern: zappoint:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	// Eligible-date sets only change when the package's rule changes, but
	// they are keyed by "today" so a short TTL keeps stale days from piling up.
	TTL_ELIGIBLE_DATES = 1 * time.Hour

	// Package details change on admin edits; edits invalidate explicitly,
	// the TTL is a backstop.
	TTL_PACKAGE_DETAIL = 2 * time.Hour

	// Receipt artifacts are kept long enough for post-visit lookups.
	TTL_RECEIPT = 72 * time.Hour
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "zappoint"
)

const (
	CACHE_KEY_PACKAGE_DETAIL = CACHE_PREFIX + ":packages:detail:uuid:" // + package-id
	CACHE_KEY_ELIGIBLE_DATES = CACHE_PREFIX + ":dates"                 // + :package:horizon:today
	CACHE_KEY_RECEIPT        = CACHE_PREFIX + ":receipt:"              // + booking-id
	CHANNEL_SLOT_FEED        = CACHE_PREFIX + ":slots"                 // + :package:room:date
)

// ================== KEY BUILDERS ==================

// BuildEligibleDatesKey keys a computed date set by package, horizon and the
// reference day it was computed on.
func BuildEligibleDatesKey(packageID string, horizonDays int, today string) string {
	return fmt.Sprintf("%s:%s:%d:%s", CACHE_KEY_ELIGIBLE_DATES, packageID, horizonDays, today)
}

// EligibleDatesPattern matches every cached date set for a package, for
// invalidation after a rule change.
func EligibleDatesPattern(packageID string) string {
	return fmt.Sprintf("%s:%s:*", CACHE_KEY_ELIGIBLE_DATES, packageID)
}

// BuildReceiptKey keys a stored receipt artifact by booking.
func BuildReceiptKey(bookingID string) string {
	return CACHE_KEY_RECEIPT + bookingID
}

// BuildSlotChannel names the pub/sub channel carrying slot invalidation
// markers for one (package, room, date) triple.
func BuildSlotChannel(packageID, roomID, date string) string {
	return fmt.Sprintf("%s:%s:%s:%s", CHANNEL_SLOT_FEED, packageID, roomID, date)
}
