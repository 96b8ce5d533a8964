package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no booking matches the lookup.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPackageUnavailable covers inactive or missing packages.
	ErrPackageUnavailable = errors.New("package is not available for booking")

	// ErrRoomRequired is returned when the package defines rooms but the
	// request selects none.
	ErrRoomRequired = errors.New("room selection is required for this package")

	// ErrRoomUnknown is returned when the selected room does not belong to
	// the package.
	ErrRoomUnknown = errors.New("selected room does not belong to this package")

	// ErrDateNotBookable is returned when the date fails the package's
	// availability rule or falls outside the booking horizon.
	ErrDateNotBookable = errors.New("date is not bookable for this package")

	// ErrSlotUnavailable is returned when the requested time is not a
	// currently bookable slot (not a candidate, or taken by another booking).
	ErrSlotUnavailable = errors.New("time slot is not available")

	// ErrPaymentFailed wraps gateway declines and card validation failures;
	// nothing is persisted and the caller may retry with corrected details.
	ErrPaymentFailed = errors.New("payment failed")
)
