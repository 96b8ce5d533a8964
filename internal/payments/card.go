package payments

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

var (
	ErrCardNumberInvalid = errors.New("card number is invalid")
	ErrCardExpiryMissing = errors.New("card expiry month and year are required")
	ErrCardExpired       = errors.New("card is expired")
	ErrCardCVVMissing    = errors.New("card cvv is required")
)

// CardDetails is the card input collected by the payment step. Never
// persisted; it only travels to the payment gateway.
type CardDetails struct {
	Number      string `json:"number"`
	HolderName  string `json:"holder_name"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// Validate runs the local pre-submission checks: Luhn on the number, expiry
// presence and not-in-the-past, cvv presence. Gateway declines are a separate
// concern; this only filters obviously bad input before any network call.
func (c CardDetails) Validate(now time.Time) error {
	if !luhnValid(c.Number) {
		return ErrCardNumberInvalid
	}
	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 || c.ExpiryYear == 0 {
		return ErrCardExpiryMissing
	}
	year := c.ExpiryYear
	if year < 100 {
		year += 2000
	}
	// a card is valid through the last day of its expiry month
	expiry := time.Date(year, time.Month(c.ExpiryMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(expiry) {
		return ErrCardExpired
	}
	if len(strings.TrimSpace(c.CVV)) < 3 {
		return ErrCardCVVMissing
	}
	return nil
}

// luhnValid runs the Luhn checksum over the card number, ignoring spaces and
// dashes. Numbers shorter than 12 digits are rejected outright.
func luhnValid(number string) bool {
	var digits []int
	for _, r := range number {
		switch {
		case unicode.IsDigit(r):
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
			// separators are fine
		default:
			return false
		}
	}
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
