package availability

import (
	"time"
)

// DefaultHorizonDays is how far forward eligible dates are generated when the
// caller does not override the horizon.
const DefaultHorizonDays = 90

// EligibleDates walks reference..reference+horizonDays (inclusive) and returns
// every calendar date the rule accepts, ascending and duplicate-free. An empty
// result is a valid answer (the package simply has no bookable dates in the
// horizon) and is never reported as an error.
func EligibleDates(rule Rule, horizonDays int, reference time.Time) []time.Time {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	day := truncateToDay(reference)
	dates := make([]time.Time, 0, horizonDays/2)
	for i := 0; i <= horizonDays; i++ {
		if rule.Matches(day) {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

// Matches reports whether the rule accepts the given calendar date.
func (r Rule) Matches(date time.Time) bool {
	switch r.Kind {
	case KindDaily, KindWeekly:
		for _, wd := range r.Weekdays {
			if date.Weekday() == wd {
				return true
			}
		}
		return false
	case KindMonthly:
		for _, p := range r.Patterns {
			if p.matches(date) {
				return true
			}
		}
		return false
	}
	return false
}

// matches evaluates a single monthly pattern. Match order within a pattern is
// exact day -> weekday+ordinal -> last-day literal, first match wins.
//
// Week numbering deliberately uses ceil((dayOfMonth + firstWeekdayOffset)/7)
// rather than a calendar-week definition: when the month starts mid-week this
// can classify early days as "week 1" even though they share a calendar week
// with the previous month. Callers depend on that numbering, do not replace
// it with ISO weeks.
func (p MonthlyPattern) matches(date time.Time) bool {
	day := date.Day()

	switch p.Kind {
	case PatternDayOfMonth:
		return p.Day == day

	case PatternWeekdayOrdinal:
		if date.Weekday() != p.Weekday {
			return false
		}
		if p.Ordinal == OrdinalLast {
			return daysRemainingInMonth(date) < 7
		}
		firstOffset := int(firstOfMonth(date).Weekday())
		weekOfMonth := (day + firstOffset + 6) / 7 // ceil((day+offset)/7)
		return weekOfMonth == int(p.Ordinal)

	case PatternLastDay:
		return day == lastDayOfMonth(date)
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(t time.Time) int {
	// day 0 of the next month is the last day of this one
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func daysRemainingInMonth(t time.Time) int {
	return lastDayOfMonth(t) - t.Day()
}
