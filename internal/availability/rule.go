package availability

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which recurrence variant a rule uses
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Ordinal positions a weekday within a month (1st..4th occurrence, or last week)
type Ordinal int

const (
	OrdinalFirst  Ordinal = 1
	OrdinalSecond Ordinal = 2
	OrdinalThird  Ordinal = 3
	OrdinalFourth Ordinal = 4
	OrdinalLast   Ordinal = -1
)

// PatternKind identifies which monthly pattern variant is in use
type PatternKind string

const (
	PatternDayOfMonth     PatternKind = "day_of_month"
	PatternWeekdayOrdinal PatternKind = "weekday_ordinal"
	PatternLastDay        PatternKind = "last_day"
)

// MonthlyPattern is one alternative within a monthly rule. Exactly one
// variant is active, selected by Kind:
//   - PatternDayOfMonth: Day (1-31)
//   - PatternWeekdayOrdinal: Weekday + Ordinal
//   - PatternLastDay: the month's final calendar day
type MonthlyPattern struct {
	Kind    PatternKind
	Day     int
	Weekday time.Weekday
	Ordinal Ordinal
}

// Rule is the recurrence policy attached to a package. It is a tagged union:
// Daily and Weekly rules carry a weekday set (they recur identically, the
// distinction is kept for source-rule provenance), Monthly rules carry a
// set of patterns matched with OR semantics.
type Rule struct {
	Kind     Kind
	Weekdays []time.Weekday
	Patterns []MonthlyPattern
}

// Validate checks that exactly one variant of the union is populated.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindDaily, KindWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%s rule requires at least one weekday", r.Kind)
		}
		if len(r.Patterns) > 0 {
			return fmt.Errorf("%s rule must not carry monthly patterns", r.Kind)
		}
	case KindMonthly:
		if len(r.Patterns) == 0 {
			return fmt.Errorf("monthly rule requires at least one pattern")
		}
		if len(r.Weekdays) > 0 {
			return fmt.Errorf("monthly rule must not carry weekdays")
		}
		for i, p := range r.Patterns {
			if err := p.validate(); err != nil {
				return fmt.Errorf("pattern %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

func (p MonthlyPattern) validate() error {
	switch p.Kind {
	case PatternDayOfMonth:
		if p.Day < 1 || p.Day > 31 {
			return fmt.Errorf("day of month %d out of range", p.Day)
		}
	case PatternWeekdayOrdinal:
		if p.Ordinal != OrdinalLast && (p.Ordinal < OrdinalFirst || p.Ordinal > OrdinalFourth) {
			return fmt.Errorf("ordinal %d out of range", p.Ordinal)
		}
	case PatternLastDay:
		// no fields
	default:
		return fmt.Errorf("unknown pattern kind %q", p.Kind)
	}
	return nil
}

// ParseWeekday converts a lowercase weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

// ParseOrdinal converts an ordinal label ("1st".."4th", "last") to Ordinal.
func ParseOrdinal(label string) (Ordinal, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "1st", "first", "1":
		return OrdinalFirst, nil
	case "2nd", "second", "2":
		return OrdinalSecond, nil
	case "3rd", "third", "3":
		return OrdinalThird, nil
	case "4th", "fourth", "4":
		return OrdinalFourth, nil
	case "last":
		return OrdinalLast, nil
	}
	return 0, fmt.Errorf("unknown ordinal %q", label)
}
