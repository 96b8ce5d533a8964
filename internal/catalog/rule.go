package catalog

import (
	"fmt"
	"time"

	"zappoint/internal/availability"
	"zappoint/internal/slots"
)

// Rule converts the package's stored availability columns into the explicit
// tagged union the calculator evaluates.
func (p *Package) Rule() (availability.Rule, error) {
	switch p.AvailabilityType {
	case string(availability.KindDaily), string(availability.KindWeekly):
		weekdays := make([]time.Weekday, 0, len(p.AvailabilityDays))
		for _, name := range p.AvailabilityDays {
			wd, err := availability.ParseWeekday(name)
			if err != nil {
				return availability.Rule{}, fmt.Errorf("package %s: %w", p.ID, err)
			}
			weekdays = append(weekdays, wd)
		}
		// A daily package with no stored day list runs every day of the week.
		if p.AvailabilityType == string(availability.KindDaily) && len(weekdays) == 0 {
			weekdays = allWeekdays()
		}
		rule := availability.Rule{Kind: availability.Kind(p.AvailabilityType), Weekdays: weekdays}
		return rule, rule.Validate()

	case string(availability.KindMonthly):
		patterns := make([]availability.MonthlyPattern, 0, len(p.MonthlyPatterns))
		for _, spec := range p.MonthlyPatterns {
			pattern, err := spec.toPattern()
			if err != nil {
				return availability.Rule{}, fmt.Errorf("package %s: %w", p.ID, err)
			}
			patterns = append(patterns, pattern)
		}
		rule := availability.Rule{Kind: availability.KindMonthly, Patterns: patterns}
		return rule, rule.Validate()
	}
	return availability.Rule{}, fmt.Errorf("package %s: unknown availability type %q", p.ID, p.AvailabilityType)
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
}

func (spec MonthlyPatternSpec) toPattern() (availability.MonthlyPattern, error) {
	switch {
	case spec.Day > 0:
		return availability.MonthlyPattern{Kind: availability.PatternDayOfMonth, Day: spec.Day}, nil
	case spec.Weekday != "":
		wd, err := availability.ParseWeekday(spec.Weekday)
		if err != nil {
			return availability.MonthlyPattern{}, err
		}
		ord, err := availability.ParseOrdinal(spec.Ordinal)
		if err != nil {
			return availability.MonthlyPattern{}, err
		}
		return availability.MonthlyPattern{Kind: availability.PatternWeekdayOrdinal, Weekday: wd, Ordinal: ord}, nil
	case spec.LastDay:
		return availability.MonthlyPattern{Kind: availability.PatternLastDay}, nil
	}
	return availability.MonthlyPattern{}, fmt.Errorf("empty monthly pattern")
}

// Window converts the package's operating bounds into the slot generator's
// window shape.
func (p *Package) Window() (slots.Window, error) {
	start, err := slots.ParseClock(p.StartTime)
	if err != nil {
		return slots.Window{}, fmt.Errorf("package %s start time: %w", p.ID, err)
	}
	end, err := slots.ParseClock(p.EndTime)
	if err != nil {
		return slots.Window{}, fmt.Errorf("package %s end time: %w", p.ID, err)
	}
	return slots.Window{
		Start:           start,
		End:             end,
		DurationMinutes: p.DurationMinutes(),
		IntervalMinutes: p.SlotIntervalMinutes,
	}, nil
}
