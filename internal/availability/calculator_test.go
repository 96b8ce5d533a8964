package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{
			name: "valid daily",
			rule: Rule{Kind: KindDaily, Weekdays: []time.Weekday{time.Monday}},
		},
		{
			name:    "daily without weekdays",
			rule:    Rule{Kind: KindDaily},
			wantErr: true,
		},
		{
			name: "daily carrying monthly patterns",
			rule: Rule{
				Kind:     KindDaily,
				Weekdays: []time.Weekday{time.Monday},
				Patterns: []MonthlyPattern{{Kind: PatternLastDay}},
			},
			wantErr: true,
		},
		{
			name: "valid monthly",
			rule: Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
				{Kind: PatternDayOfMonth, Day: 15},
			}},
		},
		{
			name:    "monthly without patterns",
			rule:    Rule{Kind: KindMonthly},
			wantErr: true,
		},
		{
			name: "monthly with out-of-range day",
			rule: Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
				{Kind: PatternDayOfMonth, Day: 32},
			}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			rule:    Rule{Kind: "biweekly"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEligibleDatesWeekly(t *testing.T) {
	rule := Rule{Kind: KindWeekly, Weekdays: []time.Weekday{time.Saturday, time.Sunday}}

	// 2026-03-02 is a Monday
	got := EligibleDates(rule, 13, date(2026, time.March, 2))

	want := []time.Time{
		date(2026, time.March, 7),
		date(2026, time.March, 8),
		date(2026, time.March, 14),
		date(2026, time.March, 15),
	}
	assert.Equal(t, want, got)
}

func TestEligibleDatesSortedAndDuplicateFree(t *testing.T) {
	// overlapping patterns that both match the 15th must still yield it once
	rule := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternDayOfMonth, Day: 15},
		{Kind: PatternDayOfMonth, Day: 15},
	}}

	got := EligibleDates(rule, 60, date(2026, time.January, 1))
	require.NotEmpty(t, got)

	seen := map[time.Time]bool{}
	for i, d := range got {
		assert.False(t, seen[d], "duplicate date %v", d)
		seen[d] = true
		if i > 0 {
			assert.True(t, got[i-1].Before(d), "dates out of order at %d", i)
		}
	}
}

func TestEligibleDatesEmptyIsValid(t *testing.T) {
	// a day of month beyond the horizon window yields no dates, not an error
	rule := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternDayOfMonth, Day: 31},
	}}

	// April has 30 days; a 20-day horizon from April 1 never reaches a 31st
	got := EligibleDates(rule, 20, date(2026, time.April, 1))
	assert.Empty(t, got)
}

func TestMonthlyLastWeekday(t *testing.T) {
	// March 2026 starts on a Sunday; Sundays fall on 1, 8, 15, 22, 29.
	// The 29th is within the last 7 days of a 31-day month, the 22nd is not.
	rule := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternWeekdayOrdinal, Weekday: time.Sunday, Ordinal: OrdinalLast},
	}}

	assert.True(t, rule.Matches(date(2026, time.March, 29)))
	assert.False(t, rule.Matches(date(2026, time.March, 22)))
	assert.False(t, rule.Matches(date(2026, time.March, 28)), "last week but not a Sunday")
}

func TestMonthlyWeekOfMonthFormula(t *testing.T) {
	// September 2025 starts on a Monday (offset 1). The first Sunday is the
	// 7th: ceil((7+1)/7) = 2, so the offset-based numbering calls it week 2.
	firstSunday := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternWeekdayOrdinal, Weekday: time.Sunday, Ordinal: OrdinalFirst},
	}}
	secondSunday := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternWeekdayOrdinal, Weekday: time.Sunday, Ordinal: OrdinalSecond},
	}}

	assert.False(t, firstSunday.Matches(date(2025, time.September, 7)))
	assert.True(t, secondSunday.Matches(date(2025, time.September, 7)))

	// The first Saturday (the 6th) still lands in week 1: ceil((6+1)/7) = 1.
	firstSaturday := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternWeekdayOrdinal, Weekday: time.Saturday, Ordinal: OrdinalFirst},
	}}
	assert.True(t, firstSaturday.Matches(date(2025, time.September, 6)))
}

func TestMonthlyLastDay(t *testing.T) {
	rule := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternLastDay},
	}}

	assert.True(t, rule.Matches(date(2026, time.April, 30)))
	assert.False(t, rule.Matches(date(2026, time.April, 29)))
	// leap February
	assert.True(t, rule.Matches(date(2028, time.February, 29)))
	assert.False(t, rule.Matches(date(2028, time.February, 28)))
}

func TestMonthlyPatternsAreORed(t *testing.T) {
	rule := Rule{Kind: KindMonthly, Patterns: []MonthlyPattern{
		{Kind: PatternDayOfMonth, Day: 10},
		{Kind: PatternWeekdayOrdinal, Weekday: time.Friday, Ordinal: OrdinalFirst},
	}}

	// 2026-05-10 is a Sunday: matched by the exact-day pattern only
	assert.True(t, rule.Matches(date(2026, time.May, 10)))
	// 2026-05-01 is the first Friday
	assert.True(t, rule.Matches(date(2026, time.May, 1)))
	assert.False(t, rule.Matches(date(2026, time.May, 2)))
}

func TestParseWeekday(t *testing.T) {
	wd, err := ParseWeekday("Wednesday")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, wd)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestParseOrdinal(t *testing.T) {
	ord, err := ParseOrdinal("3rd")
	require.NoError(t, err)
	assert.Equal(t, OrdinalThird, ord)

	ord, err = ParseOrdinal("last")
	require.NoError(t, err)
	assert.Equal(t, OrdinalLast, ord)

	_, err = ParseOrdinal("5th")
	assert.Error(t, err)
}
