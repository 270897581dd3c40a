package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Monthly billing boundary
// =============================================================================

// Period is one billing month. All computation is scoped to a period: billable
// units, proration, and aggregation never cross a month boundary.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses "2006-01" style period strings.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (want YYYY-MM): %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// Start returns the first day of the period (UTC midnight).
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period (UTC midnight).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains reports whether the date falls within the period [Start, End].
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// CalendarDays returns the number of calendar days in the period.
func (p Period) CalendarDays() int {
	return p.End().Day()
}

// Weekdays returns the number of Monday-Friday days in the period. Used by
// working-day proration when no explicit working-day count is configured.
func (p Period) Weekdays() int {
	count := 0
	for d := p.Start(); !d.After(p.End()); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// WeekdaysThrough returns the number of weekdays in the period up to and
// including the given day of the month. The exit day counts as worked.
func (p Period) WeekdaysThrough(day int) int {
	count := 0
	for d := p.Start(); !d.After(p.End()) && d.Day() <= day; d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// Before reports whether p precedes other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// ParseDate parses the date layouts seen in allocation spreadsheets.
func ParseDate(s string) (time.Time, error) {
	layouts := []string{"2006-01-02", "01/02/2006", "2006/01/02", "02-Jan-2006", "2006-01-02T15:04:05Z07:00"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
