// internal/app/system/dateutil/dateutil.go
package dateutil

import (
	"fmt"
	"regexp"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
)

// ISO is the date layout used everywhere dates cross a boundary.
const ISO = "2006-01-02"

var isoDateRE = regexp.MustCompile(`^(19|20)\d\d-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)

// Date builds a UTC date at midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to a UTC date at midnight.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO yyyy-mm-dd string.
func ParseDate(s string) (time.Time, error) {
	if !isoDateRE.MatchString(s) {
		return time.Time{}, fmt.Errorf("not a valid ISO date: %q", s)
	}
	return time.ParseInLocation(ISO, s, time.UTC)
}

// FormatDate renders t as ISO yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(ISO)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// AddMonths adds n calendar months preserving the day of month, clamping to
// the last day when the target month is shorter (2024-01-31 + 1 month is
// 2024-02-29).
func AddMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	month := time.Month(total%12 + 1)
	if total < 0 && total%12 != 0 {
		year--
		month = time.Month(total%12 + 13)
	}
	day := t.Day()
	if max := DaysIn(year, month); day > max {
		day = max
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddPeriod advances t by the calendar period p. Negative quantities move
// backward.
func AddPeriod(t time.Time, p models.Period) time.Time {
	switch p.Unit {
	case models.UnitDays:
		return t.AddDate(0, 0, p.Qty)
	case models.UnitWeeks:
		return t.AddDate(0, 0, 7*p.Qty)
	case models.UnitMonths:
		return AddMonths(t, p.Qty)
	case models.UnitYears:
		return AddMonths(t, 12*p.Qty)
	default:
		// unknown unit is a configuration error; treat as days so the
		// evaluator stays total
		return t.AddDate(0, 0, p.Qty)
	}
}

// SubPeriod moves t backward by p.
func SubPeriod(t time.Time, p models.Period) time.Time {
	return AddPeriod(t, models.Period{Qty: -p.Qty, Unit: p.Unit})
}

// MonthDay parses a "MM-DD" day-of-year string.
func MonthDay(s string) (time.Month, int, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%2d-%2d", &m, &d); err != nil {
		return 0, 0, fmt.Errorf("not a valid MM-DD: %q", s)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, fmt.Errorf("not a valid MM-DD: %q", s)
	}
	return time.Month(m), d, nil
}

// MMDD renders t's month and day as "MM-DD".
func MMDD(t time.Time) string {
	return t.Format("01-02")
}
