// Package dates turns the loosely formatted date strings stored on
// transactions into comparable calendar dates.
//
// Stored dates are never rewritten. Every reader normalizes on the fly,
// choosing what an unreadable value should become through a Policy.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Literal markers written by the entry form instead of a calendar date.
const (
	Today     = "Hoy"
	Yesterday = "Ayer"
)

// Date is a calendar day with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Epoch is the date unreadable values fall back to under FallbackEpoch.
// It sorts after everything else in newest-first listings.
var Epoch = Date{Year: 1970, Month: time.January, Day: 1}

// Of returns the calendar day of t in t's location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns local midnight of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// Compare returns -1, 0 or 1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Period returns the calendar month containing d.
func (d Date) Period() Period { return Period{Year: d.Year, Month: d.Month} }

// ISO formats d as YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) String() string { return d.ISO() }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Policy selects the result of Normalize for a value Parse cannot read.
type Policy int

const (
	// FallbackEpoch maps unreadable dates to Epoch, so they drop out of
	// period filters and sort last.
	FallbackEpoch Policy = iota
	// FallbackToday maps unreadable dates to the current day.
	FallbackToday
)

// ParsePolicy accepts "epoch" or "today". The empty string is FallbackEpoch.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "epoch":
		return FallbackEpoch, nil
	case "today":
		return FallbackToday, nil
	}
	return FallbackEpoch, fmt.Errorf("unknown date fallback %q", s)
}

func (p Policy) String() string {
	if p == FallbackToday {
		return "today"
	}
	return "epoch"
}

// IsToday reports whether raw is the literal "today" marker.
func IsToday(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), Today)
}

// IsYesterday reports whether raw is the literal "yesterday" marker.
func IsYesterday(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), Yesterday)
}

// IsRelative reports whether raw is one of the relative markers.
func IsRelative(raw string) bool { return IsToday(raw) || IsYesterday(raw) }

// Parse reads raw relative to now. Accepted forms, in order:
//
//	Hoy, Ayer                      today, yesterday (case-insensitive)
//	YYYY/MM/DD, YYYY-MM-DD         year first
//	D/M/YYYY, D/M/YY, D-M-YYYY     day first, two-digit years are 20YY
//	D/M                            day first, current year
//	YYYY-MM-DDTHH:mm:ss...         date portion of an ISO datetime
//
// Calendar-impossible dates such as 31/02/2024 are rejected.
func Parse(raw string, now time.Time) (Date, bool) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return Date{}, false
	case IsToday(s):
		return Of(now), true
	case IsYesterday(s):
		return Of(now.AddDate(0, 0, -1)), true
	}

	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}

	parts := strings.Split(strings.ReplaceAll(s, "-", "/"), "/")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, ok := digits(p)
		if !ok {
			return Date{}, false
		}
		nums[i] = n
	}

	var d Date
	switch {
	case len(parts) == 3 && len(parts[0]) == 4:
		d = Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	case len(parts) == 3:
		year := nums[2]
		switch len(parts[2]) {
		case 2:
			year += 2000
		case 4:
		default:
			return Date{}, false
		}
		d = Date{Year: year, Month: time.Month(nums[1]), Day: nums[0]}
	case len(parts) == 2 && len(parts[0]) <= 2:
		d = Date{Year: now.Year(), Month: time.Month(nums[1]), Day: nums[0]}
	default:
		return Date{}, false
	}

	if !valid(d) {
		return Date{}, false
	}
	return d, true
}

// Normalize is Parse with the policy's fallback applied.
func Normalize(raw string, now time.Time, policy Policy) Date {
	if d, ok := Parse(raw, now); ok {
		return d
	}
	if policy == FallbackToday {
		return Of(now)
	}
	return Epoch
}

func digits(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func valid(d Date) bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= DaysIn(d.Year, d.Month)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
