package dates

import (
	"fmt"
	"time"
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Index numbers months consecutively so that differences between two
// periods count whole months.
func (p Period) Index() int { return p.Year*12 + int(p.Month) - 1 }

// MonthsSince returns how many months p lies after o. It is negative when
// p is earlier.
func (p Period) MonthsSince(o Period) int { return p.Index() - o.Index() }

// Prev returns the month before p.
func (p Period) Prev() Period { return p.add(-1) }

// Next returns the month after p.
func (p Period) Next() Period { return p.add(1) }

func (p Period) add(n int) Period {
	idx := p.Index() + n
	return Period{Year: floorDiv(idx, 12), Month: time.Month(idx-floorDiv(idx, 12)*12) + 1}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Contains reports whether d falls inside p.
func (p Period) Contains(d Date) bool {
	return d.Year == p.Year && d.Month == p.Month
}

// Days returns the length of p in days.
func (p Period) Days() int { return DaysIn(p.Year, p.Month) }

// DaysLeft counts the days of p remaining after today, or zero once p is over.
func (p Period) DaysLeft(today Date) int {
	if !p.Contains(today) {
		if today.Before(Date{Year: p.Year, Month: p.Month, Day: 1}) {
			return p.Days()
		}
		return 0
	}
	return p.Days() - today.Day
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
