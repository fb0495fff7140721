// Package calendar provides a civil-day value type used for ledger keys.
//
// A Date carries no clock time and no zone: it is a day in the single
// process-local calendar. The canonical text form is YYYY-MM-DD, which also
// sorts lexicographically in the same order as the dates themselves.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical text form of a Date.
const Layout = "2006-01-02"

// Date is a calendar day. The zero value is not a valid date; use IsZero.
type Date struct {
	n   int64 // days since 1970-01-01
	set bool
}

// New returns the date for the given year, month and day.
// Out-of-range values are normalized the same way time.Date does.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{n: t.Unix() / 86400, set: true}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return FromTime(t), nil
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return !d.set }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return time.Unix(d.n*86400, 0).UTC() }

func (d Date) String() string {
	if !d.set {
		return ""
	}
	return d.Time().Format(Layout)
}

// AddDays returns d shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date { return Date{n: d.n + int64(n), set: true} }

func (d Date) Next() Date { return d.AddDays(1) }
func (d Date) Prev() Date { return d.AddDays(-1) }

func (d Date) Before(o Date) bool { return d.n < o.n }
func (d Date) After(o Date) bool  { return d.n > o.n }
func (d Date) Equal(o Date) bool  { return d.n == o.n && d.set == o.set }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int { return int(o.n - d.n) }

// Clock yields the current time. Tests replace it with a fixed value.
type Clock func() time.Time

// Today returns the current local calendar day according to c.
// A nil clock uses time.Now.
func (c Clock) Today() Date {
	if c == nil {
		return FromTime(time.Now())
	}
	return FromTime(c())
}

// Fixed returns a clock that always reports t.
func Fixed(t time.Time) Clock { return func() time.Time { return t } }
