// File: utils/clock.go
package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Layouts used everywhere a date or time is rendered or stored. Records keep
// human-readable strings, so every component must agree on these exactly.
const (
	LayoutISODate = "2006-01-02"
	LayoutDate    = "2 January 2006" // e.g. "4 January 2026"
	LayoutTime    = "03:04 PM"       // leading zero, e.g. "02:30 PM"
	LayoutTime24  = "15:04"
)

// Clock supplies clinic-local wall time. All scheduling decisions flow
// through it so tests can pin "now".
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type clinicClock struct {
	loc *time.Location
}

// NewClock loads the clinic's IANA zone (e.g. "Asia/Kolkata").
func NewClock(tz string) (Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load clinic timezone %q: %w", tz, err)
	}
	return &clinicClock{loc: loc}, nil
}

func (c *clinicClock) Now() time.Time            { return time.Now().In(c.loc) }
func (c *clinicClock) Location() *time.Location  { return c.loc }

// fixedClock serves tests: Now never advances unless Set is called.
type fixedClock struct {
	now time.Time
}

// NewFixedClock returns a Clock pinned at t.
func NewFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (f *fixedClock) Now() time.Time           { return f.now }
func (f *fixedClock) Location() *time.Location { return f.now.Location() }
func (f *fixedClock) Set(t time.Time)          { f.now = t }

// FormatDate renders "d MMMM yyyy", e.g. "4 January 2026".
func FormatDate(t time.Time) string { return t.Format(LayoutDate) }

// FormatTime renders "hh:mm AM/PM" with a leading zero, e.g. "02:30 PM".
func FormatTime(t time.Time) string { return t.Format(LayoutTime) }

// FormatISODate renders "yyyy-MM-dd".
func FormatISODate(t time.Time) string { return t.Format(LayoutISODate) }

// WeekdayName renders the weekday used as the weeklyAvailability key.
func WeekdayName(t time.Time) string { return t.Weekday().String() }

// ParseISODate parses "2026-01-04" at midnight in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(LayoutISODate, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseDateString parses the display form "4 January 2026" in loc, falling
// back to the ISO form.
func ParseDateString(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(LayoutDate, s, loc); err == nil {
		return t, nil
	}
	return ParseISODate(s, loc)
}

// ParseClockString parses "02:30 PM" or "14:30" into hour and minute.
func ParseClockString(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if t, perr := time.Parse(LayoutTime, strings.ToUpper(s)); perr == nil {
		return t.Hour(), t.Minute(), nil
	}
	if t, perr := time.Parse(LayoutTime24, s); perr == nil {
		return t.Hour(), t.Minute(), nil
	}
	return 0, 0, fmt.Errorf("parse time %q: expected %q or %q", s, LayoutTime, LayoutTime24)
}

// TimeOnDate anchors a clock string onto an ISO date in loc,
// e.g. ("2026-01-04", "10:00 AM") -> 2026-01-04T10:00+05:30.
func TimeOnDate(dateISO, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseISODate(dateISO, loc)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseClockString(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), nil
}

// MinutesBetween returns whole minutes from a to b (negative when b < a).
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

// CeilMinutes rounds a duration up to whole minutes, never below zero.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
