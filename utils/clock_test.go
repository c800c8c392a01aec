package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatting(t *testing.T) {
	at := time.Date(2026, 1, 4, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "4 January 2026", FormatDate(at))
	assert.Equal(t, "02:30 PM", FormatTime(at))
	assert.Equal(t, "2026-01-04", FormatISODate(at))
	assert.Equal(t, "Sunday", WeekdayName(at))
}

func TestParseClockString(t *testing.T) {
	h, m, err := ParseClockString("02:30 PM")
	require.NoError(t, err)
	assert.Equal(t, 14, h)
	assert.Equal(t, 30, m)

	h, m, err = ParseClockString("09:05 am")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	h, m, err = ParseClockString("14:30")
	require.NoError(t, err)
	assert.Equal(t, 14, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClockString("half past two")
	assert.Error(t, err)
}

func TestTimeOnDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	at, err := TimeOnDate("2026-01-04", "10:00 AM", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 4, 10, 0, 0, 0, loc), at)

	_, err = TimeOnDate("04-01-2026", "10:00 AM", loc)
	assert.Error(t, err)
}

func TestParseDateString(t *testing.T) {
	loc := time.UTC
	display, err := ParseDateString("4 January 2026", loc)
	require.NoError(t, err)
	iso, err := ParseDateString("2026-01-04", loc)
	require.NoError(t, err)
	assert.True(t, display.Equal(iso))
}

func TestMinutesBetweenAndCeil(t *testing.T) {
	a := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 45, MinutesBetween(a, a.Add(45*time.Minute)))
	assert.Equal(t, -15, MinutesBetween(a, a.Add(-15*time.Minute)))

	assert.Equal(t, 0, CeilMinutes(-time.Minute))
	assert.Equal(t, 1, CeilMinutes(30*time.Second))
	assert.Equal(t, 15, CeilMinutes(15*time.Minute))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	fc := NewFixedClock(at)
	assert.Equal(t, at, fc.Now())
	fc.Set(at.Add(time.Hour))
	assert.Equal(t, at.Add(time.Hour), fc.Now())
}
