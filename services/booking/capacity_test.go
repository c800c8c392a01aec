package booking

import (
	"testing"
	"time"

	"clinq/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoctor() *models.Doctor {
	return &models.Doctor{
		ID:       "doc-1",
		ClinicID: "clinic-1",
		Name:     "Dr Menon",
		WeeklyAvailability: map[string][]models.Session{
			"Sunday": {
				{From: "10:00 AM", To: "01:00 PM"},
				{From: "04:00 PM", To: "07:00 PM"},
			},
		},
		ConsultationMinutes: 15,
		ConsultationStatus:  models.ConsultationOut,
	}
}

// 2026-01-04 is a Sunday.
const testDate = "2026-01-04"

func TestSplitAdvance(t *testing.T) {
	cases := []struct {
		n, advance int
	}{
		{0, 0},
		{1, 0},  // a single slot always goes to walk-ins
		{10, 8}, // 8.5 rounds to the floor on a tie
		{12, 10},
		{20, 17},
		{24, 20},
	}
	for _, c := range cases {
		assert.Equal(t, c.advance, splitAdvance(c.n), "n=%d", c.n)
	}
}

func TestComputeSessionCapacityFullSession(t *testing.T) {
	loc := time.UTC
	ds, err := BuildDaySchedule(testDoctor(), testDate, loc)
	require.NoError(t, err)

	now := time.Date(2026, 1, 4, 8, 0, 0, 0, loc)
	sc := ComputeSessionCapacity(ds, 0, now)

	assert.Equal(t, 12, sc.FutureSlots)
	assert.Equal(t, 10, sc.AdvanceCapacity)
	assert.Equal(t, 2, sc.WalkInCapacity)
	// The reserved band is the tail of the session.
	assert.True(t, sc.Reserved(10))
	assert.True(t, sc.Reserved(11))
	assert.False(t, sc.Reserved(9))
}

func TestComputeSessionCapacityShrinksAsTimePasses(t *testing.T) {
	loc := time.UTC
	ds, err := BuildDaySchedule(testDoctor(), testDate, loc)
	require.NoError(t, err)

	// 11:00 AM: the first four slots have started.
	now := time.Date(2026, 1, 4, 11, 0, 0, 0, loc)
	sc := ComputeSessionCapacity(ds, 0, now)

	assert.Equal(t, 8, sc.FutureSlots)
	assert.Equal(t, 7, sc.AdvanceCapacity)
	assert.Equal(t, 1, sc.WalkInCapacity)
	assert.True(t, sc.Reserved(11))
	assert.False(t, sc.Reserved(10))
}

func TestComputeSessionCapacityPastSession(t *testing.T) {
	loc := time.UTC
	ds, err := BuildDaySchedule(testDoctor(), testDate, loc)
	require.NoError(t, err)

	now := time.Date(2026, 1, 4, 14, 0, 0, 0, loc)
	sc := ComputeSessionCapacity(ds, 0, now)
	assert.Zero(t, sc.FutureSlots)
	assert.Zero(t, sc.AdvanceCapacity)
	assert.Zero(t, sc.WalkInCapacity)
}

func TestDayAdvanceCapacity(t *testing.T) {
	loc := time.UTC
	ds, err := BuildDaySchedule(testDoctor(), testDate, loc)
	require.NoError(t, err)

	now := time.Date(2026, 1, 4, 8, 0, 0, 0, loc)
	assert.Equal(t, 20, DayAdvanceCapacity(ds, now))

	reserved := ReservedWalkInIndices(ds, now)
	assert.Len(t, reserved, 4)
	for _, idx := range []int{10, 11, 22, 23} {
		assert.True(t, reserved[idx], "index %d", idx)
	}
}
