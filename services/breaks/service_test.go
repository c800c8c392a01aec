package breaks

import (
	"testing"
	"time"

	"clinq/models"
	"clinq/services/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-04 is a Sunday.
const testDate = "2026-01-04"

func breakDoctor() *models.Doctor {
	return &models.Doctor{
		ID:       "doc-1",
		ClinicID: "clinic-1",
		Name:     "Dr Menon",
		WeeklyAvailability: map[string][]models.Session{
			"Sunday": {{From: "10:00 AM", To: "01:00 PM"}},
		},
		ConsultationMinutes: 15,
	}
}

func daySchedule(t *testing.T) *models.DaySchedule {
	t.Helper()
	ds, err := booking.BuildDaySchedule(breakDoctor(), testDate, time.UTC)
	require.NoError(t, err)
	return ds
}

func TestBuildBreakPeriod(t *testing.T) {
	ds := daySchedule(t)

	bp, err := buildBreakPeriod(ds, ds.Sessions[0], []int{3, 2}, 15)
	require.NoError(t, err)

	assert.NotEmpty(t, bp.ID)
	assert.Equal(t, 0, bp.SessionIndex)
	assert.Equal(t, "10:30 AM", bp.StartTime)
	assert.Equal(t, "11:00 AM", bp.EndTime)
	assert.Equal(t, 30, bp.DurationMinutes)
	require.Len(t, bp.SlotTimes, 2)
	assert.Equal(t, time.Date(2026, 1, 4, 10, 30, 0, 0, time.UTC).Format(time.RFC3339), bp.SlotTimes[0])
}

func TestBuildBreakPeriodValidation(t *testing.T) {
	ds := daySchedule(t)

	_, err := buildBreakPeriod(ds, ds.Sessions[0], nil, 15)
	require.Error(t, err)
	assert.Equal(t, booking.KindInvalidBreak, booking.KindOf(err))

	_, err = buildBreakPeriod(ds, ds.Sessions[0], []int{2, 4}, 15)
	require.Error(t, err, "slots must be contiguous")
	assert.Equal(t, booking.KindInvalidBreak, booking.KindOf(err))

	_, err = buildBreakPeriod(ds, ds.Sessions[0], []int{11, 12}, 15)
	require.Error(t, err, "slot 12 is past the session")
	assert.Equal(t, booking.KindInvalidBreak, booking.KindOf(err))
}

func TestOverlaps(t *testing.T) {
	a := models.BreakPeriod{SessionIndex: 0, StartTime: "10:30 AM", EndTime: "11:00 AM"}

	touching := &models.BreakPeriod{SessionIndex: 0, StartTime: "11:00 AM", EndTime: "11:15 AM"}
	assert.False(t, overlaps(a, touching, testDate, time.UTC), "back-to-back is not an overlap")

	inside := &models.BreakPeriod{SessionIndex: 0, StartTime: "10:45 AM", EndTime: "11:15 AM"}
	assert.True(t, overlaps(a, inside, testDate, time.UTC))

	otherSession := &models.BreakPeriod{SessionIndex: 1, StartTime: "10:45 AM", EndTime: "11:15 AM"}
	assert.False(t, overlaps(a, otherSession, testDate, time.UTC))
}

func TestMergeAdjacent(t *testing.T) {
	all := []models.BreakPeriod{
		{ID: "b2", SessionIndex: 0, StartTime: "11:00 AM", EndTime: "11:30 AM", DurationMinutes: 30},
		{ID: "b1", SessionIndex: 0, StartTime: "10:30 AM", EndTime: "11:00 AM", DurationMinutes: 30},
		{ID: "b3", SessionIndex: 0, StartTime: "12:00 PM", EndTime: "12:15 PM", DurationMinutes: 15},
	}

	merged := mergeAdjacent(all, testDate, time.UTC, 15)
	require.Len(t, merged, 2)

	assert.Equal(t, "10:30 AM", merged[0].StartTime)
	assert.Equal(t, "11:30 AM", merged[0].EndTime)
	assert.Equal(t, 60, merged[0].DurationMinutes)
	assert.Equal(t, "12:00 PM", merged[1].StartTime)
}

func TestExtensionFor(t *testing.T) {
	ds := daySchedule(t)

	ext := extensionFor(ds.Sessions[0], 2, 15)
	assert.Equal(t, "01:30 PM", ext.NewEndTime)

	// Zero displacement keeps the original end so a removal rolls it back.
	ext = extensionFor(ds.Sessions[0], 0, 15)
	assert.Equal(t, "01:00 PM", ext.NewEndTime)
}

func TestSessionDisplacedSlots(t *testing.T) {
	ds := daySchedule(t)
	bp, err := buildBreakPeriod(ds, ds.Sessions[0], []int{2, 3}, 15)
	require.NoError(t, err)

	appts := []models.Appointment{
		{ID: "a-1", PatientID: "p-1", BookedVia: models.BookedViaAdvance, Status: models.StatusPending, SlotIndex: 2, SessionIndex: 0},
		{ID: "a-2", PatientID: "p-2", BookedVia: models.BookedViaAdvance, Status: models.StatusCancelled, SlotIndex: 3, SessionIndex: 0},
		{ID: "a-3", PatientID: "p-3", BookedVia: models.BookedViaAdvance, Status: models.StatusConfirmed, SlotIndex: 5, SessionIndex: 0},
	}

	// Only slot 2 holds a live row under the break; the cancelled slot 3 and
	// the untouched slot 5 cost nothing.
	assert.Equal(t, 1, sessionDisplacedSlots([]models.BreakPeriod{*bp}, appts, 0, ds))
}

func TestApplyBreakOffsets(t *testing.T) {
	intervals := []models.BreakPeriod{
		{StartTime: "10:30 AM", EndTime: "11:00 AM"},
		{StartTime: "12:00 PM", EndTime: "12:30 PM"},
	}

	// A slot at 10:45 sits past the first break only.
	original := time.Date(2026, 1, 4, 10, 45, 0, 0, time.UTC)
	shifted := ApplyBreakOffsets(original, intervals, testDate, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 4, 11, 15, 0, 0, time.UTC), shifted)

	// A slot before every break does not move.
	early := time.Date(2026, 1, 4, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, early, ApplyBreakOffsets(early, intervals, testDate, time.UTC))
}
