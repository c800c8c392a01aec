package queue

import (
	"testing"
	"time"

	"clinq/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-04 is a Sunday.
const testDate = "2026-01-04"

func delayDoctor(step int, status string) *models.Doctor {
	return &models.Doctor{
		ID:       "doc-1",
		ClinicID: "clinic-1",
		Name:     "Dr Menon",
		WeeklyAvailability: map[string][]models.Session{
			"Sunday": {{From: "10:00 AM", To: "01:00 PM"}},
		},
		ConsultationMinutes: step,
		ConsultationStatus:  status,
	}
}

func TestComputeDelayWithBreaks(t *testing.T) {
	loc := time.UTC
	doc := delayDoctor(5, models.ConsultationIn)
	doc.BreakPeriods = map[string][]models.BreakPeriod{
		testDate: {{
			ID:              "b1",
			SessionIndex:    0,
			StartTime:       "10:20 AM",
			EndTime:         "10:35 AM",
			DurationMinutes: 15,
		}},
	}

	// 45 minutes in, 4 patients done at 5 minutes each, 15-minute break
	// already taken: 45 - 20 - 15 = 10.
	now := time.Date(2026, 1, 4, 10, 45, 0, 0, loc)
	delay, err := ComputeDelay(doc, testDate, 0, 4, now, loc)
	require.NoError(t, err)
	assert.Equal(t, 10, delay)
}

func TestComputeDelayDoctorOut(t *testing.T) {
	loc := time.UTC
	doc := delayDoctor(15, models.ConsultationOut)

	// While the doctor is out the whole elapsed time counts.
	now := time.Date(2026, 1, 4, 10, 20, 0, 0, loc)
	delay, err := ComputeDelay(doc, testDate, 0, 0, now, loc)
	require.NoError(t, err)
	assert.Equal(t, 20, delay)
}

func TestComputeDelayInitialBreakMovesStart(t *testing.T) {
	loc := time.UTC
	doc := delayDoctor(15, models.ConsultationIn)
	doc.BreakPeriods = map[string][]models.BreakPeriod{
		testDate: {{
			ID:              "b1",
			SessionIndex:    0,
			StartTime:       "10:00 AM",
			EndTime:         "10:30 AM",
			DurationMinutes: 30,
		}},
	}

	// The session effectively starts at 10:30; before that there is no delay.
	delay, err := ComputeDelay(doc, testDate, 0, 0, time.Date(2026, 1, 4, 10, 15, 0, 0, loc), loc)
	require.NoError(t, err)
	assert.Zero(t, delay)

	// 10:40 is ten minutes past the effective start with nobody seen.
	delay, err = ComputeDelay(doc, testDate, 0, 0, time.Date(2026, 1, 4, 10, 40, 0, 0, loc), loc)
	require.NoError(t, err)
	assert.Equal(t, 10, delay)
}

func TestComputeDelayBeforeSession(t *testing.T) {
	loc := time.UTC
	doc := delayDoctor(15, models.ConsultationIn)
	delay, err := ComputeDelay(doc, testDate, 0, 0, time.Date(2026, 1, 4, 9, 0, 0, 0, loc), loc)
	require.NoError(t, err)
	assert.Zero(t, delay)
}

func TestComputeDelayNeverNegative(t *testing.T) {
	loc := time.UTC
	doc := delayDoctor(15, models.ConsultationIn)

	// 30 minutes in with 4 done would be -30; it clamps to zero.
	now := time.Date(2026, 1, 4, 10, 30, 0, 0, loc)
	delay, err := ComputeDelay(doc, testDate, 0, 4, now, loc)
	require.NoError(t, err)
	assert.Zero(t, delay)
}

func TestComputeDelayUnknownSession(t *testing.T) {
	loc := time.UTC
	doc := delayDoctor(15, models.ConsultationIn)
	delay, err := ComputeDelay(doc, testDate, 3, 0, time.Date(2026, 1, 4, 11, 0, 0, 0, loc), loc)
	require.NoError(t, err)
	assert.Zero(t, delay)
}
