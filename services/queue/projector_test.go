package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClinicRepo struct {
	clinic *models.Clinic
}

func (s *stubClinicRepo) GetByID(_ context.Context, _ string) (*models.Clinic, error) {
	return s.clinic, nil
}

func (s *stubClinicRepo) GetByShortCode(_ context.Context, _ string) (*models.Clinic, error) {
	return s.clinic, nil
}

func (s *stubClinicRepo) UpdateNotificationSettings(_ context.Context, _ string, settings map[string]models.ChannelSetting) error {
	s.clinic.NotificationSettings = settings
	return nil
}

type stubDoctorRepo struct {
	doctor *models.Doctor
}

func (s *stubDoctorRepo) GetByID(_ context.Context, _ string) (*models.Doctor, error) {
	return s.doctor, nil
}

func (s *stubDoctorRepo) ListByClinic(_ context.Context, _ string) ([]models.Doctor, error) {
	return []models.Doctor{*s.doctor}, nil
}

func (s *stubDoctorRepo) SetConsultationStatus(_ context.Context, _, status string) error {
	s.doctor.ConsultationStatus = status
	return nil
}

type stubApptRepo struct {
	appts []models.Appointment
}

func (s *stubApptRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	for i := range s.appts {
		if s.appts[i].ID == id {
			return &s.appts[i], nil
		}
	}
	return nil, fmt.Errorf("appointment %s not found", id)
}

func (s *stubApptRepo) ListDay(_ context.Context, _, _, _ string) ([]models.Appointment, error) {
	return s.appts, nil
}

func (s *stubApptRepo) ListSession(_ context.Context, _, _, _ string, sessionIndex int) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range s.appts {
		if a.SessionIndex == sessionIndex {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubApptRepo) ListByDateAndStatus(_ context.Context, _ string, _ []string) ([]models.Appointment, error) {
	return s.appts, nil
}

func (s *stubApptRepo) MarkReminderSent(_ context.Context, _, _ string) error { return nil }

func (s *stubApptRepo) MarkBookedNotified(_ context.Context, _ string) error { return nil }

type stubScheduler struct {
	counters map[string]int64
}

func (s *stubScheduler) RunBookingTxn(_ context.Context, _ func(tx schedulerRepo.BookingTxn) error) error {
	return nil
}

func (s *stubScheduler) CleanupStaleReservations(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *stubScheduler) CounterValue(_ context.Context, id string) (int64, error) {
	return s.counters[id], nil
}

func newProjector(doctor *models.Doctor, appts []models.Appointment, now time.Time) *DefaultQueueService {
	return &DefaultQueueService{
		ClinicRepo: &stubClinicRepo{clinic: &models.Clinic{ID: "clinic-1"}},
		DoctorRepo: &stubDoctorRepo{doctor: doctor},
		ApptRepo:   &stubApptRepo{appts: appts},
		Scheduler:  &stubScheduler{counters: map[string]int64{}},
		Clock:      utils.NewFixedClock(now),
	}
}

func patientRow(id string, status string, slot int, inBuffer bool) models.Appointment {
	return models.Appointment{
		ID:           id,
		ClinicID:     "clinic-1",
		DoctorID:     "doc-1",
		DoctorName:   "Dr Menon",
		PatientID:    "p-" + id,
		Date:         testDate,
		BookedVia:    models.BookedViaAdvance,
		Status:       status,
		SlotIndex:    slot,
		SessionIndex: 0,
		NumericToken: slot + 1,
		IsInBuffer:   inBuffer,
	}
}

func TestProjectSplitsQueues(t *testing.T) {
	now := time.Date(2026, 1, 4, 10, 40, 0, 0, time.UTC)
	appts := []models.Appointment{
		patientRow("a-4", models.StatusConfirmed, 4, false),
		patientRow("a-1", models.StatusConfirmed, 1, true),
		patientRow("a-2", models.StatusConfirmed, 2, false),
		patientRow("a-3", models.StatusSkipped, 3, false),
		patientRow("a-5", models.StatusPending, 5, false),
	}
	svc := newProjector(delayDoctor(15, models.ConsultationIn), appts, now)
	svc.Scheduler.(*stubScheduler).counters[models.CounterConsultation.DocID("clinic-1", "Dr Menon", testDate, 0)] = 2

	state, err := svc.Project(context.Background(), "clinic-1", "doc-1", testDate, 0)
	require.NoError(t, err)

	// Arrived ordering follows the slot index; pending rows stay out.
	require.Len(t, state.ArrivedQueue, 2)
	assert.Equal(t, "a-2", state.ArrivedQueue[0].ID)
	assert.Equal(t, "a-4", state.ArrivedQueue[1].ID)

	require.Len(t, state.BufferQueue, 1)
	require.NotNil(t, state.CurrentConsultation)
	assert.Equal(t, "a-1", state.CurrentConsultation.ID)

	require.Len(t, state.SkippedQueue, 1)
	assert.Equal(t, "a-3", state.SkippedQueue[0].ID)

	assert.Equal(t, 2, state.ConsultationCount)
	assert.Nil(t, state.NextBreakDurationMinutes, "doctor is In, no break shows")
}

func TestProjectClassicOrdering(t *testing.T) {
	now := time.Date(2026, 1, 4, 10, 40, 0, 0, time.UTC)
	late := patientRow("a-1", models.StatusConfirmed, 1, false)
	late.ClassicTokenNumber = "012"
	early := patientRow("a-9", models.StatusConfirmed, 9, false)
	early.ClassicTokenNumber = "003"

	svc := newProjector(delayDoctor(15, models.ConsultationIn), []models.Appointment{late, early}, now)
	svc.ClinicRepo = &stubClinicRepo{clinic: &models.Clinic{
		ID:                "clinic-1",
		TokenDistribution: models.TokenModeClassic,
	}}

	state, err := svc.Project(context.Background(), "clinic-1", "doc-1", testDate, 0)
	require.NoError(t, err)

	// Classic clinics order by running number, not by slot.
	require.Len(t, state.ArrivedQueue, 2)
	assert.Equal(t, "a-9", state.ArrivedQueue[0].ID)
	assert.Equal(t, "a-1", state.ArrivedQueue[1].ID)
}

func TestProjectShowsRemainingBreakWhileOut(t *testing.T) {
	now := time.Date(2026, 1, 4, 10, 35, 0, 0, time.UTC)
	block1 := patientRow("bb-1", models.StatusCompleted, 2, false)
	block1.PatientID = models.BreakBlockPatientID
	block1.BookedVia = models.BookedViaBreakBlock
	block1.Time = "10:30 AM"
	block2 := patientRow("bb-2", models.StatusCompleted, 3, false)
	block2.PatientID = models.BreakBlockPatientID
	block2.BookedVia = models.BookedViaBreakBlock
	block2.Time = "10:45 AM"

	doc := delayDoctor(15, models.ConsultationOut)
	svc := newProjector(doc, []models.Appointment{block1, block2}, now)

	state, err := svc.Project(context.Background(), "clinic-1", "doc-1", testDate, 0)
	require.NoError(t, err)

	// The two blocks run 10:30-11:00; 25 minutes remain at 10:35.
	require.NotNil(t, state.NextBreakDurationMinutes)
	assert.Equal(t, 25, *state.NextBreakDurationMinutes)
	assert.Empty(t, state.ArrivedQueue, "break blocks never surface as patients")

	// Walking back In hides the break.
	doc.ConsultationStatus = models.ConsultationIn
	state, err = svc.Project(context.Background(), "clinic-1", "doc-1", testDate, 0)
	require.NoError(t, err)
	assert.Nil(t, state.NextBreakDurationMinutes)
}

func TestProjectBreakNotStartedYet(t *testing.T) {
	now := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	block := patientRow("bb-1", models.StatusCompleted, 2, false)
	block.PatientID = models.BreakBlockPatientID
	block.BookedVia = models.BookedViaBreakBlock
	block.Time = "10:30 AM"

	svc := newProjector(delayDoctor(15, models.ConsultationOut), []models.Appointment{block}, now)
	state, err := svc.Project(context.Background(), "clinic-1", "doc-1", testDate, 0)
	require.NoError(t, err)
	assert.Nil(t, state.NextBreakDurationMinutes, "a future break does not count down yet")
}
