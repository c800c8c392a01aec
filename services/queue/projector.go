package queue

import (
	"context"
	"sort"
	"time"

	appointmentRepo "clinq/database/repository/appointment"
	clinicRepo "clinq/database/repository/clinic"
	doctorRepo "clinq/database/repository/doctor"
	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/utils"
)

// QueueService projects the day's appointment rows into the live queue view.
type QueueService interface {
	Project(ctx context.Context, clinicID, doctorID, date string, sessionIndex int) (*models.QueueState, error)
	DoctorDelay(ctx context.Context, clinicID, doctorID, date string, sessionIndex int) (int, error)
}

// DefaultQueueService is the read-side projector; it never writes.
type DefaultQueueService struct {
	ClinicRepo clinicRepo.ClinicRepository
	DoctorRepo doctorRepo.DoctorRepository
	ApptRepo   appointmentRepo.AppointmentRepository
	Scheduler  schedulerRepo.SchedulerRepository
	Clock      utils.Clock
}

// Project builds the QueueState for one session: arrived, buffer, skipped,
// current consultation, completed count, and the remaining break when the
// doctor is out.
func (s *DefaultQueueService) Project(ctx context.Context, clinicID, doctorID, date string, sessionIndex int) (*models.QueueState, error) {
	clinic, err := s.ClinicRepo.GetByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	appts, err := s.ApptRepo.ListSession(ctx, clinicID, doctorID, date, sessionIndex)
	if err != nil {
		return nil, err
	}

	mode := clinic.Mode()
	state := &models.QueueState{
		ArrivedQueue: []models.Appointment{},
		BufferQueue:  []models.Appointment{},
		SkippedQueue: []models.Appointment{},
	}
	for i := range appts {
		a := appts[i]
		if a.IsBreakBlock() {
			continue
		}
		switch {
		case a.IsInBuffer && a.IsActive():
			state.BufferQueue = append(state.BufferQueue, a)
		case a.Status == models.StatusConfirmed:
			state.ArrivedQueue = append(state.ArrivedQueue, a)
		case a.Status == models.StatusSkipped:
			state.SkippedQueue = append(state.SkippedQueue, a)
		}
	}
	sortQueue(state.ArrivedQueue, mode)
	sortQueue(state.BufferQueue, mode)
	sortQueue(state.SkippedQueue, mode)
	if len(state.BufferQueue) > 0 {
		state.CurrentConsultation = &state.BufferQueue[0]
	}

	counterID := models.CounterConsultation.DocID(clinicID, doctor.Name, date, sessionIndex)
	count, err := s.Scheduler.CounterValue(ctx, counterID)
	if err != nil {
		return nil, err
	}
	state.ConsultationCount = int(count)

	// An active break only shows while the doctor is Out; walking back In
	// cancels it.
	if doctor.ConsultationStatus == models.ConsultationOut {
		if remaining, ok := nextBreakRemaining(appts, doctor, date, sessionIndex, s.Clock.Now(), s.Clock.Location()); ok {
			state.NextBreakDurationMinutes = &remaining
		}
	}
	return state, nil
}

func sortQueue(q []models.Appointment, mode models.TokenMode) {
	sort.SliceStable(q, func(i, j int) bool {
		return mode.Less(&q[i], &q[j])
	})
}

// nextBreakRemaining finds the earliest contiguous run of break blocks in
// the session overlapping now and returns the minutes left, rounded up.
func nextBreakRemaining(appts []models.Appointment, doctor *models.Doctor, date string, sessionIndex int, now time.Time, loc *time.Location) (int, bool) {
	step := time.Duration(doctor.StepMinutes()) * time.Minute

	type block struct {
		index int
		start time.Time
	}
	var blocks []block
	for i := range appts {
		a := &appts[i]
		if !a.IsBreakBlock() || a.SessionIndex != sessionIndex {
			continue
		}
		start, err := utils.TimeOnDate(date, a.Time, loc)
		if err != nil {
			continue
		}
		blocks = append(blocks, block{index: a.OccupancyIndex(), start: start})
	}
	if len(blocks) == 0 {
		return 0, false
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].index < blocks[j].index })

	for i := 0; i < len(blocks); {
		j := i
		for j+1 < len(blocks) && blocks[j+1].index == blocks[j].index+1 {
			j++
		}
		start, end := blocks[i].start, blocks[j].start.Add(step)
		if !now.Before(start) && now.Before(end) {
			return utils.CeilMinutes(end.Sub(now)), true
		}
		if start.After(now) {
			break
		}
		i = j + 1
	}
	return 0, false
}
