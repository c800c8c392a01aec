package queue

import (
	"context"
	"time"

	"clinq/models"
	"clinq/utils"
)

// DoctorDelay reports how many minutes the doctor is running behind for the
// given session right now.
func (s *DefaultQueueService) DoctorDelay(ctx context.Context, clinicID, doctorID, date string, sessionIndex int) (int, error) {
	doctor, err := s.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return 0, err
	}
	counterID := models.CounterConsultation.DocID(clinicID, doctor.Name, date, sessionIndex)
	completed, err := s.Scheduler.CounterValue(ctx, counterID)
	if err != nil {
		return 0, err
	}
	return ComputeDelay(doctor, date, sessionIndex, int(completed), s.Clock.Now(), s.Clock.Location())
}

// ComputeDelay is the pure delay formula:
//
//	delay = elapsed - completed*avg - passedBreakMinutes, clamped at zero.
//
// A break that starts with the session pushes the effective start to its
// end. While the doctor is Out the whole elapsed time counts as delay.
func ComputeDelay(doctor *models.Doctor, date string, sessionIndex int, completed int, now time.Time, loc *time.Location) (int, error) {
	day, err := utils.ParseISODate(date, loc)
	if err != nil {
		return 0, err
	}
	sessions := doctor.SessionsOn(utils.WeekdayName(day))
	if sessionIndex < 0 || sessionIndex >= len(sessions) {
		return 0, nil
	}
	start, err := utils.TimeOnDate(date, sessions[sessionIndex].From, loc)
	if err != nil {
		return 0, err
	}

	breaks := sessionBreakIntervals(doctor, date, sessionIndex, loc)
	effectiveStart := start
	for _, b := range breaks {
		if !b.start.After(start.Add(time.Minute)) && b.end.After(effectiveStart) {
			effectiveStart = b.end
		}
	}
	if now.Before(effectiveStart) {
		return 0, nil
	}
	elapsed := utils.MinutesBetween(effectiveStart, now)
	if doctor.ConsultationStatus != models.ConsultationIn {
		return elapsed, nil
	}

	passedBreaks := 0
	for _, b := range breaks {
		if b.start.Before(effectiveStart) || !b.start.Before(now) {
			continue
		}
		passedBreaks += utils.MinutesBetween(b.start, b.end)
	}
	delay := elapsed - completed*doctor.StepMinutes() - passedBreaks
	if delay < 0 {
		delay = 0
	}
	return delay, nil
}

type interval struct {
	start, end time.Time
}

func sessionBreakIntervals(doctor *models.Doctor, date string, sessionIndex int, loc *time.Location) []interval {
	var out []interval
	for _, bp := range doctor.BreaksOn(date) {
		if bp.SessionIndex != sessionIndex {
			continue
		}
		start, err1 := utils.TimeOnDate(date, bp.StartTime, loc)
		end, err2 := utils.TimeOnDate(date, bp.EndTime, loc)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, interval{start: start, end: end})
	}
	return out
}
