package booking

import (
	"context"
	"time"

	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// walkInTokenBase keeps walk-in numeric tokens clear of positional advance
// tokens: numericToken = daySlotCount + counter + walkInTokenBase.
const walkInTokenBase = 100

// BookWalkIn reconciles a same-day token into the active session, shifting
// advance rows later where the spacing rule demands it.
func (s *DefaultBookingService) BookWalkIn(ctx context.Context, req models.BookWalkInRequest) (*models.BookingResult, error) {
	logger := utils.GetLogger()
	date := utils.FormatISODate(s.Clock.Now())
	bc, err := s.preload(ctx, req.ClinicID, req.DoctorID, req.PatientID, date)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	w, err := s.resolveWalkInSession(bc.schedule, now, req)
	if err != nil {
		return nil, err
	}
	if hasActiveAppointment(bc.appointments, req.PatientID) {
		return nil, NewBookingError(KindDuplicate, "patient %s already holds a token for this doctor today", req.PatientID)
	}

	spacing := bc.clinic.Spacing()
	newID := uuid.New().String()

	var result *models.BookingResult
	err = s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		now := s.Clock.Now()

		counterID := models.CounterWalkIn.DocID(req.ClinicID, bc.doctor.Name, date, 0)
		counter, err := tx.GetCounter(counterID)
		if err != nil {
			return err
		}
		numericToken := len(bc.schedule.Slots) + int(counter) + 1 + walkInTokenBase

		appts, err := tx.ListDayAppointments(req.ClinicID, req.DoctorID, date)
		if err != nil {
			return err
		}
		if hasActiveAppointment(appts, req.PatientID) {
			return NewBookingError(KindDuplicate, "patient %s already holds a token for this doctor today", req.PatientID)
		}
		reservations, err := tx.ListDayReservations(req.ClinicID, req.DoctorID, date)
		if err != nil {
			return err
		}

		candidates := append(sessionWalkInCandidates(appts, w.Index), WalkInCandidate{
			ID:               newID,
			NumericToken:     numericToken,
			CreatedAt:        now,
			CurrentSlotIndex: -1,
		})
		res, err := ScheduleWalkIns(ScheduleRequest{
			Slots:      bc.schedule.SessionSlots(w.Index),
			Step:       bc.schedule.Step,
			Now:        now,
			Spacing:    spacing,
			Occupants:  sessionOccupants(appts, reservations, w, now, false),
			Candidates: candidates,
		})
		if err != nil {
			return err
		}

		assignment, ok := res.Assignments[newID]
		if !ok {
			return NewBookingError(KindNoCandidate, "scheduler returned no assignment for new walk-in")
		}
		persistedIndex := remapOverflow(bc.schedule, w, assignment.SlotIndex)

		resDoc := &models.SlotReservation{
			ID:            models.ReservationDocID(req.ClinicID, bc.doctor.Name, date, persistedIndex),
			ClinicID:      req.ClinicID,
			DoctorID:      req.DoctorID,
			Date:          date,
			SlotIndex:     persistedIndex,
			ReservedAt:    now,
			ReservedBy:    req.PatientID,
			Status:        models.ReservationBooked,
			AppointmentID: newID,
		}
		if err := claimReservation(tx, resDoc, now); err != nil {
			return err
		}

		classicToken := ""
		if bc.clinic.Mode() == models.TokenModeClassic {
			classicCounterID := models.CounterClassic.DocID(req.ClinicID, bc.doctor.Name, date, w.Index)
			n, err := tx.GetCounter(classicCounterID)
			if err != nil {
				return err
			}
			if err := tx.SetCounter(classicCounterID, n+1); err != nil {
				return err
			}
			classicToken = models.FormatClassicToken(n + 1)
		}

		cutOff, noShow := TokenTimes(assignment.Time)
		appt := &models.Appointment{
			ID:                 newID,
			ClinicID:           req.ClinicID,
			DoctorID:           req.DoctorID,
			DoctorName:         bc.doctor.Name,
			PatientID:          req.PatientID,
			PatientName:        bc.patient.Name,
			PatientPhone:       bc.patient.Phone,
			Date:               date,
			Time:               utils.FormatTime(assignment.Time),
			ArriveByTime:       utils.FormatTime(assignment.Time),
			CutOffTime:         cutOff,
			NoShowTime:         noShow,
			BookedVia:          models.BookedViaWalkIn,
			Status:             models.StatusConfirmed,
			SlotIndex:          persistedIndex,
			SessionIndex:       w.Index,
			NumericToken:       numericToken,
			TokenNumber:        models.FormatWalkInToken(w.Index, numericToken),
			ClassicTokenNumber: classicToken,
			IsForceBooked:      req.ForceBook,
			CreatedAt:          now,
		}
		if err := tx.InsertAppointment(appt); err != nil {
			return err
		}

		updates := shiftUpdates(bc.schedule, w, res.Shifts)
		updates = append(updates, walkInMoveUpdates(bc.schedule, w, appts, res, newID)...)
		for _, upd := range updates {
			if err := tx.ApplySlotUpdate(upd); err != nil {
				return err
			}
		}

		if err := tx.SetCounter(counterID, counter+1); err != nil {
			return err
		}
		if err := tx.RecordVisit(req.PatientID, models.PatientVisit{
			AppointmentID: appt.ID,
			ClinicID:      req.ClinicID,
			DoctorID:      req.DoctorID,
			Date:          date,
			BookedVia:     models.BookedViaWalkIn,
			RecordedAt:    now,
		}); err != nil {
			return err
		}

		result = &models.BookingResult{
			Appointment:   *appt,
			SlotIndex:     persistedIndex,
			SessionIndex:  w.Index,
			Time:          appt.Time,
			TokenNumber:   appt.TokenNumber,
			PatientsAhead: assignment.PatientsAhead,
			ForceBooked:   req.ForceBook,
			Shifts:        updates,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("walk-in token booked",
		zap.String("clinic", req.ClinicID),
		zap.String("doctor", req.DoctorID),
		zap.String("token", result.TokenNumber),
		zap.Int("slot", result.SlotIndex),
		zap.Int("patientsAhead", result.PatientsAhead),
		zap.Bool("force", req.ForceBook))
	if s.Notifier != nil {
		s.Notifier.AppointmentBooked(ctx, &result.Appointment, req.BookedByStaff)
	}
	return result, nil
}

// resolveWalkInSession applies the active-session rule: the first session
// with now <= end and now >= start - 30 min. Force-booking falls through to
// the operator's choice or the next session to start.
func (s *DefaultBookingService) resolveWalkInSession(ds *models.DaySchedule, now time.Time, req models.BookWalkInRequest) (models.SessionWindow, error) {
	if w, ok := ActiveSession(ds, now); ok {
		return w, nil
	}
	if !req.ForceBook {
		return models.SessionWindow{}, NewBookingError(KindNoWalkInSlots, "no session is open for walk-ins right now")
	}
	if req.TargetSessionIndex != nil {
		if w, ok := ds.Session(*req.TargetSessionIndex); ok {
			return w, nil
		}
		return models.SessionWindow{}, NewBookingError(KindInvalidInput, "session %d does not exist", *req.TargetSessionIndex)
	}
	if w, ok := ForceBookSession(ds, now); ok {
		return w, nil
	}
	return models.SessionWindow{}, NewBookingError(KindNoWalkInSlots, "doctor has no sessions today")
}

// walkInMoveUpdates captures existing walk-ins the scheduler relocated while
// placing the new candidate.
func walkInMoveUpdates(ds *models.DaySchedule, w models.SessionWindow, appts []models.Appointment, res *ScheduleResult, skipID string) []models.AppointmentUpdate {
	byID := make(map[string]*models.Appointment, len(appts))
	for i := range appts {
		byID[appts[i].ID] = &appts[i]
	}
	var out []models.AppointmentUpdate
	for id, asg := range res.Assignments {
		if id == skipID {
			continue
		}
		a, ok := byID[id]
		if !ok {
			continue
		}
		persisted := remapOverflow(ds, w, asg.SlotIndex)
		if persisted == a.SlotIndex {
			continue
		}
		cutOff, noShow := TokenTimes(asg.Time)
		out = append(out, models.AppointmentUpdate{
			AppointmentID: id,
			SlotIndex:     persisted,
			SessionIndex:  w.Index,
			Time:          utils.FormatTime(asg.Time),
			ArriveByTime:  utils.FormatTime(asg.Time),
			CutOffTime:    cutOff,
			NoShowTime:    noShow,
		})
	}
	return out
}
