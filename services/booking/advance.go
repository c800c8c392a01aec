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

// BookAdvance places a pre-booked token on a future slot. The token number
// is positional: numericToken is always slotIndex + 1, never drawn from a
// counter, so a token printed on a card maps back to its slot.
func (s *DefaultBookingService) BookAdvance(ctx context.Context, req models.BookAdvanceRequest) (*models.BookingResult, error) {
	logger := utils.GetLogger()
	bc, err := s.preload(ctx, req.ClinicID, req.DoctorID, req.PatientID, req.Date)
	if err != nil {
		return nil, err
	}

	var result *models.BookingResult
	err = s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		now := s.Clock.Now()
		appts, err := tx.ListDayAppointments(req.ClinicID, req.DoctorID, req.Date)
		if err != nil {
			return err
		}
		if hasActiveAppointment(appts, req.PatientID) {
			return NewBookingError(KindDuplicate, "patient %s already holds a token for this doctor today", req.PatientID)
		}

		activeAdvance := countActiveFutureAdvance(appts, bc.schedule, now)
		if cap := DayAdvanceCapacity(bc.schedule, now); activeAdvance >= cap {
			return NewBookingError(KindCapacityReached, "advance capacity %d reached", cap)
		}

		candidates := advanceCandidates(bc.schedule, appts, now, req.PreferredSlotIndex)
		if len(candidates) == 0 {
			return NewBookingError(KindNoCandidate, "no bookable advance slot on %s", req.Date)
		}

		chosen := -1
		for _, idx := range candidates {
			resDoc := &models.SlotReservation{
				ID:         models.ReservationDocID(req.ClinicID, bc.doctor.Name, req.Date, idx),
				ClinicID:   req.ClinicID,
				DoctorID:   req.DoctorID,
				Date:       req.Date,
				SlotIndex:  idx,
				ReservedAt: now,
				ReservedBy: req.PatientID,
				Status:     models.ReservationReserved,
			}
			existing, err := tx.GetReservation(resDoc.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				if !existing.StaleAt(now) {
					continue // another booker is mid-flight on this slot
				}
				if err := tx.DeleteReservation(existing.ID); err != nil {
					return err
				}
			}
			if err := tx.PutReservation(resDoc); err != nil {
				return err
			}
			chosen = idx
			break
		}
		if chosen < 0 {
			return NewBookingError(KindNoCandidate, "every candidate slot is locked by another booker")
		}

		slot := bc.schedule.Slots[chosen]
		numericToken := chosen + 1
		status := models.StatusPending
		classicToken := ""
		if bc.clinic.Mode() == models.TokenModeClassic {
			// Classic clinics confirm instantly and hand out a running
			// per-session number alongside the positional token.
			counterID := models.CounterClassic.DocID(req.ClinicID, bc.doctor.Name, req.Date, slot.SessionIndex)
			n, err := tx.GetCounter(counterID)
			if err != nil {
				return err
			}
			if err := tx.SetCounter(counterID, n+1); err != nil {
				return err
			}
			classicToken = models.FormatClassicToken(n + 1)
			status = models.StatusConfirmed
		}

		cutOff, noShow := TokenTimes(slot.Time)
		appt := &models.Appointment{
			ID:                 uuid.New().String(),
			ClinicID:           req.ClinicID,
			DoctorID:           req.DoctorID,
			DoctorName:         bc.doctor.Name,
			PatientID:          req.PatientID,
			PatientName:        bc.patient.Name,
			PatientPhone:       bc.patient.Phone,
			Date:               req.Date,
			Time:               utils.FormatTime(slot.Time),
			ArriveByTime:       utils.FormatTime(slot.Time),
			CutOffTime:         cutOff,
			NoShowTime:         noShow,
			BookedVia:          models.BookedViaAdvance,
			Status:             status,
			SlotIndex:          chosen,
			SessionIndex:       slot.SessionIndex,
			NumericToken:       numericToken,
			TokenNumber:        models.FormatAdvanceToken(slot.SessionIndex, numericToken),
			ClassicTokenNumber: classicToken,
			CreatedAt:          now,
		}
		if err := tx.InsertAppointment(appt); err != nil {
			return err
		}
		if err := tx.RecordVisit(req.PatientID, models.PatientVisit{
			AppointmentID: appt.ID,
			ClinicID:      req.ClinicID,
			DoctorID:      req.DoctorID,
			Date:          req.Date,
			BookedVia:     models.BookedViaAdvance,
			RecordedAt:    now,
		}); err != nil {
			return err
		}

		result = &models.BookingResult{
			Appointment:  *appt,
			SlotIndex:    chosen,
			SessionIndex: slot.SessionIndex,
			Time:         appt.Time,
			TokenNumber:  appt.TokenNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("advance token booked",
		zap.String("clinic", req.ClinicID),
		zap.String("doctor", req.DoctorID),
		zap.String("date", req.Date),
		zap.String("token", result.TokenNumber),
		zap.Int("slot", result.SlotIndex))
	if s.Notifier != nil {
		s.Notifier.AppointmentBooked(ctx, &result.Appointment, req.BookedByStaff)
	}
	return result, nil
}

// countActiveFutureAdvance counts live advance rows whose slot has not
// started yet; only those consume the 85% cap.
func countActiveFutureAdvance(appts []models.Appointment, ds *models.DaySchedule, now time.Time) int {
	n := 0
	for i := range appts {
		a := &appts[i]
		if a.IsBreakBlock() || a.IsWalkIn() || !a.IsActive() {
			continue
		}
		if t, ok := ds.SlotTime(a.OccupancyIndex()); ok && !t.Before(now) {
			n++
		}
	}
	return n
}

// advanceCandidates lists the slot indices an advance booking may claim, in
// preference order: the preferred slot first, then later slots of the same
// session, then the earlier ones. Slots inside the walk-in reserve, occupied
// slots and slots starting within the next hour are excluded.
func advanceCandidates(ds *models.DaySchedule, appts []models.Appointment, now time.Time, preferred *int) []int {
	occupied := occupiedSlots(appts)
	reserved := ReservedWalkInIndices(ds, now)
	earliest := now.Add(advanceLeadTime)

	bookable := func(idx int) bool {
		if idx < 0 || idx >= len(ds.Slots) {
			return false
		}
		if occupied[idx] || reserved[idx] {
			return false
		}
		return ds.Slots[idx].Time.After(earliest)
	}

	var out []int
	if preferred != nil {
		p := *preferred
		if p < 0 || p >= len(ds.Slots) {
			return nil
		}
		w, ok := ds.SessionOf(p)
		if !ok {
			return nil
		}
		for idx := p; idx < w.FirstSlot+w.SlotCount; idx++ {
			if bookable(idx) {
				out = append(out, idx)
			}
		}
		for idx := w.FirstSlot; idx < p; idx++ {
			if bookable(idx) {
				out = append(out, idx)
			}
		}
		return out
	}
	for idx := range ds.Slots {
		if bookable(idx) {
			out = append(out, idx)
		}
	}
	return out
}
