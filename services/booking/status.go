package booking

import (
	"context"

	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/utils"

	"go.uber.org/zap"
)

// BufferCap is how many arrived patients may wait in the buffer at once.
const BufferCap = 2

// ConfirmArrival flips a pending token to confirmed when the patient checks in.
func (s *DefaultBookingService) ConfirmArrival(ctx context.Context, appointmentID string) error {
	appt, err := s.transition(ctx, appointmentID, []string{models.StatusPending, models.StatusSkipped}, models.StatusConfirmed)
	if err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.ArrivalConfirmed(ctx, appt)
	}
	return nil
}

// MoveToBuffer stages a confirmed patient next to the consultation room. The
// head of the buffer is the current consultation, so the move doubles as the
// token call.
func (s *DefaultBookingService) MoveToBuffer(ctx context.Context, appointmentID string) error {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return WrapBookingError(KindInvalidInput, err, "appointment not found")
	}
	if appt.Status != models.StatusConfirmed {
		return NewBookingError(KindInvalidInput, "only confirmed tokens can enter the buffer, %s is %s", appointmentID, appt.Status)
	}
	session, err := s.ApptRepo.ListSession(ctx, appt.ClinicID, appt.DoctorID, appt.Date, appt.SessionIndex)
	if err != nil {
		return WrapBookingError(KindUnknown, err, "could not load session queue")
	}
	buffered := 0
	for i := range session {
		if session[i].IsInBuffer && session[i].IsActive() {
			buffered++
		}
	}
	if buffered >= BufferCap {
		return NewBookingError(KindInvalidInput, "buffer is full (%d)", BufferCap)
	}
	err = s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		return tx.SetInBuffer(appointmentID, true)
	})
	if err != nil {
		return err
	}
	if s.Notifier != nil {
		appt.IsInBuffer = true
		s.Notifier.TokenCalled(ctx, appt)
	}
	return nil
}

// Skip parks a confirmed patient who missed their call.
func (s *DefaultBookingService) Skip(ctx context.Context, appointmentID string) error {
	appt, err := s.transition(ctx, appointmentID, []string{models.StatusConfirmed}, models.StatusSkipped)
	if err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.AppointmentSkipped(ctx, appt)
	}
	return nil
}

// Complete finishes a consultation, bumps the per-session consultation
// counter and fans out people-ahead updates.
func (s *DefaultBookingService) Complete(ctx context.Context, appointmentID string) error {
	var appt *models.Appointment
	err := s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		loaded, err := s.loadActive(ctx, appointmentID)
		if err != nil {
			return err
		}
		appt = loaded
		if err := tx.SetAppointmentStatus(appointmentID, models.StatusCompleted); err != nil {
			return err
		}
		if err := tx.SetInBuffer(appointmentID, false); err != nil {
			return err
		}
		counterID := models.CounterConsultation.DocID(appt.ClinicID, appt.DoctorName, appt.Date, appt.SessionIndex)
		n, err := tx.GetCounter(counterID)
		if err != nil {
			return err
		}
		return tx.SetCounter(counterID, n+1)
	})
	if err != nil {
		return err
	}
	appt.Status = models.StatusCompleted
	if s.Notifier != nil {
		s.Notifier.ConsultationCompleted(ctx, appt)
	}
	return nil
}

// MarkNoShow closes out a token whose grace period has lapsed.
func (s *DefaultBookingService) MarkNoShow(ctx context.Context, appointmentID string) error {
	appt, err := s.loadActive(ctx, appointmentID)
	if err != nil {
		return err
	}
	deadline, err := utils.TimeOnDate(appt.Date, appt.NoShowTime, s.Clock.Location())
	if err != nil {
		return WrapBookingError(KindInvalidInput, err, "bad noShowTime on appointment")
	}
	if s.Clock.Now().Before(deadline) {
		return NewBookingError(KindInvalidInput, "no-show window for %s opens at %s", appointmentID, appt.NoShowTime)
	}
	return s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		return tx.SetAppointmentStatus(appointmentID, models.StatusNoShow)
	})
}

// Cancel releases the slot; the reservation row goes with it so the next
// gap-fill pass can claim the hole.
func (s *DefaultBookingService) Cancel(ctx context.Context, appointmentID string) error {
	appt, err := s.loadActive(ctx, appointmentID)
	if err != nil {
		return err
	}
	err = s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		if err := tx.SetAppointmentStatus(appointmentID, models.StatusCancelled); err != nil {
			return err
		}
		resID := models.ReservationDocID(appt.ClinicID, appt.DoctorName, appt.Date, appt.SlotIndex)
		return tx.DeleteReservation(resID)
	})
	if err != nil {
		return err
	}
	appt.Status = models.StatusCancelled
	if s.Notifier != nil {
		s.Notifier.AppointmentCancelled(ctx, appt)
	}
	return nil
}

// SetConsultationStatus toggles the doctor's presence. Going In fires the
// consultation-started fan-out for the active session.
func (s *DefaultBookingService) SetConsultationStatus(ctx context.Context, doctorID, status string) error {
	if status != models.ConsultationIn && status != models.ConsultationOut {
		return NewBookingError(KindInvalidInput, "consultation status must be In or Out, got %q", status)
	}
	doctor, err := s.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return WrapBookingError(KindNotAvailable, err, "doctor not found")
	}
	if doctor.ConsultationStatus == status {
		return nil
	}
	if err := s.DoctorRepo.SetConsultationStatus(ctx, doctorID, status); err != nil {
		return WrapBookingError(KindUnknown, err, "could not update consultation status")
	}
	utils.GetLogger().Info("doctor consultation status changed",
		zap.String("doctor", doctorID),
		zap.String("from", doctor.ConsultationStatus),
		zap.String("to", status))
	if status == models.ConsultationIn && s.Notifier != nil {
		s.Notifier.ConsultationStarted(ctx, doctor.ClinicID, doctorID, utils.FormatISODate(s.Clock.Now()))
	}
	return nil
}

// loadActive fetches an appointment and rejects terminal rows.
func (s *DefaultBookingService) loadActive(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, WrapBookingError(KindInvalidInput, err, "appointment not found")
	}
	if appt.IsTerminal() {
		return nil, NewBookingError(KindInvalidInput, "appointment %s is already %s", appointmentID, appt.Status)
	}
	return appt, nil
}

// transition moves an appointment between statuses after checking the
// current one is in the allowed set.
func (s *DefaultBookingService) transition(ctx context.Context, appointmentID string, from []string, to string) (*models.Appointment, error) {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, WrapBookingError(KindInvalidInput, err, "appointment not found")
	}
	allowed := false
	for _, f := range from {
		if appt.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, NewBookingError(KindInvalidInput, "cannot move %s from %s to %s", appointmentID, appt.Status, to)
	}
	err = s.runWithRetry(ctx, func(tx schedulerRepo.BookingTxn) error {
		return tx.SetAppointmentStatus(appointmentID, to)
	})
	if err != nil {
		return nil, err
	}
	appt.Status = to
	return appt, nil
}
