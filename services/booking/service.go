package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appointmentRepo "clinq/database/repository/appointment"
	clinicRepo "clinq/database/repository/clinic"
	doctorRepo "clinq/database/repository/doctor"
	patientRepo "clinq/database/repository/patient"
	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// bookingTimeout is the overall watchdog for one booking attempt.
	bookingTimeout = 30 * time.Second
	// maxTxnRetries bounds reservation-conflict retries.
	maxTxnRetries = 5
	// txnBackoffStep is multiplied by the attempt number before each retry.
	txnBackoffStep = 100 * time.Millisecond
	// advanceLeadTime is how far ahead an advance slot must start.
	advanceLeadTime = 60 * time.Minute
)

// DefaultBookingService implements BookingService over the Mongo scheduler
// repository. All slot mutations run inside RunBookingTxn.
type DefaultBookingService struct {
	ClinicRepo  clinicRepo.ClinicRepository
	DoctorRepo  doctorRepo.DoctorRepository
	PatientRepo patientRepo.PatientRepository
	ApptRepo    appointmentRepo.AppointmentRepository
	Scheduler   schedulerRepo.SchedulerRepository
	Clock       utils.Clock
	CacheClient *redis.Client // walk-in preview sessions
	Notifier    Notifier      // may be nil in tests
}

// bookingContext bundles the parallel pre-reads every operation starts with.
type bookingContext struct {
	clinic       *models.Clinic
	doctor       *models.Doctor
	patient      *models.Patient
	schedule     *models.DaySchedule
	appointments []models.Appointment
}

// preload fetches clinic, patient, doctor and the day's appointments in
// parallel, then materialises the slot list. patientID may be empty for
// operations that have no patient.
func (s *DefaultBookingService) preload(ctx context.Context, clinicID, doctorID, patientID, date string) (*bookingContext, error) {
	bc := &bookingContext{}
	var wg sync.WaitGroup
	var clinicErr, doctorErr, patientErr, apptErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		bc.clinic, clinicErr = s.ClinicRepo.GetByID(ctx, clinicID)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		bc.doctor, doctorErr = s.DoctorRepo.GetByID(ctx, doctorID)
	}()
	if patientID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bc.patient, patientErr = s.PatientRepo.GetByID(ctx, patientID)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		bc.appointments, apptErr = s.ApptRepo.ListDay(ctx, clinicID, doctorID, date)
	}()
	wg.Wait()

	if clinicErr != nil {
		return nil, WrapBookingError(KindNotAvailable, clinicErr, "clinic not found")
	}
	if doctorErr != nil {
		return nil, WrapBookingError(KindNotAvailable, doctorErr, "doctor not found")
	}
	if patientErr != nil {
		return nil, WrapBookingError(KindInvalidInput, patientErr, "patient not found")
	}
	if apptErr != nil {
		return nil, WrapBookingError(KindUnknown, apptErr, "could not load day appointments")
	}

	schedule, err := BuildDaySchedule(bc.doctor, date, s.Clock.Location())
	if err != nil {
		return nil, err
	}
	bc.schedule = schedule
	return bc, nil
}

// runWithRetry executes fn inside the booking transaction, retrying up to
// maxTxnRetries on reservation conflicts with a growing backoff, all under
// the 30-second watchdog.
func (s *DefaultBookingService) runWithRetry(ctx context.Context, fn func(tx schedulerRepo.BookingTxn) error) error {
	ctx, cancel := context.WithTimeout(ctx, bookingTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		err := s.Scheduler.RunBookingTxn(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return WrapBookingError(KindTimeout, err, "booking budget exhausted")
		}
		if errors.Is(err, schedulerRepo.ErrPermission) {
			return WrapBookingError(KindPermissionDenied, err, "store denied access")
		}
		if !errors.Is(err, schedulerRepo.ErrTxnConflict) {
			return err
		}
		lastErr = err
		utils.GetLogger().Debug("booking transaction conflict, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return WrapBookingError(KindTimeout, ctx.Err(), "booking budget exhausted")
		case <-time.After(time.Duration(attempt) * txnBackoffStep):
		}
	}
	return WrapBookingError(KindReservationConflict, lastErr, "slot contention, retries exhausted")
}

// hasActiveAppointment is the duplicate guard: one active token per patient,
// per doctor, per day. Rows knocked out by a break do not count.
func hasActiveAppointment(appts []models.Appointment, patientID string) bool {
	for i := range appts {
		a := &appts[i]
		if a.PatientID != patientID || a.CancelledByBreak || a.IsBreakBlock() {
			continue
		}
		if a.IsActive() {
			return true
		}
	}
	return false
}

// occupiedSlots maps every occupancy index a live row sits on, break blocks
// and finished consultations included. Cancelled rows free their slot.
func occupiedSlots(appts []models.Appointment) map[int]bool {
	out := make(map[int]bool, len(appts))
	for i := range appts {
		a := &appts[i]
		if a.Status == models.StatusCancelled && !a.IsBreakBlock() {
			continue
		}
		out[a.OccupancyIndex()] = true
	}
	return out
}

// sessionOccupants converts one session's rows into scheduler occupants.
// Reservations held by in-flight advance bookers pin their slots too.
// Active walk-ins are skipped when includeWalkIns is false; callers that
// re-submit them as candidates must not pin them as occupants as well.
func sessionOccupants(appts []models.Appointment, reservations []models.SlotReservation, w models.SessionWindow, now time.Time, includeWalkIns bool) []SlotOccupant {
	var out []SlotOccupant
	taken := map[int]bool{}
	for i := range appts {
		a := &appts[i]
		if a.SessionIndex != w.Index {
			continue
		}
		idx := a.OccupancyIndex()
		switch {
		case a.IsBreakBlock():
			out = append(out, SlotOccupant{ID: a.ID, Kind: OccupantBreak, SlotIndex: idx})
		case a.Status == models.StatusCompleted || a.Status == models.StatusNoShow:
			out = append(out, SlotOccupant{ID: a.ID, Kind: OccupantBlocked, SlotIndex: idx})
		case a.Status == models.StatusCancelled:
			continue
		case a.IsWalkIn():
			if !includeWalkIns {
				continue
			}
			out = append(out, SlotOccupant{ID: a.ID, Kind: OccupantWalkIn, SlotIndex: idx})
		default:
			out = append(out, SlotOccupant{ID: a.ID, Kind: OccupantShiftable, SlotIndex: idx})
		}
		taken[idx] = true
	}
	for i := range reservations {
		r := &reservations[i]
		if r.Status != models.ReservationReserved || r.StaleAt(now) {
			continue
		}
		if !w.Contains(r.SlotIndex) || taken[r.SlotIndex] {
			continue
		}
		out = append(out, SlotOccupant{ID: r.ID, Kind: OccupantReserved, SlotIndex: r.SlotIndex})
	}
	return out
}

// sessionWalkInCandidates re-submits the session's placed walk-ins so a
// rebalance can tighten them while preferred retention keeps stable ones put.
func sessionWalkInCandidates(appts []models.Appointment, sessionIndex int) []WalkInCandidate {
	var out []WalkInCandidate
	for i := range appts {
		a := &appts[i]
		if a.SessionIndex != sessionIndex || !a.IsWalkIn() || !a.IsActive() {
			continue
		}
		out = append(out, WalkInCandidate{
			ID:               a.ID,
			NumericToken:     a.NumericToken,
			CreatedAt:        a.CreatedAt,
			CurrentSlotIndex: a.OccupancyIndex(),
		})
	}
	return out
}

// remapOverflow pushes an occupancy index into the persisted overflow band
// when it would collide with a later session's physical slots.
func remapOverflow(ds *models.DaySchedule, w models.SessionWindow, occupancyIndex int) int {
	if w.Contains(occupancyIndex) {
		return occupancyIndex
	}
	if occupancyIndex < len(ds.Slots) {
		return models.OverflowBase + occupancyIndex
	}
	return occupancyIndex
}

// shiftUpdates converts scheduler shifts into persistable row updates with
// refreshed time strings.
func shiftUpdates(ds *models.DaySchedule, w models.SessionWindow, shifts []AdvanceShift) []models.AppointmentUpdate {
	out := make([]models.AppointmentUpdate, 0, len(shifts))
	for _, sh := range shifts {
		cutOff, noShow := TokenTimes(sh.Time)
		out = append(out, models.AppointmentUpdate{
			AppointmentID: sh.ID,
			SlotIndex:     remapOverflow(ds, w, sh.ToIndex),
			SessionIndex:  w.Index,
			Time:          utils.FormatTime(sh.Time),
			ArriveByTime:  utils.FormatTime(sh.Time),
			CutOffTime:    cutOff,
			NoShowTime:    noShow,
		})
	}
	return out
}

// claimReservation enforces the single-document slot race: an existing fresh
// reservation aborts the transaction as a retryable conflict, a stale one is
// garbage-collected in place.
func claimReservation(tx schedulerRepo.BookingTxn, res *models.SlotReservation, now time.Time) error {
	existing, err := tx.GetReservation(res.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		if !existing.StaleAt(now) {
			return fmt.Errorf("slot %d already reserved: %w", res.SlotIndex, schedulerRepo.ErrTxnConflict)
		}
		if err := tx.DeleteReservation(existing.ID); err != nil {
			return err
		}
	}
	return tx.PutReservation(res)
}
