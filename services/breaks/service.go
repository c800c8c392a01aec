package breaks

import (
	"context"
	"sort"
	"time"

	doctorRepo "clinq/database/repository/doctor"
	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/models"
	"clinq/services/booking"
	"clinq/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxBreaksPerSession bounds how many separate breaks one session may carry.
const MaxBreaksPerSession = 3

// AddBreakRequest names the slots (absolute day indices) a break covers.
type AddBreakRequest struct {
	ClinicID     string `json:"clinicId" binding:"required"`
	DoctorID     string `json:"doctorId" binding:"required"`
	Date         string `json:"date" binding:"required"` // ISO
	SessionIndex int    `json:"sessionIndex"`
	SlotIndexes  []int  `json:"slotIndexes" binding:"required"`
}

// BreakService validates doctor breaks, materialises their slot blocks and
// keeps the session's effective end in step.
type BreakService interface {
	AddBreak(ctx context.Context, req AddBreakRequest) (*models.BreakPeriod, error)
	RemoveBreak(ctx context.Context, clinicID, doctorID, date, breakID string) error
}

// DefaultBreakService implements BreakService over the scheduler transaction.
type DefaultBreakService struct {
	DoctorRepo doctorRepo.DoctorRepository
	Scheduler  schedulerRepo.SchedulerRepository
	Booking    booking.BookingService
	Clock      utils.Clock
}

// AddBreak validates and stores a new break, occupies its slots with break
// blocks, extends the session by the displaced-appointment time, and
// rebalances the queue.
func (s *DefaultBreakService) AddBreak(ctx context.Context, req AddBreakRequest) (*models.BreakPeriod, error) {
	doctor, err := s.DoctorRepo.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, booking.WrapBookingError(booking.KindNotAvailable, err, "doctor not found")
	}
	ds, err := booking.BuildDaySchedule(doctor, req.Date, s.Clock.Location())
	if err != nil {
		return nil, err
	}
	w, ok := ds.Session(req.SessionIndex)
	if !ok {
		return nil, booking.NewBookingError(booking.KindInvalidBreak, "session %d does not exist on %s", req.SessionIndex, req.Date)
	}

	newBreak, err := buildBreakPeriod(ds, w, req.SlotIndexes, doctor.StepMinutes())
	if err != nil {
		return nil, err
	}
	existing := sessionBreaks(doctor.BreaksOn(req.Date), req.SessionIndex)
	if len(existing) >= MaxBreaksPerSession {
		return nil, booking.NewBookingError(booking.KindInvalidBreak, "session %d already has %d breaks", req.SessionIndex, MaxBreaksPerSession)
	}
	loc := s.Clock.Location()
	for _, b := range existing {
		if overlaps(b, newBreak, req.Date, loc) {
			return nil, booking.NewBookingError(booking.KindInvalidBreak, "break overlaps existing break %s", b.ID)
		}
	}

	merged := mergeAdjacent(append(append([]models.BreakPeriod{}, doctor.BreaksOn(req.Date)...), *newBreak), req.Date, loc, doctor.StepMinutes())

	err = s.runTxn(ctx, func(tx schedulerRepo.BookingTxn) error {
		appts, err := tx.ListDayAppointments(req.ClinicID, req.DoctorID, req.Date)
		if err != nil {
			return err
		}
		now := s.Clock.Now()
		for _, idx := range req.SlotIndexes {
			slot := ds.Slots[idx]
			block := &models.Appointment{
				ID:               uuid.New().String(),
				ClinicID:         req.ClinicID,
				DoctorID:         req.DoctorID,
				DoctorName:       doctor.Name,
				PatientID:        models.BreakBlockPatientID,
				Date:             req.Date,
				Time:             utils.FormatTime(slot.Time),
				BookedVia:        models.BookedViaBreakBlock,
				Status:           models.StatusCompleted,
				SlotIndex:        idx,
				SessionIndex:     req.SessionIndex,
				CancelledByBreak: true,
				BreakID:          newBreak.ID,
				CreatedAt:        now,
			}
			if err := tx.InsertAppointment(block); err != nil {
				return err
			}
		}
		if err := tx.SetDoctorBreaks(req.DoctorID, req.Date, merged); err != nil {
			return err
		}
		// Gaps absorb a break for free; only slots already holding an active
		// appointment push the session end out.
		ext := extensionFor(w, sessionDisplacedSlots(merged, appts, req.SessionIndex, ds), doctor.StepMinutes())
		return tx.SetDoctorExtension(req.DoctorID, req.Date, req.SessionIndex, ext)
	})
	if err != nil {
		return nil, err
	}

	utils.GetLogger().Info("break added",
		zap.String("doctor", req.DoctorID),
		zap.String("date", req.Date),
		zap.Int("session", req.SessionIndex),
		zap.String("break", newBreak.ID),
		zap.Int("slots", len(req.SlotIndexes)))

	if _, err := s.Booking.RebalanceWalkIns(ctx, req.ClinicID, req.DoctorID, req.Date); err != nil {
		utils.GetLogger().Warn("rebalance after break add failed", zap.Error(err))
	}
	return newBreak, nil
}

// RemoveBreak deletes the break's blocks, recomputes the extension from the
// remaining breaks and rebalances.
func (s *DefaultBreakService) RemoveBreak(ctx context.Context, clinicID, doctorID, date, breakID string) error {
	doctor, err := s.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return booking.WrapBookingError(booking.KindNotAvailable, err, "doctor not found")
	}
	var removed *models.BreakPeriod
	var remaining []models.BreakPeriod
	for _, b := range doctor.BreaksOn(date) {
		if b.ID == breakID {
			bb := b
			removed = &bb
			continue
		}
		remaining = append(remaining, b)
	}
	if removed == nil {
		return booking.NewBookingError(booking.KindInvalidBreak, "break %s not found on %s", breakID, date)
	}
	ds, err := booking.BuildDaySchedule(doctor, date, s.Clock.Location())
	if err != nil {
		return err
	}
	w, ok := ds.Session(removed.SessionIndex)
	if !ok {
		return booking.NewBookingError(booking.KindInvalidBreak, "session %d does not exist on %s", removed.SessionIndex, date)
	}

	err = s.runTxn(ctx, func(tx schedulerRepo.BookingTxn) error {
		appts, err := tx.ListDayAppointments(clinicID, doctorID, date)
		if err != nil {
			return err
		}
		for i := range appts {
			if appts[i].IsBreakBlock() && appts[i].BreakID == breakID {
				if err := tx.DeleteAppointment(appts[i].ID); err != nil {
					return err
				}
			}
		}
		if err := tx.SetDoctorBreaks(doctorID, date, remaining); err != nil {
			return err
		}
		ext := extensionFor(w, sessionDisplacedSlots(remaining, appts, removed.SessionIndex, ds), doctor.StepMinutes())
		return tx.SetDoctorExtension(doctorID, date, removed.SessionIndex, ext)
	})
	if err != nil {
		return err
	}

	utils.GetLogger().Info("break removed",
		zap.String("doctor", doctorID),
		zap.String("date", date),
		zap.String("break", breakID))

	if _, err := s.Booking.RebalanceWalkIns(ctx, clinicID, doctorID, date); err != nil {
		utils.GetLogger().Warn("rebalance after break removal failed", zap.Error(err))
	}
	return nil
}

func (s *DefaultBreakService) runTxn(ctx context.Context, fn func(tx schedulerRepo.BookingTxn) error) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.Scheduler.RunBookingTxn(ctx, fn); err != nil {
		return booking.WrapBookingError(booking.KindUnknown, err, "break transaction failed")
	}
	return nil
}

// ApplyBreakOffsets shifts a display time past every break interval that has
// already started by the accumulated time. Used when rendering estimated
// consultation times over a broken-up session.
func ApplyBreakOffsets(original time.Time, intervals []models.BreakPeriod, date string, loc *time.Location) time.Time {
	sorted := append([]models.BreakPeriod{}, intervals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })
	t := original
	for _, bp := range sorted {
		start, err1 := utils.TimeOnDate(date, bp.StartTime, loc)
		end, err2 := utils.TimeOnDate(date, bp.EndTime, loc)
		if err1 != nil || err2 != nil {
			continue
		}
		if !start.After(t) {
			t = t.Add(end.Sub(start))
		}
	}
	return t
}

// buildBreakPeriod validates the slot list and shapes it into a period.
func buildBreakPeriod(ds *models.DaySchedule, w models.SessionWindow, slotIndexes []int, step int) (*models.BreakPeriod, error) {
	if len(slotIndexes) == 0 {
		return nil, booking.NewBookingError(booking.KindInvalidBreak, "a break must cover at least one slot")
	}
	idxs := append([]int{}, slotIndexes...)
	sort.Ints(idxs)
	for i, idx := range idxs {
		if !w.Contains(idx) {
			return nil, booking.NewBookingError(booking.KindInvalidBreak, "slot %d is outside session %d", idx, w.Index)
		}
		if i > 0 && idxs[i] != idxs[i-1]+1 {
			return nil, booking.NewBookingError(booking.KindInvalidBreak, "break slots must be contiguous")
		}
	}
	first := ds.Slots[idxs[0]]
	last := ds.Slots[idxs[len(idxs)-1]]
	slotTimes := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		slotTimes = append(slotTimes, ds.Slots[idx].Time.Format(time.RFC3339))
	}
	return &models.BreakPeriod{
		ID:              uuid.New().String(),
		SessionIndex:    w.Index,
		StartTime:       utils.FormatTime(first.Time),
		EndTime:         utils.FormatTime(last.Time.Add(time.Duration(step) * time.Minute)),
		DurationMinutes: len(idxs) * step,
		SlotTimes:       slotTimes,
	}, nil
}

func sessionBreaks(all []models.BreakPeriod, sessionIndex int) []models.BreakPeriod {
	var out []models.BreakPeriod
	for _, b := range all {
		if b.SessionIndex == sessionIndex {
			out = append(out, b)
		}
	}
	return out
}

func overlaps(a models.BreakPeriod, b *models.BreakPeriod, date string, loc *time.Location) bool {
	if a.SessionIndex != b.SessionIndex {
		return false
	}
	aStart, e1 := utils.TimeOnDate(date, a.StartTime, loc)
	aEnd, e2 := utils.TimeOnDate(date, a.EndTime, loc)
	bStart, e3 := utils.TimeOnDate(date, b.StartTime, loc)
	bEnd, e4 := utils.TimeOnDate(date, b.EndTime, loc)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// mergeAdjacent joins back-to-back breaks of the same session into one.
func mergeAdjacent(all []models.BreakPeriod, date string, loc *time.Location, step int) []models.BreakPeriod {
	bySession := map[int][]models.BreakPeriod{}
	for _, b := range all {
		bySession[b.SessionIndex] = append(bySession[b.SessionIndex], b)
	}
	var out []models.BreakPeriod
	for _, group := range bySession {
		sort.Slice(group, func(i, j int) bool { return lessClock(group[i].StartTime, group[j].StartTime, date, loc) })
		for i := 0; i < len(group); i++ {
			cur := group[i]
			for i+1 < len(group) && group[i+1].StartTime == cur.EndTime {
				next := group[i+1]
				cur.EndTime = next.EndTime
				cur.DurationMinutes += next.DurationMinutes
				cur.SlotTimes = append(cur.SlotTimes, next.SlotTimes...)
				i++
			}
			out = append(out, cur)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SessionIndex != out[j].SessionIndex {
			return out[i].SessionIndex < out[j].SessionIndex
		}
		return lessClock(out[i].StartTime, out[j].StartTime, date, loc)
	})
	return out
}

func lessClock(a, b, date string, loc *time.Location) bool {
	ta, e1 := utils.TimeOnDate(date, a, loc)
	tb, e2 := utils.TimeOnDate(date, b, loc)
	if e1 != nil || e2 != nil {
		return a < b
	}
	return ta.Before(tb)
}

// activeSlotSet marks slots held by live patient rows (break blocks and
// terminal rows excluded).
func activeSlotSet(appts []models.Appointment) map[int]bool {
	out := map[int]bool{}
	for i := range appts {
		a := &appts[i]
		if a.IsBreakBlock() || !a.IsActive() {
			continue
		}
		out[a.OccupancyIndex()] = true
	}
	return out
}

// sessionDisplacedSlots counts, across all of a session's breaks, the break
// slots that coincide with an active appointment. The extension is always
// recomputed from scratch so removals shrink it again.
func sessionDisplacedSlots(breaksAll []models.BreakPeriod, appts []models.Appointment, sessionIndex int, ds *models.DaySchedule) int {
	occupied := activeSlotSet(appts)
	covered := map[int]bool{}
	for _, bp := range sessionBreaks(breaksAll, sessionIndex) {
		for _, iso := range bp.SlotTimes {
			t, err := time.Parse(time.RFC3339, iso)
			if err != nil {
				continue
			}
			for _, slot := range ds.SessionSlots(sessionIndex) {
				if slot.Time.Equal(t) {
					covered[slot.AbsoluteIndex] = true
				}
			}
		}
	}
	n := 0
	for idx := range covered {
		if occupied[idx] {
			n++
		}
	}
	return n
}

// extensionFor stretches the session's original end by the displaced time.
// Stored even when zero so reads are uniform.
func extensionFor(w models.SessionWindow, displacedSlots, step int) models.SessionExtension {
	newEnd := w.OriginalEnd.Add(time.Duration(displacedSlots*step) * time.Minute)
	return models.SessionExtension{NewEndTime: utils.FormatTime(newEnd)}
}
