package booking

import (
	"time"

	"clinq/models"
	"clinq/utils"
)

const (
	// CutOffLeadMinutes is subtracted from the slot time to get cutOffTime.
	CutOffLeadMinutes = 15
	// NoShowGraceMinutes is added to the slot time to get noShowTime.
	NoShowGraceMinutes = 15
	// WalkInLeadMinutes is how early before session start walk-ins open.
	WalkInLeadMinutes = 30
)

// BuildDaySchedule expands the doctor's weekly availability into the ordered
// physical slots for one date. Extensions stored for the date stretch a
// session's end when they are later than the weekly end. Every D-minute step
// is emitted, break-covered ones included; breaks appear to the scheduler as
// BreakBlock occupants, not as missing slots, so absolute indexing stays
// dense across sessions.
func BuildDaySchedule(doctor *models.Doctor, dateISO string, loc *time.Location) (*models.DaySchedule, error) {
	day, err := utils.ParseISODate(dateISO, loc)
	if err != nil {
		return nil, WrapBookingError(KindInvalidInput, err, "bad date")
	}
	weekday := utils.WeekdayName(day)
	sessions := doctor.SessionsOn(weekday)
	if len(sessions) == 0 {
		return nil, NewBookingError(KindNotAvailable, "doctor %s has no availability on %s", doctor.Name, weekday)
	}

	step := doctor.StepMinutes()
	ds := &models.DaySchedule{Date: dateISO, Step: step}
	abs := 0
	for i, sess := range sessions {
		start, err := utils.TimeOnDate(dateISO, sess.From, loc)
		if err != nil {
			return nil, WrapBookingError(KindInvalidInput, err, "bad session start")
		}
		end, err := utils.TimeOnDate(dateISO, sess.To, loc)
		if err != nil {
			return nil, WrapBookingError(KindInvalidInput, err, "bad session end")
		}
		effectiveEnd := end
		if ext, ok := doctor.ExtensionFor(dateISO, i); ok {
			if t, err := utils.TimeOnDate(dateISO, ext.NewEndTime, loc); err == nil && t.After(end) {
				effectiveEnd = t
			}
		}

		w := models.SessionWindow{Index: i, Start: start, End: effectiveEnd, OriginalEnd: end, FirstSlot: abs}
		for t := start; t.Before(effectiveEnd); t = t.Add(time.Duration(step) * time.Minute) {
			ds.Slots = append(ds.Slots, models.PhysicalSlot{AbsoluteIndex: abs, SessionIndex: i, Time: t})
			abs++
		}
		w.SlotCount = abs - w.FirstSlot
		ds.Sessions = append(ds.Sessions, w)
	}
	return ds, nil
}

// ActiveSession finds the one session a walk-in may book into right now:
// the first session with now <= end and now >= start - 30 min.
func ActiveSession(ds *models.DaySchedule, now time.Time) (models.SessionWindow, bool) {
	for _, w := range ds.Sessions {
		if !now.After(w.End) && !now.Before(w.Start.Add(-WalkInLeadMinutes*time.Minute)) {
			return w, true
		}
	}
	return models.SessionWindow{}, false
}

// ForceBookSession picks the session a force-booked walk-in falls into when
// none is active: the next one to start, else the day's last session.
func ForceBookSession(ds *models.DaySchedule, now time.Time) (models.SessionWindow, bool) {
	if len(ds.Sessions) == 0 {
		return models.SessionWindow{}, false
	}
	for _, w := range ds.Sessions {
		if w.Start.After(now) {
			return w, true
		}
	}
	return ds.Sessions[len(ds.Sessions)-1], true
}

// TokenTimes derives the stored cut-off and no-show strings from a slot time.
func TokenTimes(slotTime time.Time) (cutOff, noShow string) {
	return utils.FormatTime(slotTime.Add(-CutOffLeadMinutes * time.Minute)),
		utils.FormatTime(slotTime.Add(NoShowGraceMinutes * time.Minute))
}
