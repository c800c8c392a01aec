package models

import "time"

// PhysicalSlot is one consultation step derived from a doctor's availability.
// Slots are never stored; they are rebuilt from the weekly schedule plus any
// extension recorded for the date. AbsoluteIndex is dense across the whole
// day, so session 2 continues where session 1 stopped.
type PhysicalSlot struct {
	AbsoluteIndex int       `json:"absoluteIndex"`
	SessionIndex  int       `json:"sessionIndex"`
	Time          time.Time `json:"time"`
}

// SessionWindow is a session resolved onto a concrete date, with the
// extension already applied to End.
type SessionWindow struct {
	Index       int       `json:"index"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`         // effective end (extension included)
	OriginalEnd time.Time `json:"originalEnd"` // the weekly schedule's end
	FirstSlot   int       `json:"firstSlot"`   // absolute index of the first slot
	SlotCount   int       `json:"slotCount"`
}

// Contains reports whether an absolute slot index is one of this session's
// physical slots.
func (w SessionWindow) Contains(absoluteIndex int) bool {
	return absoluteIndex >= w.FirstSlot && absoluteIndex < w.FirstSlot+w.SlotCount
}

// DaySchedule bundles the derived slot material for one (doctor, date).
type DaySchedule struct {
	Date     string          `json:"date"` // ISO
	Step     int             `json:"step"` // D minutes
	Slots    []PhysicalSlot  `json:"slots"`
	Sessions []SessionWindow `json:"sessions"`
}

// SessionOf returns the window owning an absolute index, false for overflow
// indices past the day's physical slots.
func (ds *DaySchedule) SessionOf(absoluteIndex int) (SessionWindow, bool) {
	for _, w := range ds.Sessions {
		if w.Contains(absoluteIndex) {
			return w, true
		}
	}
	return SessionWindow{}, false
}

// Session returns the window at sessionIndex, false when out of range.
func (ds *DaySchedule) Session(sessionIndex int) (SessionWindow, bool) {
	if sessionIndex < 0 || sessionIndex >= len(ds.Sessions) {
		return SessionWindow{}, false
	}
	return ds.Sessions[sessionIndex], true
}

// SessionSlots returns the physical slots belonging to one session,
// absolute indices preserved.
func (ds *DaySchedule) SessionSlots(sessionIndex int) []PhysicalSlot {
	w, ok := ds.Session(sessionIndex)
	if !ok {
		return nil
	}
	return ds.Slots[w.FirstSlot : w.FirstSlot+w.SlotCount]
}

// SlotTime returns the start time for an absolute index, extrapolating past
// the last physical slot of the session in D-minute steps for overflow.
func (ds *DaySchedule) SlotTime(absoluteIndex int) (time.Time, bool) {
	if absoluteIndex < 0 {
		return time.Time{}, false
	}
	if absoluteIndex < len(ds.Slots) {
		return ds.Slots[absoluteIndex].Time, true
	}
	if len(ds.Slots) == 0 {
		return time.Time{}, false
	}
	last := ds.Slots[len(ds.Slots)-1]
	over := absoluteIndex - last.AbsoluteIndex
	return last.Time.Add(time.Duration(over*ds.Step) * time.Minute), true
}
