package models

import (
	"strconv"
	"strings"
	"time"
)

// Appointment statuses.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusSkipped   = "Skipped"
	StatusCompleted = "Completed"
	StatusNoShow    = "No-show"
	StatusCancelled = "Cancelled"
)

// Booking channels.
const (
	BookedViaAdvance    = "Advance"
	BookedViaWalkIn     = "Walk-in"
	BookedViaBreakBlock = "BreakBlock"
)

// BreakBlockPatientID marks the dummy rows that occupy break-covered slots.
const BreakBlockPatientID = "dummy-break-patient"

// OverflowBase is the band added to slot indices that would otherwise collide
// with a later session's physical slots. Rows in the band belong to the
// session recorded on them; subtract the base to recover the occupancy index.
const OverflowBase = 10000

type Appointment struct {
	ID                  string    `bson:"_id" json:"id"`
	ClinicID            string    `bson:"clinicId" json:"clinicId"`
	DoctorID            string    `bson:"doctorId" json:"doctorId"`
	DoctorName          string    `bson:"doctorName" json:"doctorName"`
	PatientID           string    `bson:"patientId" json:"patientId"`
	PatientName         string    `bson:"patientName,omitempty" json:"patientName,omitempty"`
	PatientPhone        string    `bson:"patientPhone,omitempty" json:"patientPhone,omitempty"`
	Date                string    `bson:"date" json:"date"` // ISO, e.g. "2026-01-04"
	Time                string    `bson:"time" json:"time"` // "hh:mm AM/PM" slot start
	ArriveByTime        string    `bson:"arriveByTime,omitempty" json:"arriveByTime,omitempty"`
	CutOffTime          string    `bson:"cutOffTime,omitempty" json:"cutOffTime,omitempty"`   // slot time - 15 min
	NoShowTime          string    `bson:"noShowTime,omitempty" json:"noShowTime,omitempty"`   // slot time + 15 min
	BookedVia           string    `bson:"bookedVia" json:"bookedVia"`                         // Advance, Walk-in or BreakBlock
	Status              string    `bson:"status" json:"status"`
	SlotIndex           int       `bson:"slotIndex" json:"slotIndex"` // may sit past the physical slots, see OverflowBase
	SessionIndex        int       `bson:"sessionIndex" json:"sessionIndex"`
	NumericToken        int       `bson:"numericToken" json:"numericToken"`
	TokenNumber         string    `bson:"tokenNumber" json:"tokenNumber"`
	ClassicTokenNumber  string    `bson:"classicTokenNumber,omitempty" json:"classicTokenNumber,omitempty"`
	CancelledByBreak    bool      `bson:"cancelledByBreak,omitempty" json:"cancelledByBreak,omitempty"`
	IsInBuffer          bool      `bson:"isInBuffer,omitempty" json:"isInBuffer,omitempty"`
	IsForceBooked       bool      `bson:"isForceBooked,omitempty" json:"isForceBooked,omitempty"`
	BreakID             string    `bson:"breakId,omitempty" json:"breakId,omitempty"` // set on BreakBlock rows
	BookedNotified      bool      `bson:"bookedNotified,omitempty" json:"bookedNotified,omitempty"`
	ReminderEveningSent bool      `bson:"reminderEveningSent,omitempty" json:"reminderEveningSent,omitempty"`
	ReminderMorningSent bool      `bson:"reminderMorningSent,omitempty" json:"reminderMorningSent,omitempty"`
	CreatedAt           time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// IsTerminal reports whether no further status transition is allowed.
func (a *Appointment) IsTerminal() bool {
	switch a.Status {
	case StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the row still claims a queue position.
func (a *Appointment) IsActive() bool {
	switch a.Status {
	case StatusPending, StatusConfirmed, StatusSkipped:
		return true
	}
	return false
}

// IsBreakBlock reports whether the row is a dummy break occupant.
func (a *Appointment) IsBreakBlock() bool {
	return a.BookedVia == BookedViaBreakBlock || a.PatientID == BreakBlockPatientID
}

// IsWalkIn reports whether the row was booked on arrival.
func (a *Appointment) IsWalkIn() bool {
	return a.BookedVia == BookedViaWalkIn
}

// OccupancyIndex strips the overflow band so the row can be placed on the
// day's occupancy array.
func (a *Appointment) OccupancyIndex() int {
	if a.SlotIndex >= OverflowBase {
		return a.SlotIndex - OverflowBase
	}
	return a.SlotIndex
}

// ClassicOrdinal parses the stored classic token as a number for queue
// ordering. Rows without one sort last.
func (a *Appointment) ClassicOrdinal() int {
	s := strings.TrimSpace(a.ClassicTokenNumber)
	if s == "" {
		return int(^uint(0) >> 1)
	}
	n, err := strconv.Atoi(strings.TrimLeft(s, "0"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// AppointmentUpdate is one write produced by a reschedule: the fields that
// change when a row is shifted to a new slot.
type AppointmentUpdate struct {
	AppointmentID string `json:"appointmentId"`
	SlotIndex     int    `json:"slotIndex"`
	SessionIndex  int    `json:"sessionIndex"`
	Time          string `json:"time"`
	ArriveByTime  string `json:"arriveByTime,omitempty"`
	CutOffTime    string `json:"cutOffTime,omitempty"`
	NoShowTime    string `json:"noShowTime,omitempty"`
}
