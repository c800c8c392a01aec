package models

// Doctor consultation status values.
const (
	ConsultationIn  = "In"
	ConsultationOut = "Out"
)

// DefaultConsultationMinutes is the slot step used when a doctor has no explicit value.
const DefaultConsultationMinutes = 15

// Session is one consultation window on a weekday.
type Session struct {
	From string `bson:"from" json:"from"` // "hh:mm AM/PM", e.g. "10:00 AM"
	To   string `bson:"to" json:"to"`     // exclusive end, e.g. "01:00 PM"
}

// BreakPeriod is a doctor break inside one session on one date.
type BreakPeriod struct {
	ID              string   `bson:"id" json:"id"`
	SessionIndex    int      `bson:"sessionIndex" json:"sessionIndex"`
	StartTime       string   `bson:"startTime" json:"startTime"` // "hh:mm AM/PM"
	EndTime         string   `bson:"endTime" json:"endTime"`     // exclusive
	DurationMinutes int      `bson:"durationMinutes" json:"durationMinutes"`
	SlotTimes       []string `bson:"slotTimes,omitempty" json:"slotTimes,omitempty"` // RFC3339 starts of the covered slots
}

// SessionExtension holds the stretched end of one session on one date.
type SessionExtension struct {
	NewEndTime string `bson:"newEndTime" json:"newEndTime"` // "hh:mm AM/PM"
}

// AvailabilityExtension maps sessionIndex (as a string key) to its extension.
type AvailabilityExtension struct {
	Sessions map[string]SessionExtension `bson:"sessions" json:"sessions"`
}

type Doctor struct {
	ID                     string                           `bson:"_id" json:"id"`
	ClinicID               string                           `bson:"clinicId" json:"clinicId"`
	Name                   string                           `bson:"name" json:"name"`
	Phone                  string                           `bson:"phone,omitempty" json:"phone,omitempty"`
	WeeklyAvailability     map[string][]Session             `bson:"weeklyAvailability" json:"weeklyAvailability"` // keyed by weekday name ("Monday")
	ConsultationMinutes    int                              `bson:"consultationMinutes" json:"consultationMinutes"`
	BreakPeriods           map[string][]BreakPeriod         `bson:"breakPeriods,omitempty" json:"breakPeriods,omitempty"`                     // keyed by ISO date
	AvailabilityExtensions map[string]AvailabilityExtension `bson:"availabilityExtensions,omitempty" json:"availabilityExtensions,omitempty"` // keyed by ISO date
	ConsultationStatus     string                           `bson:"consultationStatus" json:"consultationStatus"` // "In" or "Out"
	FreeFollowUpDays       int                              `bson:"freeFollowUpDays,omitempty" json:"freeFollowUpDays,omitempty"`
}

// StepMinutes returns the consultation duration D used for slot stepping and
// wait estimates.
func (d *Doctor) StepMinutes() int {
	if d.ConsultationMinutes <= 0 {
		return DefaultConsultationMinutes
	}
	return d.ConsultationMinutes
}

// SessionsOn returns the sessions configured for a weekday name, nil when the
// doctor does not sit that day.
func (d *Doctor) SessionsOn(weekday string) []Session {
	if d.WeeklyAvailability == nil {
		return nil
	}
	return d.WeeklyAvailability[weekday]
}

// ExtensionFor returns the stored extension end for (date, sessionIndex), if any.
func (d *Doctor) ExtensionFor(date string, sessionIndex int) (SessionExtension, bool) {
	ext, ok := d.AvailabilityExtensions[date]
	if !ok || ext.Sessions == nil {
		return SessionExtension{}, false
	}
	se, ok := ext.Sessions[SessionKey(sessionIndex)]
	return se, ok
}

// BreaksOn returns the break periods recorded for a date.
func (d *Doctor) BreaksOn(date string) []BreakPeriod {
	if d.BreakPeriods == nil {
		return nil
	}
	return d.BreakPeriods[date]
}
