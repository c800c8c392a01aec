package models

// BookAdvanceRequest books a slot ahead of the day, optionally pinned near a
// preferred slot.
type BookAdvanceRequest struct {
	ClinicID           string `json:"clinicId" binding:"required"`
	DoctorID           string `json:"doctorId" binding:"required"`
	Date               string `json:"date" binding:"required"` // ISO
	PatientID          string `json:"patientId" binding:"required"`
	PreferredSlotIndex *int   `json:"preferredSlotIndex,omitempty"`
	BookedByStaff      bool   `json:"bookedByStaff,omitempty"`
}

// BookWalkInRequest books a same-day token into the active session.
type BookWalkInRequest struct {
	ClinicID           string `json:"clinicId" binding:"required"`
	DoctorID           string `json:"doctorId" binding:"required"`
	PatientID          string `json:"patientId" binding:"required"`
	ForceBook          bool   `json:"forceBook,omitempty"`
	TargetSessionIndex *int   `json:"targetSessionIndex,omitempty"` // operator override when force-booking
	BookedByStaff      bool   `json:"bookedByStaff,omitempty"`
}

// BookingResult is what both booking paths hand back to callers.
type BookingResult struct {
	Appointment   Appointment `json:"appointment"`
	SlotIndex     int         `json:"slotIndex"`
	SessionIndex  int         `json:"sessionIndex"`
	Time          string      `json:"time"`
	TokenNumber   string      `json:"tokenNumber"`
	PatientsAhead int         `json:"patientsAhead,omitempty"` // walk-ins only
	ForceBooked   bool        `json:"forceBooked,omitempty"`
	Shifts        []AppointmentUpdate `json:"shifts,omitempty"`
}

// WalkInPlacement is the dry-run view of where a walk-in would land,
// rendered by the patient app before the user confirms.
type WalkInPlacement struct {
	PreviewID        string              `json:"previewId,omitempty"`
	SlotIndex        int                 `json:"slotIndex"`
	SessionIndex     int                 `json:"sessionIndex"`
	EstimatedTime    string              `json:"estimatedTime"`
	PatientsAhead    int                 `json:"patientsAhead"`
	Overflow         bool                `json:"overflow"`
	AdvanceShifts    []AppointmentUpdate `json:"advanceShifts,omitempty"`
	WalkInAssignments map[string]int     `json:"walkInAssignments,omitempty"` // existing walk-in id -> new slot
}

// RebalanceResult reports what a queue tightening changed.
type RebalanceResult struct {
	Updated []AppointmentUpdate `json:"updated"`
}
