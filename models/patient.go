package models

import "time"

type Patient struct {
	ID           string         `bson:"_id" json:"id"`
	Name         string         `bson:"name" json:"name"`
	Phone        string         `bson:"phone" json:"phone"`
	FCMToken     string         `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	Language     string         `bson:"language,omitempty" json:"language,omitempty"` // "en" or "ml"
	ClinicIDs    []string       `bson:"clinicIds,omitempty" json:"clinicIds,omitempty"`
	TotalVisits  int            `bson:"totalVisits,omitempty" json:"totalVisits,omitempty"`
	VisitHistory []PatientVisit `bson:"visitHistory,omitempty" json:"visitHistory,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// PatientVisit is one appended history entry per successful booking.
type PatientVisit struct {
	AppointmentID string    `bson:"appointmentId" json:"appointmentId"`
	ClinicID      string    `bson:"clinicId" json:"clinicId"`
	DoctorID      string    `bson:"doctorId" json:"doctorId"`
	Date          string    `bson:"date" json:"date"`
	BookedVia     string    `bson:"bookedVia" json:"bookedVia"`
	RecordedAt    time.Time `bson:"recordedAt" json:"recordedAt"`
}
