package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Reservation statuses.
const (
	ReservationReserved = "reserved"
	ReservationBooked   = "booked"
)

// ReservationStaleAfter is how long a reservation may sit in "reserved"
// before any later transaction is allowed to reclaim its slot.
const ReservationStaleAfter = 30 * time.Second

// SlotReservation is the single document two concurrent bookers race on.
// Its id is deterministic per (clinic, doctor, date, slot), so the store's
// unique-id guarantee decides the winner.
type SlotReservation struct {
	ID            string    `bson:"_id" json:"id"`
	ClinicID      string    `bson:"clinicId" json:"clinicId"`
	DoctorID      string    `bson:"doctorId" json:"doctorId"`
	Date          string    `bson:"date" json:"date"`
	SlotIndex     int       `bson:"slotIndex" json:"slotIndex"`
	ReservedAt    time.Time `bson:"reservedAt" json:"reservedAt"`
	ReservedBy    string    `bson:"reservedBy" json:"reservedBy"`
	Status        string    `bson:"status" json:"status"` // reserved or booked
	AppointmentID string    `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
}

// StaleAt reports whether the reservation can be reclaimed at the given time.
// Booked reservations never go stale.
func (r *SlotReservation) StaleAt(now time.Time) bool {
	if r.Status == ReservationBooked {
		return false
	}
	return now.Sub(r.ReservedAt) > ReservationStaleAfter
}

// ReservationDocID builds the deterministic reservation id:
// clinicId_doctorName_date_slot_{idx}, restricted to [A-Za-z0-9_].
func ReservationDocID(clinicID, doctorName, date string, slotIndex int) string {
	return SanitizeDocID(fmt.Sprintf("%s_%s_%s_slot_%d", clinicID, doctorName, date, slotIndex))
}

// SanitizeDocID replaces whitespace with underscores and drops every rune
// outside [A-Za-z0-9_]. Store ids must stay path-safe.
func SanitizeDocID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
