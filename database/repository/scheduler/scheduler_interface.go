package schedulerRepo

import (
	"context"
	"errors"
	"time"

	"clinq/models"
)

// ErrTxnConflict marks a retryable transaction failure: another writer
// committed to a document this transaction read, or claimed the same
// reservation id first.
var ErrTxnConflict = errors.New("booking transaction conflict")

// ErrPermission is surfaced when the store denies access.
var ErrPermission = errors.New("store permission denied")

// SchedulerRepository owns every mutation of appointments, reservations and
// counters. All writes happen inside RunBookingTxn so concurrent bookers
// serialise on the documents they touch.
type SchedulerRepository interface {
	// RunBookingTxn executes fn under a snapshot transaction. Reads see the
	// snapshot; writes land atomically at commit. A conflicting concurrent
	// commit aborts fn's writes and surfaces ErrTxnConflict, after which the
	// caller may retry fn against fresh state.
	RunBookingTxn(ctx context.Context, fn func(tx BookingTxn) error) error

	// CleanupStaleReservations removes reservations still in "reserved"
	// older than cutoff. Maintenance path for crashed writers.
	CleanupStaleReservations(ctx context.Context, cutoff time.Time) (int64, error)

	// CounterValue is the read-side counter lookup (consultation counts for
	// the queue view). 0 when the document does not exist.
	CounterValue(ctx context.Context, id string) (int64, error)
}

// BookingTxn is the transactional view handed to RunBookingTxn callbacks.
type BookingTxn interface {
	GetReservation(id string) (*models.SlotReservation, error) // nil when absent
	PutReservation(res *models.SlotReservation) error          // insert; a duplicate id aborts the txn
	DeleteReservation(id string) error
	ListDayReservations(clinicID, doctorID, date string) ([]models.SlotReservation, error)

	GetCounter(id string) (int64, error) // 0 when absent
	SetCounter(id string, value int64) error

	ListDayAppointments(clinicID, doctorID, date string) ([]models.Appointment, error)
	InsertAppointment(appt *models.Appointment) error
	ApplySlotUpdate(upd models.AppointmentUpdate) error
	SetAppointmentStatus(id, status string) error
	SetInBuffer(id string, inBuffer bool) error
	DeleteAppointment(id string) error

	SetDoctorBreaks(doctorID, date string, breaks []models.BreakPeriod) error
	SetDoctorExtension(doctorID, date string, sessionIndex int, ext models.SessionExtension) error

	RecordVisit(patientID string, visit models.PatientVisit) error
}
