package appointmentRepo

import (
	"context"

	"clinq/models"
)

// AppointmentRepository is the read-side view plus the notification
// bookkeeping flags. Slot and status mutations go through the scheduler
// repository's transaction.
type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	ListDay(ctx context.Context, clinicID, doctorID, date string) ([]models.Appointment, error)
	ListSession(ctx context.Context, clinicID, doctorID, date string, sessionIndex int) ([]models.Appointment, error)
	// ListByDateAndStatus spans all clinics; the batch reminder worker uses it.
	ListByDateAndStatus(ctx context.Context, date string, statuses []string) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id, window string) error
	MarkBookedNotified(ctx context.Context, id string) error
}
