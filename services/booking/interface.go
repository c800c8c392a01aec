package booking

import (
	"context"

	"clinq/models"
)

// BookingService is the transactional allocator: every appointment write in
// the system goes through one of these operations.
type BookingService interface {
	BookAdvance(ctx context.Context, req models.BookAdvanceRequest) (*models.BookingResult, error)
	BookWalkIn(ctx context.Context, req models.BookWalkInRequest) (*models.BookingResult, error)
	PreviewWalkIn(ctx context.Context, req models.BookWalkInRequest) (*models.WalkInPlacement, error)
	RebalanceWalkIns(ctx context.Context, clinicID, doctorID, date string) (*models.RebalanceResult, error)

	// Staff-side lifecycle transitions.
	ConfirmArrival(ctx context.Context, appointmentID string) error
	MoveToBuffer(ctx context.Context, appointmentID string) error
	Skip(ctx context.Context, appointmentID string) error
	Complete(ctx context.Context, appointmentID string) error
	MarkNoShow(ctx context.Context, appointmentID string) error
	Cancel(ctx context.Context, appointmentID string) error
	SetConsultationStatus(ctx context.Context, doctorID, status string) error
}

// Notifier receives committed booking events. Sends always happen after the
// transaction; a failed send never rolls booking state back.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *models.Appointment, byStaff bool)
	ArrivalConfirmed(ctx context.Context, appt *models.Appointment)
	TokenCalled(ctx context.Context, appt *models.Appointment)
	AppointmentSkipped(ctx context.Context, appt *models.Appointment)
	AppointmentCancelled(ctx context.Context, appt *models.Appointment)
	ConsultationCompleted(ctx context.Context, appt *models.Appointment)
	ConsultationStarted(ctx context.Context, clinicID, doctorID, date string)
}
