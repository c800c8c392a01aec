package notification

import (
	"context"

	appointmentRepo "clinq/database/repository/appointment"
	clinicRepo "clinq/database/repository/clinic"
	doctorRepo "clinq/database/repository/doctor"
	notifyRepo "clinq/database/repository/notify"
	patientRepo "clinq/database/repository/patient"
	"clinq/models"
	"clinq/utils"
)

// Dispatcher turns committed scheduler events into outbound messages. Every
// send returns a boolean internally; failures are logged, never propagated,
// and never retried here — the next lifecycle event re-sends naturally.
type Dispatcher interface {
	// Booking lifecycle events.
	AppointmentBooked(ctx context.Context, appt *models.Appointment, byStaff bool)
	ArrivalConfirmed(ctx context.Context, appt *models.Appointment)
	TokenCalled(ctx context.Context, appt *models.Appointment)
	AppointmentSkipped(ctx context.Context, appt *models.Appointment)
	AppointmentCancelled(ctx context.Context, appt *models.Appointment)
	ConsultationCompleted(ctx context.Context, appt *models.Appointment)
	ConsultationStarted(ctx context.Context, clinicID, doctorID, date string)
	BreakUpdated(ctx context.Context, clinicID, doctorID, date string, sessionIndex, durationMinutes int)
	DoctorRunningLate(ctx context.Context, clinicID, doctorID, date string, sessionIndex, delayMinutes int)

	// Batch windows (cron-driven).
	RunBatchReminders(ctx context.Context, window ReminderWindow) error
	RunFollowUpExpiry(ctx context.Context) error

	// Inbound webhook bookkeeping: reopens the 24-hour window.
	RecordInboundWhatsApp(ctx context.Context, phone, body string) error
}

// DefaultDispatcher is the production implementation.
type DefaultDispatcher struct {
	ClinicRepo  clinicRepo.ClinicRepository
	DoctorRepo  doctorRepo.DoctorRepository
	PatientRepo patientRepo.PatientRepository
	ApptRepo    appointmentRepo.AppointmentRepository
	NotifyRepo  notifyRepo.NotifyRepository
	Push        PushSender
	WhatsApp    WhatsAppSender
	Clock       utils.Clock

	settings settingsCache
}

// ReminderWindow selects which daily batch is running.
type ReminderWindow string

const (
	// WindowEvening covers [17:00, 19:00) and reminds tomorrow's patients.
	WindowEvening ReminderWindow = "evening"
	// WindowMorning covers [07:00, 09:00) and reminds today's patients.
	WindowMorning ReminderWindow = "morning"
)
