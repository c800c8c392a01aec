package notification

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinq/models"
	"clinq/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// followUpScanDays bounds how far back the expiry job looks for completed
// consultations. No doctor offers a longer free follow-up window than this.
const followUpScanDays = 30

// ActiveWindow reports which reminder batch window now falls into, if any.
// Bookings made inside a window get their reminder immediately instead of
// waiting for a batch that already ran.
func ActiveWindow(now time.Time) (ReminderWindow, bool) {
	switch h := now.Hour(); {
	case h >= 17 && h < 19:
		return WindowEvening, true
	case h >= 7 && h < 9:
		return WindowMorning, true
	}
	return "", false
}

// windowTargetDate is the appointment date a batch window reminds about.
func windowTargetDate(now time.Time, window ReminderWindow) string {
	if window == WindowEvening {
		return utils.FormatISODate(now.AddDate(0, 0, 1))
	}
	return utils.FormatISODate(now)
}

func (d *DefaultDispatcher) clinicMode(ctx context.Context, clinicID string) models.TokenMode {
	clinic, err := d.ClinicRepo.GetByID(ctx, clinicID)
	if err != nil || clinic == nil {
		return models.TokenModeAdvanced
	}
	return clinic.Mode()
}

// deliver routes one message through both channels, honouring the clinic's
// per-kind toggles. Failures are logged and swallowed.
func (d *DefaultDispatcher) deliver(ctx context.Context, clinicID string, patient *models.Patient, phone string, content messageContent) {
	setting := d.kindSetting(ctx, clinicID, content.Kind)

	if setting.PWAEnabled && patient != nil && patient.FCMToken != "" {
		d.Push.Send(ctx, models.PushMessage{
			UserID:   patient.ID,
			FCMToken: patient.FCMToken,
			Title:    content.Title,
			Body:     content.Body,
			Data:     content.Data,
			Language: patient.Language,
		})
	}

	if setting.WhatsAppEnabled && phone != "" {
		d.sendSmart(ctx, clinicID, phone, content)
	}
}

// sendSmart applies the 24-hour conversation rule: inside the window every
// message goes as free text; outside it only kinds marked AlwaysSend pay for
// a template, everything else is dropped.
func (d *DefaultDispatcher) sendSmart(ctx context.Context, clinicID, phone string, content messageContent) {
	logger := utils.GetLogger()
	session, err := d.NotifyRepo.GetWhatsAppSession(ctx, phone)
	if err != nil {
		logger.Warn("whatsapp session lookup failed", zap.String("phone", phone), zap.Error(err))
	}

	if session.WindowOpen(d.Clock.Now()) {
		d.WhatsApp.Send(ctx, models.WhatsAppMessage{
			To:               phone,
			ContentSid:       models.FreeTextSid,
			ContentVariables: map[string]string{"text": content.Body},
			Message:          content.Body,
		})
		return
	}

	if !content.AlwaysSend {
		logger.Debug("whatsapp window closed, dropping",
			zap.String("kind", content.Kind), zap.String("phone", phone))
		return
	}

	sent := d.WhatsApp.Send(ctx, models.WhatsAppMessage{
		To:               phone,
		ContentSid:       content.TemplateSid,
		ContentVariables: content.Vars,
	})
	if sent {
		ref := content.Data["appointmentId"]
		if err := d.NotifyRepo.LogCampaignSend(ctx, &models.CampaignSend{
			ID:       uuid.NewString(),
			Ref:      ref,
			Campaign: content.Kind,
			Medium:   "whatsapp",
			ClinicID: clinicID,
			Phone:    phone,
			SentAt:   d.Clock.Now(),
		}); err != nil {
			logger.Warn("campaign log write failed", zap.String("kind", content.Kind), zap.Error(err))
		}
	}
}

// resolvePatient loads the patient profile for an appointment. A nil patient
// with a non-empty phone still gets WhatsApp.
func (d *DefaultDispatcher) resolvePatient(ctx context.Context, appt *models.Appointment) (*models.Patient, string) {
	if appt.PatientID == "" || appt.PatientID == models.BreakBlockPatientID {
		return nil, ""
	}
	patient, err := d.PatientRepo.GetByID(ctx, appt.PatientID)
	if err != nil || patient == nil {
		return nil, appt.PatientPhone
	}
	phone := patient.Phone
	if phone == "" {
		phone = appt.PatientPhone
	}
	return patient, phone
}

func (d *DefaultDispatcher) AppointmentBooked(ctx context.Context, appt *models.Appointment, byStaff bool) {
	if appt == nil || appt.IsBreakBlock() {
		return
	}
	mode := d.clinicMode(ctx, appt.ClinicID)
	patient, phone := d.resolvePatient(ctx, appt)
	if patient == nil && phone == "" {
		return
	}
	loc := d.Clock.Location()

	d.deliver(ctx, appt.ClinicID, patient, phone, bookedContent(appt, mode, loc, byStaff))
	if err := d.ApptRepo.MarkBookedNotified(ctx, appt.ID); err != nil {
		utils.GetLogger().Warn("booked-notified flag write failed", zap.String("appointmentId", appt.ID), zap.Error(err))
	}

	// A booking made inside a reminder window would otherwise miss the batch
	// that already ran (or is running).
	now := d.Clock.Now()
	if window, ok := ActiveWindow(now); ok && appt.Date == windowTargetDate(now, window) {
		d.deliver(ctx, appt.ClinicID, patient, phone, reminderContent(appt, mode, loc, window))
		if err := d.ApptRepo.MarkReminderSent(ctx, appt.ID, string(window)); err != nil {
			utils.GetLogger().Warn("reminder flag write failed", zap.String("appointmentId", appt.ID), zap.Error(err))
		}
	}
}

func (d *DefaultDispatcher) ArrivalConfirmed(ctx context.Context, appt *models.Appointment) {
	d.sendSimple(ctx, appt, func(mode models.TokenMode) messageContent {
		return arrivalContent(appt, mode)
	})
}

func (d *DefaultDispatcher) TokenCalled(ctx context.Context, appt *models.Appointment) {
	d.sendSimple(ctx, appt, func(mode models.TokenMode) messageContent {
		return tokenCalledContent(appt, mode)
	})
}

func (d *DefaultDispatcher) AppointmentSkipped(ctx context.Context, appt *models.Appointment) {
	d.sendSimple(ctx, appt, func(mode models.TokenMode) messageContent {
		return skippedContent(appt, mode)
	})
}

func (d *DefaultDispatcher) AppointmentCancelled(ctx context.Context, appt *models.Appointment) {
	d.sendSimple(ctx, appt, func(mode models.TokenMode) messageContent {
		return cancelledContent(appt, mode)
	})
}

func (d *DefaultDispatcher) sendSimple(ctx context.Context, appt *models.Appointment, build func(models.TokenMode) messageContent) {
	if appt == nil || appt.IsBreakBlock() {
		return
	}
	mode := d.clinicMode(ctx, appt.ClinicID)
	patient, phone := d.resolvePatient(ctx, appt)
	if patient == nil && phone == "" {
		return
	}
	d.deliver(ctx, appt.ClinicID, patient, phone, build(mode))
}

// ConsultationCompleted thanks the finished patient and then nudges the next
// few in line with their live position.
func (d *DefaultDispatcher) ConsultationCompleted(ctx context.Context, appt *models.Appointment) {
	if appt == nil || appt.IsBreakBlock() {
		return
	}
	patient, phone := d.resolvePatient(ctx, appt)
	if patient != nil || phone != "" {
		d.deliver(ctx, appt.ClinicID, patient, phone, completedContent(appt))
	}
	d.peopleAheadFanOut(ctx, appt)
}

// peopleAheadFanOut messages the next three waiting patients after a
// completion, including any doctor break sitting before their turn.
func (d *DefaultDispatcher) peopleAheadFanOut(ctx context.Context, completed *models.Appointment) {
	logger := utils.GetLogger()
	mode := d.clinicMode(ctx, completed.ClinicID)
	upcoming, doctor, err := d.upcomingQueue(ctx, completed.ClinicID, completed.DoctorID, completed.Date, mode)
	if err != nil {
		logger.Warn("people-ahead fan-out skipped", zap.Error(err))
		return
	}

	now := d.Clock.Now()
	for i, next := range upcoming {
		if i >= 3 {
			break
		}
		patient, phone := d.resolvePatient(ctx, &upcoming[i])
		if patient == nil && phone == "" {
			continue
		}
		breakMin := d.breakMinutesBefore(doctor, &next, now)
		d.deliver(ctx, next.ClinicID, patient, phone, peopleAheadContent(&upcoming[i], mode, i, breakMin))
	}
}

// ConsultationStarted tells every waiting patient their position and a rough
// time estimate once the doctor flips to In.
func (d *DefaultDispatcher) ConsultationStarted(ctx context.Context, clinicID, doctorID, date string) {
	logger := utils.GetLogger()
	mode := d.clinicMode(ctx, clinicID)
	upcoming, doctor, err := d.upcomingQueue(ctx, clinicID, doctorID, date, mode)
	if err != nil {
		logger.Warn("consultation-started fan-out skipped", zap.Error(err))
		return
	}

	now := d.Clock.Now()
	step := time.Duration(doctor.StepMinutes()) * time.Minute
	for i := range upcoming {
		patient, phone := d.resolvePatient(ctx, &upcoming[i])
		if patient == nil && phone == "" {
			continue
		}
		estimated := utils.FormatTime(now.Add(time.Duration(i) * step))
		d.deliver(ctx, clinicID, patient, phone, consultationStartedContent(&upcoming[i], mode, i, estimated))
	}
}

// upcomingQueue lists the day's active, non-buffered patients in queue order.
func (d *DefaultDispatcher) upcomingQueue(ctx context.Context, clinicID, doctorID, date string, mode models.TokenMode) ([]models.Appointment, *models.Doctor, error) {
	doctor, err := d.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("load doctor %s: %w", doctorID, err)
	}
	appts, err := d.ApptRepo.ListDay(ctx, clinicID, doctorID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list day appointments: %w", err)
	}

	var upcoming []models.Appointment
	for _, a := range appts {
		if a.IsBreakBlock() || !a.IsActive() || a.IsInBuffer {
			continue
		}
		upcoming = append(upcoming, a)
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return mode.Less(&upcoming[i], &upcoming[j])
	})
	return upcoming, doctor, nil
}

// breakMinutesBefore sums the doctor's breaks that start between now and the
// patient's slot time.
func (d *DefaultDispatcher) breakMinutesBefore(doctor *models.Doctor, appt *models.Appointment, now time.Time) int {
	loc := d.Clock.Location()
	slotAt, err := utils.TimeOnDate(appt.Date, appt.Time, loc)
	if err != nil {
		return 0
	}
	total := 0
	for _, br := range doctor.BreaksOn(appt.Date) {
		start, err := utils.TimeOnDate(appt.Date, br.StartTime, loc)
		if err != nil {
			continue
		}
		if !start.Before(now) && start.Before(slotAt) {
			total += br.DurationMinutes
		}
	}
	return total
}

// BreakUpdated notifies the affected session's waiting patients that their
// reporting time moved.
func (d *DefaultDispatcher) BreakUpdated(ctx context.Context, clinicID, doctorID, date string, sessionIndex, durationMinutes int) {
	d.sessionFanOut(ctx, clinicID, doctorID, date, sessionIndex, func(doctorName string) messageContent {
		return breakUpdateContent(doctorName, durationMinutes)
	})
}

// DoctorRunningLate tells a session's waiting patients about the current delay.
func (d *DefaultDispatcher) DoctorRunningLate(ctx context.Context, clinicID, doctorID, date string, sessionIndex, delayMinutes int) {
	d.sessionFanOut(ctx, clinicID, doctorID, date, sessionIndex, func(doctorName string) messageContent {
		return runningLateContent(doctorName, delayMinutes)
	})
}

func (d *DefaultDispatcher) sessionFanOut(ctx context.Context, clinicID, doctorID, date string, sessionIndex int, build func(doctorName string) messageContent) {
	logger := utils.GetLogger()
	doctor, err := d.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		logger.Warn("session fan-out skipped", zap.String("doctorId", doctorID), zap.Error(err))
		return
	}
	appts, err := d.ApptRepo.ListSession(ctx, clinicID, doctorID, date, sessionIndex)
	if err != nil {
		logger.Warn("session fan-out skipped", zap.String("doctorId", doctorID), zap.Error(err))
		return
	}
	for i := range appts {
		a := &appts[i]
		if a.IsBreakBlock() || !a.IsActive() {
			continue
		}
		patient, phone := d.resolvePatient(ctx, a)
		if patient == nil && phone == "" {
			continue
		}
		d.deliver(ctx, clinicID, patient, phone, build(doctor.Name))
	}
}

// RunBatchReminders sends the daily reminder batch for one window. Each row
// carries an at-most-once flag per window, flipped after a successful pass.
func (d *DefaultDispatcher) RunBatchReminders(ctx context.Context, window ReminderWindow) error {
	logger := utils.GetLogger()
	now := d.Clock.Now()
	target := windowTargetDate(now, window)

	appts, err := d.ApptRepo.ListByDateAndStatus(ctx, target, []string{models.StatusPending, models.StatusConfirmed})
	if err != nil {
		return fmt.Errorf("list reminder candidates for %s: %w", target, err)
	}

	modes := map[string]models.TokenMode{}
	loc := d.Clock.Location()
	sent := 0
	for i := range appts {
		a := &appts[i]
		if a.IsBreakBlock() {
			continue
		}
		if window == WindowEvening && a.ReminderEveningSent {
			continue
		}
		if window == WindowMorning && a.ReminderMorningSent {
			continue
		}
		mode, ok := modes[a.ClinicID]
		if !ok {
			mode = d.clinicMode(ctx, a.ClinicID)
			modes[a.ClinicID] = mode
		}
		patient, phone := d.resolvePatient(ctx, a)
		if patient == nil && phone == "" {
			continue
		}
		d.deliver(ctx, a.ClinicID, patient, phone, reminderContent(a, mode, loc, window))
		if err := d.ApptRepo.MarkReminderSent(ctx, a.ID, string(window)); err != nil {
			logger.Warn("reminder flag write failed", zap.String("appointmentId", a.ID), zap.Error(err))
			continue
		}
		sent++
	}

	logger.Info("reminder batch finished",
		zap.String("window", string(window)),
		zap.String("date", target),
		zap.Int("sent", sent))
	return nil
}

// RunFollowUpExpiry scans recent completed consultations and nudges patients
// whose free follow-up window closes in two days. Running once daily at a
// fixed offset makes the two-day mark a natural at-most-once send.
func (d *DefaultDispatcher) RunFollowUpExpiry(ctx context.Context) error {
	logger := utils.GetLogger()
	now := d.Clock.Now()
	doctors := map[string]*models.Doctor{}
	clinics := map[string]*models.Clinic{}
	sent := 0

	for back := 1; back <= followUpScanDays; back++ {
		date := utils.FormatISODate(now.AddDate(0, 0, -back))
		appts, err := d.ApptRepo.ListByDateAndStatus(ctx, date, []string{models.StatusCompleted})
		if err != nil {
			return fmt.Errorf("list completed appointments for %s: %w", date, err)
		}
		for i := range appts {
			a := &appts[i]
			if a.IsBreakBlock() {
				continue
			}
			doctor, ok := doctors[a.DoctorID]
			if !ok {
				doctor, _ = d.DoctorRepo.GetByID(ctx, a.DoctorID)
				doctors[a.DoctorID] = doctor
			}
			if doctor == nil || doctor.FreeFollowUpDays <= 0 {
				continue
			}
			// Visit on day X with an f-day window expires on X+f; the nudge
			// goes out exactly when two days remain.
			if doctor.FreeFollowUpDays-back != 2 {
				continue
			}
			clinic, ok := clinics[a.ClinicID]
			if !ok {
				clinic, _ = d.ClinicRepo.GetByID(ctx, a.ClinicID)
				clinics[a.ClinicID] = clinic
			}
			patient, phone := d.resolvePatient(ctx, a)
			if patient == nil && phone == "" {
				continue
			}
			content := followUpExpiryContent(doctor.Name, 2, clinic)
			content.Data["appointmentId"] = a.ID
			d.deliver(ctx, a.ClinicID, patient, phone, content)
			sent++
		}
	}

	logger.Info("follow-up expiry scan finished", zap.Int("sent", sent))
	return nil
}

// RecordInboundWhatsApp reopens the patient's 24-hour conversation window.
func (d *DefaultDispatcher) RecordInboundWhatsApp(ctx context.Context, phone, body string) error {
	if err := d.NotifyRepo.TouchWhatsAppSession(ctx, phone, d.Clock.Now()); err != nil {
		return fmt.Errorf("touch whatsapp session for %s: %w", phone, err)
	}
	utils.GetLogger().Debug("inbound whatsapp recorded",
		zap.String("phone", phone),
		zap.Int("bodyLen", len(body)))
	return nil
}
