package notification

import (
	"fmt"
	"time"

	"clinq/config"
	"clinq/models"
	"clinq/utils"
)

// messageContent is one renderable notification: push title/body plus the
// WhatsApp template and its positional variables.
type messageContent struct {
	Kind        string
	Title       string
	Body        string
	TemplateSid string
	Vars        map[string]string
	// AlwaysSend pays for a template when the 24-hour window is closed
	// instead of dropping the message.
	AlwaysSend bool
	Data       map[string]string
}

// reportingTime is what the patient is told to come by: fifteen minutes
// before the slot, except walk-ins who get their exact time.
func reportingTime(appt *models.Appointment, loc *time.Location) string {
	if appt.IsWalkIn() {
		return appt.Time
	}
	base := appt.ArriveByTime
	if base == "" {
		base = appt.Time
	}
	t, err := utils.TimeOnDate(appt.Date, base, loc)
	if err != nil {
		return base
	}
	return utils.FormatTime(t.Add(-15 * time.Minute))
}

// displayToken applies the clinic's token-visibility policy; an empty string
// means the message should omit the token line.
func displayToken(appt *models.Appointment, mode models.TokenMode) string {
	return models.DisplayToken(appt, mode)
}

func bookingLink(clinic *models.Clinic) string {
	if clinic == nil || clinic.ShortCode == "" {
		return config.AppConfig.PatientAppURL
	}
	return fmt.Sprintf("%s/c/%s", config.AppConfig.PatientAppURL, clinic.ShortCode)
}

func bookedContent(appt *models.Appointment, mode models.TokenMode, loc *time.Location, byStaff bool) messageContent {
	kind := models.KindBookingLink
	if byStaff {
		kind = models.KindAppointmentBookedByStaff
	}
	token := displayToken(appt, mode)
	when := reportingTime(appt, loc)
	body := fmt.Sprintf("Your appointment with %s on %s is booked. Please report by %s.", appt.DoctorName, appt.Date, when)
	if token != "" {
		body = fmt.Sprintf("Your appointment with %s on %s is booked. Token %s. Please report by %s.", appt.DoctorName, appt.Date, token, when)
	}
	return messageContent{
		Kind:        kind,
		Title:       "Appointment booked",
		Body:        body,
		TemplateSid: "appointment_booked_ml",
		Vars:        map[string]string{"1": appt.DoctorName, "2": appt.Date, "3": token, "4": when},
		AlwaysSend:  true,
		Data:        map[string]string{"appointmentId": appt.ID, "type": kind},
	}
}

func arrivalContent(appt *models.Appointment, mode models.TokenMode) messageContent {
	token := displayToken(appt, mode)
	body := "Your arrival is confirmed. Please wait to be called."
	if token != "" {
		body = fmt.Sprintf("Your arrival is confirmed. Token %s. Please wait to be called.", token)
	}
	return messageContent{
		Kind:        models.KindArrivalConfirmed,
		Title:       "Arrival confirmed",
		Body:        body,
		TemplateSid: "arrival_confirmed_ml",
		Vars:        map[string]string{"1": token},
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindArrivalConfirmed},
	}
}

func tokenCalledContent(appt *models.Appointment, mode models.TokenMode) messageContent {
	token := displayToken(appt, mode)
	body := "It is your turn now. Please come to the consultation room."
	if token != "" {
		body = fmt.Sprintf("Token %s, it is your turn now. Please come to the consultation room.", token)
	}
	return messageContent{
		Kind:        models.KindTokenCalled,
		Title:       "You are being called",
		Body:        body,
		TemplateSid: "token_called_ml",
		Vars:        map[string]string{"1": token},
		AlwaysSend:  true,
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindTokenCalled},
	}
}

func skippedContent(appt *models.Appointment, mode models.TokenMode) messageContent {
	token := displayToken(appt, mode)
	body := "Your token was skipped. Please meet the reception to rejoin the queue."
	if token != "" {
		body = fmt.Sprintf("Token %s was skipped. Please meet the reception to rejoin the queue.", token)
	}
	return messageContent{
		Kind:        models.KindAppointmentSkipped,
		Title:       "Token skipped",
		Body:        body,
		TemplateSid: "appointment_skipped_ml",
		Vars:        map[string]string{"1": token},
		AlwaysSend:  true,
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindAppointmentSkipped},
	}
}

func cancelledContent(appt *models.Appointment, mode models.TokenMode) messageContent {
	token := displayToken(appt, mode)
	body := fmt.Sprintf("Your appointment with %s on %s was cancelled.", appt.DoctorName, appt.Date)
	if token != "" {
		body = fmt.Sprintf("Your appointment (token %s) with %s on %s was cancelled.", token, appt.DoctorName, appt.Date)
	}
	return messageContent{
		Kind:        models.KindAppointmentCancelled,
		Title:       "Appointment cancelled",
		Body:        body,
		TemplateSid: "appointment_cancelled_ml",
		Vars:        map[string]string{"1": token, "2": appt.DoctorName, "3": appt.Date},
		AlwaysSend:  true,
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindAppointmentCancelled},
	}
}

func completedContent(appt *models.Appointment) messageContent {
	return messageContent{
		Kind:        models.KindConsultationCompleted,
		Title:       "Consultation complete",
		Body:        fmt.Sprintf("Thank you for visiting %s. Get well soon!", appt.DoctorName),
		TemplateSid: "consultation_completed_ml",
		Vars:        map[string]string{"1": appt.DoctorName},
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindConsultationCompleted},
	}
}

func consultationStartedContent(appt *models.Appointment, mode models.TokenMode, position int, estimated string) messageContent {
	token := displayToken(appt, mode)
	body := fmt.Sprintf("%s has started consultations. You are number %d in the queue; estimated time %s.", appt.DoctorName, position+1, estimated)
	if token != "" {
		body = fmt.Sprintf("%s has started consultations. Token %s is number %d in the queue; estimated time %s.", appt.DoctorName, token, position+1, estimated)
	}
	return messageContent{
		Kind:        models.KindConsultationStarted,
		Title:       "Doctor is in",
		Body:        body,
		TemplateSid: "doctor_consultation_started_ml",
		Vars:        map[string]string{"1": appt.DoctorName, "2": token, "3": fmt.Sprintf("%d", position+1), "4": estimated},
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindConsultationStarted},
	}
}

func peopleAheadContent(appt *models.Appointment, mode models.TokenMode, ahead, breakMinutes int) messageContent {
	token := displayToken(appt, mode)
	body := fmt.Sprintf("%d patient(s) ahead of you now.", ahead)
	if token != "" {
		body = fmt.Sprintf("Token %s: %d patient(s) ahead of you now.", token, ahead)
	}
	if breakMinutes > 0 {
		body += fmt.Sprintf(" The doctor has a %d-minute break before your turn.", breakMinutes)
	}
	return messageContent{
		Kind:        models.KindPeopleAhead,
		Title:       "Queue update",
		Body:        body,
		TemplateSid: "people_ahead_ml",
		Vars:        map[string]string{"1": token, "2": fmt.Sprintf("%d", ahead)},
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindPeopleAhead},
	}
}

func reminderContent(appt *models.Appointment, mode models.TokenMode, loc *time.Location, window ReminderWindow) messageContent {
	token := displayToken(appt, mode)
	when := reportingTime(appt, loc)
	day := "today"
	if window == WindowEvening {
		day = "tomorrow"
	}
	body := fmt.Sprintf("Reminder: your appointment with %s is %s. Please report by %s.", appt.DoctorName, day, when)
	if token != "" {
		body = fmt.Sprintf("Reminder: your appointment with %s is %s. Token %s. Please report by %s.", appt.DoctorName, day, token, when)
	}
	return messageContent{
		Kind:        models.KindDailyReminder,
		Title:       "Appointment reminder",
		Body:        body,
		TemplateSid: "daily_reminder_ml",
		Vars:        map[string]string{"1": appt.DoctorName, "2": day, "3": token, "4": when},
		AlwaysSend:  true,
		Data:        map[string]string{"appointmentId": appt.ID, "type": models.KindDailyReminder},
	}
}

func breakUpdateContent(doctorName string, durationMinutes int) messageContent {
	return messageContent{
		Kind:        models.KindBreakUpdate,
		Title:       "Doctor on a break",
		Body:        fmt.Sprintf("%s is on a %d-minute break. Your reporting time may move slightly.", doctorName, durationMinutes),
		TemplateSid: "break_update_ml",
		Vars:        map[string]string{"1": doctorName, "2": fmt.Sprintf("%d", durationMinutes)},
		Data:        map[string]string{"type": models.KindBreakUpdate},
	}
}

func runningLateContent(doctorName string, delayMinutes int) messageContent {
	return messageContent{
		Kind:        models.KindDoctorRunningLate,
		Title:       "Doctor running late",
		Body:        fmt.Sprintf("%s is running about %d minutes late. Please plan your arrival accordingly.", doctorName, delayMinutes),
		TemplateSid: "doctor_running_late_ml",
		Vars:        map[string]string{"1": doctorName, "2": fmt.Sprintf("%d", delayMinutes)},
		Data:        map[string]string{"type": models.KindDoctorRunningLate},
	}
}

func followUpExpiryContent(doctorName string, daysLeft int, clinic *models.Clinic) messageContent {
	return messageContent{
		Kind:        models.KindFreeFollowUpExpiry,
		Title:       "Free follow-up expiring",
		Body:        fmt.Sprintf("Your free follow-up with %s expires in %d day(s). Book now: %s", doctorName, daysLeft, bookingLink(clinic)),
		TemplateSid: "free_follow_up_expiry_ml",
		Vars:        map[string]string{"1": doctorName, "2": fmt.Sprintf("%d", daysLeft), "3": bookingLink(clinic)},
		AlwaysSend:  true,
		Data:        map[string]string{"type": models.KindFreeFollowUpExpiry},
	}
}
