package models

import "time"

// Notification kinds. Every outbound message belongs to exactly one kind and
// each kind can be toggled per channel.
const (
	KindAppointmentBookedByStaff = "appointment_booked_by_staff"
	KindArrivalConfirmed         = "arrival_confirmed"
	KindTokenCalled              = "token_called"
	KindAppointmentCancelled     = "appointment_cancelled"
	KindDoctorRunningLate        = "doctor_running_late"
	KindBreakUpdate              = "break_update"
	KindAppointmentSkipped       = "appointment_skipped"
	KindPeopleAhead              = "people_ahead"
	KindConsultationStarted      = "doctor_consultation_started"
	KindDailyReminder            = "daily_reminder"
	KindFreeFollowUpExpiry       = "free_follow_up_expiry"
	KindConsultationCompleted    = "consultation_completed"
	KindAIFallback               = "ai_fallback"
	KindBookingLink              = "booking_link"
)

// ChannelSetting is the per-kind enablement pair.
type ChannelSetting struct {
	WhatsAppEnabled bool `bson:"whatsappEnabled" json:"whatsappEnabled"`
	PWAEnabled      bool `bson:"pwaEnabled" json:"pwaEnabled"`
}

// WhatsAppSession tracks the 24-hour conversation window per phone number.
// Messages inside the window are free-form; outside it only paid templates
// are deliverable.
type WhatsAppSession struct {
	Phone             string            `bson:"_id" json:"phone"`
	LastUserMessageAt time.Time         `bson:"lastUserMessageAt" json:"lastUserMessageAt"`
	BookingState      string            `bson:"bookingState,omitempty" json:"bookingState,omitempty"`
	BookingData       map[string]string `bson:"bookingData,omitempty" json:"bookingData,omitempty"`
	UpdatedAt         time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// WindowOpen reports whether a free-form message can still be sent.
func (s *WhatsAppSession) WindowOpen(now time.Time) bool {
	if s == nil || s.LastUserMessageAt.IsZero() {
		return false
	}
	return now.Sub(s.LastUserMessageAt) < 24*time.Hour
}

// CampaignSend is one append-only row logging a template/campaign delivery.
type CampaignSend struct {
	ID       string    `bson:"_id" json:"id"`
	Ref      string    `bson:"ref" json:"ref"` // appointment or patient ref
	Campaign string    `bson:"campaign" json:"campaign"`
	Medium   string    `bson:"medium" json:"medium"` // "whatsapp" or "push"
	ClinicID string    `bson:"clinicId" json:"clinicId"`
	Phone    string    `bson:"phone" json:"phone"`
	SentAt   time.Time `bson:"sentAt" json:"sentAt"`
}

// PushMessage is the payload for the push-notification gateway.
type PushMessage struct {
	UserID   string            `json:"userId"`
	FCMToken string            `json:"fcmToken"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Language string            `json:"language,omitempty"`
}

// WhatsAppMessage is the payload for the WhatsApp gateway. ContentSid
// "text_message" plus ContentVariables{"text": ...} sends free text; any
// other sid names a Meta template with positional variables {"1": ..., "2": ...}.
type WhatsAppMessage struct {
	To               string            `json:"to"`
	Channel          string            `json:"channel"` // always "whatsapp"
	ContentSid       string            `json:"contentSid,omitempty"`
	ContentVariables map[string]string `json:"contentVariables,omitempty"`
	Message          string            `json:"message,omitempty"`
}

// FreeTextSid is the sentinel content sid for in-window free-form sends.
const FreeTextSid = "text_message"
