package notification

import (
	"context"
	"testing"
	"time"

	"clinq/models"
	"clinq/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePush struct {
	sent []models.PushMessage
}

func (f *fakePush) Send(_ context.Context, msg models.PushMessage) bool {
	f.sent = append(f.sent, msg)
	return true
}

type fakeWhatsApp struct {
	sent []models.WhatsAppMessage
	fail bool
}

func (f *fakeWhatsApp) Send(_ context.Context, msg models.WhatsAppMessage) bool {
	f.sent = append(f.sent, msg)
	return !f.fail
}

type fakeNotifyRepo struct {
	sessions  map[string]*models.WhatsAppSession
	campaigns []models.CampaignSend
	touched   []string
}

func (f *fakeNotifyRepo) GetWhatsAppSession(_ context.Context, phone string) (*models.WhatsAppSession, error) {
	return f.sessions[phone], nil
}

func (f *fakeNotifyRepo) TouchWhatsAppSession(_ context.Context, phone string, at time.Time) error {
	if f.sessions == nil {
		f.sessions = map[string]*models.WhatsAppSession{}
	}
	f.sessions[phone] = &models.WhatsAppSession{Phone: phone, LastUserMessageAt: at}
	f.touched = append(f.touched, phone)
	return nil
}

func (f *fakeNotifyRepo) SetBookingState(_ context.Context, _, _ string, _ map[string]string) error {
	return nil
}

func (f *fakeNotifyRepo) LogCampaignSend(_ context.Context, send *models.CampaignSend) error {
	f.campaigns = append(f.campaigns, *send)
	return nil
}

type fakeClinicRepo struct {
	clinic *models.Clinic
}

func (f *fakeClinicRepo) GetByID(_ context.Context, _ string) (*models.Clinic, error) {
	return f.clinic, nil
}

func (f *fakeClinicRepo) GetByShortCode(_ context.Context, _ string) (*models.Clinic, error) {
	return f.clinic, nil
}

func (f *fakeClinicRepo) UpdateNotificationSettings(_ context.Context, _ string, settings map[string]models.ChannelSetting) error {
	f.clinic.NotificationSettings = settings
	return nil
}

type fakePatientRepo struct {
	patient *models.Patient
}

func (f *fakePatientRepo) GetByID(_ context.Context, _ string) (*models.Patient, error) {
	return f.patient, nil
}

func (f *fakePatientRepo) GetByPhone(_ context.Context, _ string) (*models.Patient, error) {
	return f.patient, nil
}

func newTestDispatcher(now time.Time) (*DefaultDispatcher, *fakePush, *fakeWhatsApp, *fakeNotifyRepo) {
	push := &fakePush{}
	wa := &fakeWhatsApp{}
	nr := &fakeNotifyRepo{sessions: map[string]*models.WhatsAppSession{}}
	d := &DefaultDispatcher{
		ClinicRepo:  &fakeClinicRepo{clinic: &models.Clinic{ID: "c1", Name: "Test Clinic"}},
		PatientRepo: &fakePatientRepo{patient: &models.Patient{ID: "p1", Phone: "+911234567890", FCMToken: "fcm-1"}},
		NotifyRepo:  nr,
		Push:        push,
		WhatsApp:    wa,
		Clock:       utils.NewFixedClock(now),
	}
	return d, push, wa, nr
}

func TestSendSmartFreeTextInsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, _, wa, nr := newTestDispatcher(now)
	nr.sessions["+911234567890"] = &models.WhatsAppSession{
		Phone:             "+911234567890",
		LastUserMessageAt: now.Add(-2 * time.Hour),
	}

	d.sendSmart(context.Background(), "c1", "+911234567890", messageContent{
		Kind:        models.KindTokenCalled,
		Body:        "your turn",
		TemplateSid: "token_called_ml",
		AlwaysSend:  true,
	})

	require.Len(t, wa.sent, 1)
	assert.Equal(t, models.FreeTextSid, wa.sent[0].ContentSid)
	assert.Equal(t, "your turn", wa.sent[0].ContentVariables["text"])
	assert.Empty(t, nr.campaigns, "free text is not a campaign send")
}

func TestSendSmartTemplateOutsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, _, wa, nr := newTestDispatcher(now)
	nr.sessions["+911234567890"] = &models.WhatsAppSession{
		Phone:             "+911234567890",
		LastUserMessageAt: now.Add(-25 * time.Hour),
	}

	d.sendSmart(context.Background(), "c1", "+911234567890", messageContent{
		Kind:        models.KindTokenCalled,
		Body:        "your turn",
		TemplateSid: "token_called_ml",
		Vars:        map[string]string{"1": "W1-105"},
		AlwaysSend:  true,
	})

	require.Len(t, wa.sent, 1)
	assert.Equal(t, "token_called_ml", wa.sent[0].ContentSid)
	assert.Equal(t, "W1-105", wa.sent[0].ContentVariables["1"])
	require.Len(t, nr.campaigns, 1)
	assert.Equal(t, models.KindTokenCalled, nr.campaigns[0].Campaign)
	assert.Equal(t, "whatsapp", nr.campaigns[0].Medium)
}

func TestSendSmartDropsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, _, wa, nr := newTestDispatcher(now)

	// No session at all: the window has never been open.
	d.sendSmart(context.Background(), "c1", "+911234567890", messageContent{
		Kind:        models.KindPeopleAhead,
		Body:        "2 ahead",
		TemplateSid: "people_ahead_ml",
	})

	assert.Empty(t, wa.sent)
	assert.Empty(t, nr.campaigns)
}

func TestSendSmartFailedTemplateNotLogged(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, _, wa, nr := newTestDispatcher(now)
	wa.fail = true

	d.sendSmart(context.Background(), "c1", "+911234567890", messageContent{
		Kind:        models.KindDailyReminder,
		Body:        "reminder",
		TemplateSid: "daily_reminder_ml",
		AlwaysSend:  true,
	})

	require.Len(t, wa.sent, 1)
	assert.Empty(t, nr.campaigns, "failed sends must not hit the campaign log")
}

func TestDeliverRespectsChannelSettings(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, push, wa, nr := newTestDispatcher(now)
	d.ClinicRepo = &fakeClinicRepo{clinic: &models.Clinic{
		ID: "c1",
		NotificationSettings: map[string]models.ChannelSetting{
			models.KindTokenCalled: {WhatsAppEnabled: false, PWAEnabled: true},
		},
	}}
	nr.sessions["+911234567890"] = &models.WhatsAppSession{
		Phone:             "+911234567890",
		LastUserMessageAt: now.Add(-time.Hour),
	}
	patient := &models.Patient{ID: "p1", Phone: "+911234567890", FCMToken: "fcm-1"}

	d.deliver(context.Background(), "c1", patient, patient.Phone, messageContent{
		Kind:  models.KindTokenCalled,
		Title: "called",
		Body:  "your turn",
	})

	assert.Len(t, push.sent, 1)
	assert.Empty(t, wa.sent, "whatsapp disabled for this kind")
}

func TestKindSettingDefaultsToEnabled(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, _, _, _ := newTestDispatcher(now)

	s := d.kindSetting(context.Background(), "c1", models.KindDailyReminder)
	assert.True(t, s.WhatsAppEnabled)
	assert.True(t, s.PWAEnabled)
}

func TestKindSettingCacheExpiry(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	clock := utils.NewFixedClock(now)
	cr := &fakeClinicRepo{clinic: &models.Clinic{ID: "c1"}}
	d := &DefaultDispatcher{ClinicRepo: cr, Clock: clock}

	s := d.kindSetting(context.Background(), "c1", models.KindTokenCalled)
	assert.True(t, s.WhatsAppEnabled)

	// Settings change upstream; the cached entry keeps serving until the TTL.
	cr.clinic.NotificationSettings = map[string]models.ChannelSetting{
		models.KindTokenCalled: {WhatsAppEnabled: false, PWAEnabled: false},
	}
	s = d.kindSetting(context.Background(), "c1", models.KindTokenCalled)
	assert.True(t, s.WhatsAppEnabled, "stale entry inside TTL")

	clock.Set(now.Add(settingsTTL + time.Second))
	s = d.kindSetting(context.Background(), "c1", models.KindTokenCalled)
	assert.False(t, s.WhatsAppEnabled, "refetched after TTL")
}

func TestRecordInboundWhatsAppReopensWindow(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	d, _, wa, nr := newTestDispatcher(now)

	require.NoError(t, d.RecordInboundWhatsApp(context.Background(), "+911234567890", "hello"))
	assert.Equal(t, []string{"+911234567890"}, nr.touched)

	// The very next send goes out as free text.
	d.sendSmart(context.Background(), "c1", "+911234567890", messageContent{
		Kind: models.KindPeopleAhead,
		Body: "2 ahead",
	})
	require.Len(t, wa.sent, 1)
	assert.Equal(t, models.FreeTextSid, wa.sent[0].ContentSid)
}

func TestActiveWindow(t *testing.T) {
	mk := func(h int) time.Time { return time.Date(2026, 1, 4, h, 30, 0, 0, time.UTC) }

	w, ok := ActiveWindow(mk(17))
	require.True(t, ok)
	assert.Equal(t, WindowEvening, w)

	w, ok = ActiveWindow(mk(7))
	require.True(t, ok)
	assert.Equal(t, WindowMorning, w)

	_, ok = ActiveWindow(mk(12))
	assert.False(t, ok)
	_, ok = ActiveWindow(mk(19))
	assert.False(t, ok)
}

func TestWindowTargetDate(t *testing.T) {
	now := time.Date(2026, 1, 4, 17, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-05", windowTargetDate(now, WindowEvening))
	assert.Equal(t, "2026-01-04", windowTargetDate(now, WindowMorning))
}

func TestReportingTime(t *testing.T) {
	loc := time.UTC
	advance := &models.Appointment{
		Date:      "2026-01-04",
		Time:      "10:30 AM",
		BookedVia: models.BookedViaAdvance,
	}
	assert.Equal(t, "10:15 AM", reportingTime(advance, loc))

	walkIn := &models.Appointment{
		Date:      "2026-01-04",
		Time:      "11:00 AM",
		BookedVia: models.BookedViaWalkIn,
	}
	assert.Equal(t, "11:00 AM", reportingTime(walkIn, loc))
}
