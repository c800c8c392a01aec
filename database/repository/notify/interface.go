package notifyRepo

import (
	"context"
	"time"

	"clinq/models"
)

// NotifyRepository holds the dispatcher's own state: WhatsApp conversation
// windows and the append-only campaign log.
type NotifyRepository interface {
	GetWhatsAppSession(ctx context.Context, phone string) (*models.WhatsAppSession, error) // nil when absent
	TouchWhatsAppSession(ctx context.Context, phone string, at time.Time) error
	SetBookingState(ctx context.Context, phone, state string, data map[string]string) error
	LogCampaignSend(ctx context.Context, send *models.CampaignSend) error
}
