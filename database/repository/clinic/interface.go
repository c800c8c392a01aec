package clinicRepo

import (
	"context"

	"clinq/models"
)

// ClinicRepository reads clinic profiles and their notification settings.
type ClinicRepository interface {
	GetByID(ctx context.Context, id string) (*models.Clinic, error)
	GetByShortCode(ctx context.Context, code string) (*models.Clinic, error)
	UpdateNotificationSettings(ctx context.Context, id string, settings map[string]models.ChannelSetting) error
}
