package doctorRepo

import (
	"context"

	"clinq/models"
)

// DoctorRepository reads doctor profiles and applies the non-transactional
// staff-side mutations. Break and extension writes that must move
// appointments atomically go through the scheduler repository instead.
type DoctorRepository interface {
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	ListByClinic(ctx context.Context, clinicID string) ([]models.Doctor, error)
	SetConsultationStatus(ctx context.Context, id, status string) error
}
