package patientRepo

import (
	"context"

	"clinq/models"
)

// PatientRepository reads patient profiles. Visit history and totals are
// appended inside booking transactions, not here.
type PatientRepository interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByPhone(ctx context.Context, phone string) (*models.Patient, error)
}
