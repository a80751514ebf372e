package patientRepo

import (
	"context"

	"clinicore/models"
)

// PatientRepository exposes the patient attributes the engine validates
// against.
type PatientRepository interface {
	// GetByID retrieves a patient by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	// IncrementNoShow bumps the strike counter, suspending the account once
	// it reaches the configured limit.
	IncrementNoShow(ctx context.Context, id string, suspendAt int) error
}
