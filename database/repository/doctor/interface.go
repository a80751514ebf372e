package doctorRepo

import (
	"context"

	"clinicore/models"
)

// DoctorRepository exposes doctor and specialty lookups used during slot
// generation and rule validation.
type DoctorRepository interface {
	// GetByID retrieves a doctor by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	// ListBySpecialty returns active doctors of a specialty; when
	// acceptingOnly is set, doctors with closed panels are excluded.
	ListBySpecialty(ctx context.Context, specialtyID string, acceptingOnly bool) ([]models.Doctor, error)
	// ListActive returns every active doctor, for cache pre-warming.
	ListActive(ctx context.Context) ([]models.Doctor, error)
	// GetSpecialty retrieves a specialty definition.
	GetSpecialty(ctx context.Context, id string) (*models.Specialty, error)
}
