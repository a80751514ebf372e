package availability

import (
	"context"

	"clinicore/models"
)

// AvailabilityService composes doctor slot generation with resource
// allocation into a cache-backed, real-time availability view, and owns the
// soft reservations that serialize concurrent booking flows.
type AvailabilityService interface {
	SlotReserver

	// GetAvailability returns concrete, resource-backed slots for the
	// criteria, served from the short-TTL cache where possible.
	GetAvailability(ctx context.Context, criteria models.SchedulingCriteria) ([]models.AvailableSlot, error)
	// GetBulkAvailability fans out per-criteria lookups in parallel. A
	// failed lookup yields an empty slot list for that criterion, never a
	// total failure.
	GetBulkAvailability(ctx context.Context, criteriaList []models.SchedulingCriteria) [][]models.AvailableSlot
	// InvalidateDoctorDay drops cached availability for a doctor's day.
	// Called on every write that changes the doctor's schedule.
	InvalidateDoctorDay(ctx context.Context, doctorID string, day string)
}
