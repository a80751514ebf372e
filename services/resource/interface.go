package resource

import (
	"context"
	"errors"
	"time"

	"clinicore/models"
)

// ErrNoFeasibleResources signals that no room/equipment combination is free
// for the requested window. It is a non-fatal outcome: callers fall back to
// alternative-slot search rather than failing the whole request.
var ErrNoFeasibleResources = errors.New("no feasible room or equipment for the requested window")

// ResourceManager allocates rooms and equipment to slots, detects resource
// conflicts and reports utilization.
type ResourceManager interface {
	// Allocate picks the first feasible room/equipment set for the window
	// and scores the allocation. Returns ErrNoFeasibleResources when the
	// clinic cannot host the appointment at that time.
	Allocate(ctx context.Context, criteria models.SchedulingCriteria, start, end time.Time) (*models.ResourceAllocation, error)
	// ResourcesAvailable answers the rules engine's delegated availability
	// check without committing anything.
	ResourcesAvailable(ctx context.Context, criteria models.SchedulingCriteria, start, end time.Time) (bool, error)
	// ConfirmAllocation persists the allocation as a booking tied to the
	// appointment.
	ConfirmAllocation(ctx context.Context, appointmentID string, alloc models.ResourceAllocation, start, end time.Time) (*models.ResourceBooking, error)
	// Release frees the resources tied to an appointment. Idempotent.
	Release(ctx context.Context, appointmentID string) error
	// Utilization reports per-room booking counts over a window.
	Utilization(ctx context.Context, start, end time.Time) (map[string]int, error)
}
