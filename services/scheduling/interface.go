package scheduling

import (
	"context"
	"time"

	"clinicore/models"
)

// SchedulingEngine computes candidate slots for a request, detects
// scheduling conflicts, and proposes advisory day optimizations.
type SchedulingEngine interface {
	// FindAvailableSlots walks doctor availability templates over the
	// requested date range and returns scored, ranked candidate slots.
	FindAvailableSlots(ctx context.Context, criteria models.SchedulingCriteria) ([]models.AvailableSlot, error)
	// CheckConflicts evaluates a candidate appointment against the doctor's
	// schedule and clinic policy, returning zero or more conflicts.
	CheckConflicts(ctx context.Context, candidate models.Appointment) ([]models.Conflict, error)
	// OptimizeSchedule proposes a gap-minimizing rearrangement of one
	// doctor's day. The proposal is advisory and changes nothing.
	OptimizeSchedule(ctx context.Context, doctorID string, day time.Time) (*DayOptimization, error)
}

// ProposedChange is one advisory move within a day optimization.
type ProposedChange struct {
	AppointmentID string    `json:"appointmentId"`
	CurrentStart  time.Time `json:"currentStart"`
	NewStart      time.Time `json:"newStart"`
	NewEnd        time.Time `json:"newEnd"`
	Rationale     string    `json:"rationale"`
}

// DayOptimization is the advisory outcome of OptimizeSchedule.
type DayOptimization struct {
	DoctorID        string           `json:"doctorId"`
	Date            string           `json:"date"`
	Changes         []ProposedChange `json:"changes"`
	GapMinutesSaved int              `json:"gapMinutesSaved"`
}
