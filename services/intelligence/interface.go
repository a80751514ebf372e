package intelligence

import (
	"context"
	"time"

	"clinicore/models"
)

// InsightService re-ranks candidate slots and derives operational
// recommendations from utilization data. Everything here is advisory: it
// reorders and suggests, it never books, blocks, or filters.
type InsightService interface {
	// RankSlots reorders candidates by historical preference fit, doctor
	// load balance and time-of-day popularity. The slice is returned with
	// every input slot present.
	RankSlots(ctx context.Context, criteria models.SchedulingCriteria, slots []models.AvailableSlot) []models.AvailableSlot
	// OperationalRecommendations surfaces utilization-derived suggestions
	// for the given day.
	OperationalRecommendations(ctx context.Context, specialtyID string, day time.Time) ([]Recommendation, error)
}

// Recommendation is one advisory finding for clinic staff.
type Recommendation struct {
	Kind     string  `json:"kind"` // e.g. ROOM_UNDERUSED, DOCTOR_OVERLOADED
	Subject  string  `json:"subject"`
	Detail   string  `json:"detail"`
	Severity string  `json:"severity"` // INFO or ATTENTION
	Metric   float64 `json:"metric,omitempty"`
}
