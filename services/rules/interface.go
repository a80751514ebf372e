package rules

import (
	"context"
	"time"

	"clinicore/config"
	"clinicore/models"
)

// Policy holds the clinic's configurable business-rule knobs.
type Policy struct {
	BusinessHoursStart  int // minutes from midnight
	BusinessHoursEnd    int // minutes from midnight
	MaxAdvanceDays      int
	MinLeadMinutes      int
	StrikesBeforeSusp   int
	MaxReschedules      int
	RescheduleNoticeMin int
	AllowSameDayResched bool
	EmergencyOverride   int // urgency at which capacity violations soften
}

// PolicyFromConfig maps loaded configuration onto a rules policy.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		BusinessHoursStart:  cfg.BusinessHoursStart,
		BusinessHoursEnd:    cfg.BusinessHoursEnd,
		MaxAdvanceDays:      cfg.MaxAdvanceDays,
		MinLeadMinutes:      cfg.MinLeadMinutes,
		StrikesBeforeSusp:   cfg.StrikesBeforeSusp,
		MaxReschedules:      cfg.MaxReschedules,
		RescheduleNoticeMin: cfg.RescheduleNoticeMin,
		AllowSameDayResched: cfg.AllowSameDayResched,
		EmergencyOverride:   cfg.EmergencyOverrideLvl,
	}
}

// ResourceChecker is the slice of the resource service the rules engine
// delegates to for the resource-availability validation step.
type ResourceChecker interface {
	ResourcesAvailable(ctx context.Context, criteria models.SchedulingCriteria, start, end time.Time) (bool, error)
}

// RulesEngine validates proposed bookings, cancellations and reschedules
// against clinic policy. All validators run; their findings are merged.
type RulesEngine interface {
	ValidateBooking(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot) (models.ValidationResult, error)
	ValidateCancellation(ctx context.Context, appt *models.Appointment, at time.Time) (models.CancellationQuote, error)
	ValidateReschedule(ctx context.Context, appt *models.Appointment, criteria models.SchedulingCriteria, newSlot models.AvailableSlot) (models.ValidationResult, error)
}
