package emergency

import (
	"context"

	"clinicore/config"
	"clinicore/models"
)

// EscalationPolicy gates the progressively disruptive slot-acquisition
// strategies.
type EscalationPolicy struct {
	AllowBumping       bool
	AllowExtendedHours bool
	AllowOverbooking   bool
	OverrideLevel      int // urgency at which bumping becomes acceptable
	BusinessHoursEnd   int // minutes from midnight
}

// EscalationPolicyFromConfig maps loaded configuration onto the policy.
func EscalationPolicyFromConfig(cfg config.Config) EscalationPolicy {
	return EscalationPolicy{
		AllowBumping:       cfg.AllowBumping,
		AllowExtendedHours: cfg.AllowExtendedHours,
		AllowOverbooking:   cfg.AllowOverbooking,
		OverrideLevel:      cfg.EmergencyOverrideLvl,
		BusinessHoursEnd:   cfg.BusinessHoursEnd,
	}
}

// EmergencyService triages urgent requests and escalates through
// increasingly disruptive strategies until a slot is secured.
type EmergencyService interface {
	// HandleEmergency triages the request and works the escalation ladder:
	// existing gaps, bumping a lower-priority appointment, extended hours,
	// alternate doctors, and finally deliberate overbooking. Failure to
	// secure a slot is reported in the result, not as an error.
	HandleEmergency(ctx context.Context, req models.EmergencyRequest) (*models.EmergencyResult, error)
	// MonitorPendingEmergencies flags upcoming emergency appointments that
	// are due or overdue. Run periodically by the background worker.
	MonitorPendingEmergencies(ctx context.Context) error
}
