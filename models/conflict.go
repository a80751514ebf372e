package models

// ConflictType identifies the kind of scheduling infeasibility detected.
type ConflictType string

const (
	ConflictDoubleBooking      ConflictType = "DOUBLE_BOOKING"
	ConflictOutsideHours       ConflictType = "OUTSIDE_BUSINESS_HOURS"
	ConflictInsufficientBuffer ConflictType = "INSUFFICIENT_BUFFER"
	ConflictResource           ConflictType = "RESOURCE_CONFLICT"
	ConflictDoctorUnavailable  ConflictType = "DOCTOR_UNAVAILABLE"
)

// ConflictSeverity ranks how serious a conflict is.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "LOW"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityCritical ConflictSeverity = "CRITICAL"
)

// ResolutionAction is one ordered step of a proposed conflict resolution.
type ResolutionAction struct {
	Description string `json:"description"`
	Target      string `json:"target,omitempty"` // appointment or resource id
}

// Resolution is a proposed way out of a conflict.
type Resolution struct {
	Strategy         string             `json:"strategy"`
	Actions          []ResolutionAction `json:"actions"`
	EstimatedImpact  string             `json:"estimatedImpact"`
	RequiresApproval bool               `json:"requiresApproval"`
}

// Conflict is a detected scheduling infeasibility, temporal, resource, or
// policy based.
type Conflict struct {
	Type           ConflictType     `json:"type"`
	Severity       ConflictSeverity `json:"severity"`
	Message        string           `json:"message"`
	AppointmentIDs []string         `json:"appointmentIds,omitempty"`
	AutoResolvable bool             `json:"autoResolvable"`
	Resolution     *Resolution      `json:"resolution,omitempty"`
}
