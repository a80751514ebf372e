package models

// ViolationSeverity distinguishes blocking violations from advisories.
type ViolationSeverity string

const (
	ViolationError   ViolationSeverity = "ERROR"
	ViolationWarning ViolationSeverity = "WARNING"
)

// Violation is a machine-readable business-rule finding.
type Violation struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Severity ViolationSeverity `json:"severity"`
	Field    string            `json:"field,omitempty"`
	Impact   string            `json:"impact,omitempty"` // e.g. "HIGH" for near-suspension warnings
}

// Modification is a suggested change that would make a rejected request
// acceptable, e.g. allowing an out-of-hours emergency slot.
type Modification struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ValidationResult is the merged outcome of the business-rules pipeline.
// IsValid is false iff any violation carries ERROR severity.
type ValidationResult struct {
	IsValid       bool           `json:"isValid"`
	Violations    []Violation    `json:"violations"`
	Warnings      []Violation    `json:"warnings"`
	Modifications []Modification `json:"modifications"`
}

// Merge folds another result into this one, recomputing validity.
func (r *ValidationResult) Merge(other ValidationResult) {
	r.Violations = append(r.Violations, other.Violations...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Modifications = append(r.Modifications, other.Modifications...)
	r.recompute()
}

// AddViolation appends a finding and recomputes validity.
func (r *ValidationResult) AddViolation(v Violation) {
	if v.Severity == ViolationWarning {
		r.Warnings = append(r.Warnings, v)
		return
	}
	r.Violations = append(r.Violations, v)
	r.recompute()
}

func (r *ValidationResult) recompute() {
	r.IsValid = true
	for _, v := range r.Violations {
		if v.Severity == ViolationError {
			r.IsValid = false
			return
		}
	}
}

// NewValidationResult returns an initially valid, empty result.
func NewValidationResult() ValidationResult {
	return ValidationResult{IsValid: true}
}

// CancellationQuote is the fee outcome of cancellation validation.
type CancellationQuote struct {
	Allowed      bool    `json:"allowed"`
	Fee          float64 `json:"fee"`
	FeePercent   float64 `json:"feePercent"`
	HoursBefore  float64 `json:"hoursBefore"`
	RefundWindow bool    `json:"refundWindow"`
	Reason       string  `json:"reason,omitempty"`
}
