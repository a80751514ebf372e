package models

import "time"

// MedicalPriorityClass buckets triage outcomes.
type MedicalPriorityClass string

const (
	PriorityLifeThreatening MedicalPriorityClass = "LIFE_THREATENING"
	PriorityUrgent          MedicalPriorityClass = "URGENT"
	PrioritySemiUrgent      MedicalPriorityClass = "SEMI_URGENT"
	PriorityNonUrgent       MedicalPriorityClass = "NON_URGENT"
)

// VitalSigns carries the measurements considered during triage. Zero values
// mean "not measured".
type VitalSigns struct {
	HeartRate        int     `json:"heartRate,omitempty"`        // bpm
	SystolicBP       int     `json:"systolicBp,omitempty"`       // mmHg
	OxygenSaturation float64 `json:"oxygenSaturation,omitempty"` // percent
	TemperatureC     float64 `json:"temperatureC,omitempty"`
	RespiratoryRate  int     `json:"respiratoryRate,omitempty"` // breaths/min
}

// EmergencyRequest is the inbound urgent-care ask.
type EmergencyRequest struct {
	PatientID         string     `json:"patientId" binding:"required"`
	SpecialtyID       string     `json:"specialtyId" binding:"required"`
	DoctorID          string     `json:"doctorId,omitempty"` // required specific doctor, if any
	Symptoms          []string   `json:"symptoms"`
	PainLevel         int        `json:"painLevel,omitempty"` // 0-10
	Vitals            *VitalSigns `json:"vitals,omitempty"`
	RequiredEquipment []string   `json:"requiredEquipment,omitempty"`
	Description       string     `json:"description,omitempty"`
}

// EmergencyAssessment is the triage verdict attached to the resulting
// appointment's notes for audit.
type EmergencyAssessment struct {
	UrgencyLevel            int                  `json:"urgencyLevel"` // 1-10
	PriorityClass           MedicalPriorityClass `json:"priorityClass"`
	RequiredResponseMinutes int                  `json:"requiredResponseMinutes"`
	CanWait                 bool                 `json:"canWait"`
	RequiredDoctorID        string               `json:"requiredDoctorId,omitempty"`
	RequiredEquipment       []string             `json:"requiredEquipment,omitempty"`
	AssessedAt              time.Time            `json:"assessedAt"`
}

// EmergencyResult is the structured outcome of emergency slot acquisition.
// It never surfaces as an error past the handler; failures carry an
// estimated wait and alternatives instead.
type EmergencyResult struct {
	Success          bool                `json:"success"`
	Appointment      *Appointment        `json:"appointment,omitempty"`
	Assessment       EmergencyAssessment `json:"assessment"`
	Strategy         string              `json:"strategy,omitempty"` // which escalation step produced the slot
	Bumped           []string            `json:"bumped,omitempty"`   // appointment ids displaced
	EstimatedWaitMin int                 `json:"estimatedWaitMin,omitempty"`
	Alternatives     []AvailableSlot     `json:"alternatives,omitempty"`
	Message          string              `json:"message,omitempty"`
}
