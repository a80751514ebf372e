package models

import "time"

// AppointmentType enumerates the kinds of visits the clinic books.
type AppointmentType string

const (
	AppointmentConsultation AppointmentType = "CONSULTATION"
	AppointmentFollowUp     AppointmentType = "FOLLOW_UP"
	AppointmentExam         AppointmentType = "EXAM"
	AppointmentProcedure    AppointmentType = "PROCEDURE"
	AppointmentEmergency    AppointmentType = "EMERGENCY"
)

// SchedulingCriteria describes what a patient is asking for. It is built per
// request and never persisted.
type SchedulingCriteria struct {
	SpecialtyID       string          `json:"specialtyId" binding:"required"`
	DoctorID          string          `json:"doctorId,omitempty"` // empty means any doctor in the specialty
	AppointmentType   AppointmentType `json:"appointmentType" binding:"required"`
	DurationMinutes   int             `json:"durationMinutes,omitempty"` // 0 means specialty default
	StartDate         time.Time       `json:"startDate" binding:"required"`
	EndDate           time.Time       `json:"endDate" binding:"required"`
	PatientID         string          `json:"patientId" binding:"required"`
	PreferredTimes    []string        `json:"preferredTimes,omitempty"` // "HH:MM"
	UrgencyLevel      int             `json:"urgencyLevel,omitempty"`   // 1-10
	Emergency         bool            `json:"emergency,omitempty"`
	RequiredEquipment []string        `json:"requiredEquipment,omitempty"`
	Reason            string          `json:"reason,omitempty"`
}

// BufferMultiplier returns the appointment-type scaling applied to the
// specialty's base buffer.
func (t AppointmentType) BufferMultiplier() float64 {
	switch t {
	case AppointmentProcedure:
		return 2.0
	case AppointmentExam:
		return 1.5
	case AppointmentEmergency:
		return 0.5
	default:
		return 1.0
	}
}

// AllowsSameDay reports whether the type may be booked for the current day.
func (t AppointmentType) AllowsSameDay() bool {
	switch t {
	case AppointmentProcedure:
		return false
	default:
		return true
	}
}

// RequiresReason reports whether a booking of this type must carry a reason.
func (t AppointmentType) RequiresReason() bool {
	switch t {
	case AppointmentProcedure, AppointmentEmergency:
		return true
	default:
		return false
	}
}
