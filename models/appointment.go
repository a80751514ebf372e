package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "SCHEDULED"
	StatusConfirmed   AppointmentStatus = "CONFIRMED"
	StatusInProgress  AppointmentStatus = "IN_PROGRESS"
	StatusCompleted   AppointmentStatus = "COMPLETED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
	StatusNoShow      AppointmentStatus = "NO_SHOW"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
)

// PaymentStatus tracks the fee settlement of an appointment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentWaived   PaymentStatus = "WAIVED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Appointment is the durable scheduling entity. Everything else in the
// engine is a transient view derived from appointments plus doctor
// availability templates.
type Appointment struct {
	ID              string            `bson:"id" json:"id"`
	PatientID       string            `bson:"patient_id" json:"patientId"`
	DoctorID        string            `bson:"doctor_id" json:"doctorId"`
	SpecialtyID     string            `bson:"specialty_id" json:"specialtyId"`
	ScheduledAt     time.Time         `bson:"scheduled_at" json:"scheduledAt"`
	EndTime         time.Time         `bson:"end_time" json:"endTime"`
	DurationMinutes int               `bson:"duration_minutes" json:"durationMinutes"`
	Status          AppointmentStatus `bson:"status" json:"status"`
	Type            AppointmentType   `bson:"type" json:"type"`

	Reason       string `bson:"reason,omitempty" json:"reason,omitempty"`
	Symptoms     string `bson:"symptoms,omitempty" json:"symptoms,omitempty"`
	Notes        string `bson:"notes,omitempty" json:"notes,omitempty"`
	Diagnosis    string `bson:"diagnosis,omitempty" json:"diagnosis,omitempty"`
	Prescription string `bson:"prescription,omitempty" json:"prescription,omitempty"`

	CancelledAt      *time.Time `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy      string     `bson:"cancelled_by,omitempty" json:"cancelledBy,omitempty"`
	CancellationNote string     `bson:"cancellation_note,omitempty" json:"cancellationNote,omitempty"`
	CancellationFee  float64    `bson:"cancellation_fee,omitempty" json:"cancellationFee,omitempty"`

	RescheduleCount int    `bson:"reschedule_count" json:"rescheduleCount"`
	RescheduledFrom string `bson:"rescheduled_from,omitempty" json:"rescheduledFrom,omitempty"`
	RescheduledTo   string `bson:"rescheduled_to,omitempty" json:"rescheduledTo,omitempty"`

	Fee           float64       `bson:"fee" json:"fee"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"paymentStatus"`

	RoomID       string   `bson:"room_id,omitempty" json:"roomId,omitempty"`
	EquipmentIDs []string `bson:"equipment_ids,omitempty" json:"equipmentIds,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the appointment still occupies its interval for
// overlap purposes.
func (a Appointment) IsActive() bool {
	switch a.Status {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (a Appointment) IsTerminal() bool {
	switch a.Status {
	case StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	default:
		return false
	}
}

// Overlaps applies the half-open interval test against another window.
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.ScheduledAt.Before(end) && a.EndTime.After(start)
}

// CanTransitionTo enforces the appointment state machine.
func (a Appointment) CanTransitionTo(next AppointmentStatus) bool {
	switch a.Status {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCancelled ||
			next == StatusNoShow || next == StatusRescheduled
	case StatusConfirmed:
		return next == StatusInProgress || next == StatusCancelled ||
			next == StatusNoShow || next == StatusRescheduled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusRescheduled
	default:
		return false
	}
}
