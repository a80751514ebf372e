package appointment

import (
	"context"

	"clinicore/models"
)

// AppointmentService is the orchestrator: it composes validation, soft
// reservation, resource allocation and persistence into atomic book /
// cancel / reschedule / complete operations, and owns every mutation of the
// doctor schedule.
type AppointmentService interface {
	// BookAppointment executes validate → reserve → allocate → persist →
	// release-reservation as a unit, rolling back on any downstream failure.
	BookAppointment(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot) (*models.Appointment, error)
	// BookEmergencySlot books under emergency rules and auto-confirms,
	// attaching the triage assessment to the appointment notes.
	BookEmergencySlot(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot, assessment models.EmergencyAssessment) (*models.Appointment, error)
	// BookFromQueue books a freed slot for a waitlisted patient.
	BookFromQueue(ctx context.Context, entry models.QueueEntry, slot models.AvailableSlot) (*models.Appointment, error)
	// CancelAppointment validates, applies the fee policy, releases the
	// interval and resources, and re-processes the freed slot.
	CancelAppointment(ctx context.Context, appointmentID, cancelledBy, reason string) (*models.Appointment, models.CancellationQuote, error)
	// RescheduleAppointment moves an appointment to a new slot, linking the
	// replacement to the original.
	RescheduleAppointment(ctx context.Context, appointmentID string, newSlot models.AvailableSlot) (*models.Appointment, error)
	// DisplaceAppointment frees an appointment's interval for an emergency
	// bump without charging the patient. The caller is responsible for
	// rebooking or queueing the displaced patient.
	DisplaceAppointment(ctx context.Context, appointmentID, reason string) (*models.Appointment, error)
	// ConfirmAppointment transitions SCHEDULED → CONFIRMED.
	ConfirmAppointment(ctx context.Context, appointmentID string) error
	// StartAppointment transitions CONFIRMED → IN_PROGRESS.
	StartAppointment(ctx context.Context, appointmentID, doctorID string) error
	// CompleteAppointment transitions IN_PROGRESS → COMPLETED. Only the
	// assigned doctor may complete, and only from IN_PROGRESS.
	CompleteAppointment(ctx context.Context, appointmentID, doctorID, diagnosis, prescription string) error
	// MarkNoShow records a missed appointment and increments the patient's
	// strike count.
	MarkNoShow(ctx context.Context, appointmentID string) error
	// GetAppointment fetches one appointment.
	GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error)
}
