package notification

import (
	"context"

	"clinicore/models"
)

// NotificationService is the outbound boundary for patient/doctor messaging.
// Delivery is handled by external integrations; the engine fires
// best-effort events after each state transition and never blocks on them.
type NotificationService interface {
	NotifyAppointmentEvent(ctx context.Context, event string, appt *models.Appointment)
	NotifyQueueEvent(ctx context.Context, event string, entry *models.QueueEntry, slot *models.AvailableSlot)
	NotifyManualIntervention(ctx context.Context, reason string, appointmentID string)
}
