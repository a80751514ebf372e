package notification

import (
	"context"

	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// DefaultNotificationService logs dispatch events. Actual delivery (push,
// calendar, messaging) is wired by external collaborators consuming these
// events downstream.
type DefaultNotificationService struct{}

// NewDefaultNotificationService builds the logging dispatcher.
func NewDefaultNotificationService() *DefaultNotificationService {
	return &DefaultNotificationService{}
}

// NotifyAppointmentEvent records an appointment state transition.
func (s *DefaultNotificationService) NotifyAppointmentEvent(_ context.Context, event string, appt *models.Appointment) {
	logger := utils.GetLogger()
	logger.Info("appointment notification",
		zap.String("event", event),
		zap.String("appointmentId", appt.ID),
		zap.String("patientId", appt.PatientID),
		zap.String("doctorId", appt.DoctorID),
		zap.Time("scheduledAt", appt.ScheduledAt),
	)
}

// NotifyQueueEvent records a waitlist transition, including freed-slot offers.
func (s *DefaultNotificationService) NotifyQueueEvent(_ context.Context, event string, entry *models.QueueEntry, slot *models.AvailableSlot) {
	logger := utils.GetLogger()
	fields := []zap.Field{
		zap.String("event", event),
		zap.String("entryId", entry.ID),
		zap.String("patientId", entry.PatientID),
	}
	if slot != nil {
		fields = append(fields, zap.String("slotId", slot.ID), zap.Time("slotStart", slot.Start))
	}
	logger.Info("queue notification", fields...)
}

// NotifyManualIntervention flags a case staff must resolve by hand.
func (s *DefaultNotificationService) NotifyManualIntervention(_ context.Context, reason string, appointmentID string) {
	logger := utils.GetLogger()
	logger.Warn("manual intervention required",
		zap.String("reason", reason),
		zap.String("appointmentId", appointmentID),
	)
}
