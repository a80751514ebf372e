package emergency

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// MonitorPendingEmergencies scans active emergency appointments in the next
// two hours and escalates the ones that are due or overdue. Idempotent; the
// background worker runs it on a short interval.
func (s *DefaultEmergencyService) MonitorPendingEmergencies(ctx context.Context) error {
	logger := utils.GetLogger()
	now := time.Now()

	appts, err := s.ApptRepo.ListUpcomingEmergencies(ctx, now.Add(2*time.Hour))
	if err != nil {
		return fmt.Errorf("listing upcoming emergencies: %w", err)
	}

	for i := range appts {
		appt := &appts[i]
		if appt.Status == models.StatusInProgress {
			continue
		}
		switch {
		case appt.ScheduledAt.Before(now):
			logger.Warn("emergency appointment overdue",
				zap.String("appointmentId", appt.ID),
				zap.Time("scheduledAt", appt.ScheduledAt),
			)
			s.NotificationSvc.NotifyManualIntervention(ctx,
				"emergency appointment overdue and not started", appt.ID)
		case appt.ScheduledAt.Sub(now) <= 15*time.Minute:
			s.NotificationSvc.NotifyAppointmentEvent(ctx, "emergency_due", appt)
		}
	}
	return nil
}
