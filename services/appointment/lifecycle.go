package appointment

import (
	"context"
	"fmt"

	"clinicore/models"
)

// ConfirmAppointment transitions SCHEDULED → CONFIRMED.
func (s *DefaultAppointmentService) ConfirmAppointment(ctx context.Context, appointmentID string) error {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !appt.CanTransitionTo(models.StatusConfirmed) {
		return fmt.Errorf("cannot confirm a %s appointment", appt.Status)
	}
	if err := s.ApptRepo.UpdateStatus(ctx, appointmentID, models.StatusConfirmed); err != nil {
		return err
	}
	appt.Status = models.StatusConfirmed
	s.NotificationSvc.NotifyAppointmentEvent(ctx, "confirmed", appt)
	return nil
}

// StartAppointment transitions CONFIRMED → IN_PROGRESS.
func (s *DefaultAppointmentService) StartAppointment(ctx context.Context, appointmentID, doctorID string) error {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.DoctorID != doctorID {
		return fmt.Errorf("only the assigned doctor may start the appointment")
	}
	if !appt.CanTransitionTo(models.StatusInProgress) {
		return fmt.Errorf("cannot start a %s appointment", appt.Status)
	}
	return s.ApptRepo.UpdateStatus(ctx, appointmentID, models.StatusInProgress)
}

// CompleteAppointment transitions IN_PROGRESS → COMPLETED. Only the
// assigned doctor may complete, and only from IN_PROGRESS.
func (s *DefaultAppointmentService) CompleteAppointment(ctx context.Context, appointmentID, doctorID, diagnosis, prescription string) error {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.DoctorID != doctorID {
		return fmt.Errorf("only the assigned doctor may complete the appointment")
	}
	if appt.Status != models.StatusInProgress {
		return fmt.Errorf("appointments complete only from IN_PROGRESS, not %s", appt.Status)
	}

	appt.Status = models.StatusCompleted
	appt.Diagnosis = diagnosis
	appt.Prescription = prescription
	if err := s.ApptRepo.Update(ctx, appt); err != nil {
		return fmt.Errorf("persisting completion: %w", err)
	}

	s.releaseSchedule(ctx, appt)
	s.NotificationSvc.NotifyAppointmentEvent(ctx, "completed", appt)
	return nil
}

// MarkNoShow records a missed appointment and increments the patient's
// strike count, suspending the account at the configured limit.
func (s *DefaultAppointmentService) MarkNoShow(ctx context.Context, appointmentID string) error {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !appt.CanTransitionTo(models.StatusNoShow) {
		return fmt.Errorf("cannot mark a %s appointment as no-show", appt.Status)
	}
	if err := s.ApptRepo.UpdateStatus(ctx, appointmentID, models.StatusNoShow); err != nil {
		return err
	}
	if err := s.PatientRepo.IncrementNoShow(ctx, appt.PatientID, s.StrikeLimit); err != nil {
		return fmt.Errorf("recording no-show strike: %w", err)
	}

	s.releaseSchedule(ctx, appt)
	appt.Status = models.StatusNoShow
	s.NotificationSvc.NotifyAppointmentEvent(ctx, "no_show", appt)
	return nil
}
