package appointment

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// CancelAppointment validates the cancellation, applies the fee policy,
// releases the interval and its resources, and hands the freed slot to the
// waitlist.
func (s *DefaultAppointmentService) CancelAppointment(ctx context.Context, appointmentID, cancelledBy, reason string) (*models.Appointment, models.CancellationQuote, error) {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, models.CancellationQuote{}, err
	}
	if !appt.CanTransitionTo(models.StatusCancelled) {
		return nil, models.CancellationQuote{}, fmt.Errorf("cannot cancel a %s appointment", appt.Status)
	}

	quote, err := s.Rules.ValidateCancellation(ctx, appt, time.Now())
	if err != nil {
		return nil, quote, fmt.Errorf("validating cancellation: %w", err)
	}
	if !quote.Allowed {
		return nil, quote, &CancellationError{Quote: quote}
	}

	now := time.Now()
	appt.Status = models.StatusCancelled
	appt.CancelledAt = &now
	appt.CancelledBy = cancelledBy
	appt.CancellationNote = reason
	appt.CancellationFee = quote.Fee
	if err := s.ApptRepo.Update(ctx, appt); err != nil {
		return nil, quote, fmt.Errorf("persisting cancellation: %w", err)
	}

	s.releaseSchedule(ctx, appt)
	s.NotificationSvc.NotifyAppointmentEvent(ctx, "cancelled", appt)

	// The freed interval may satisfy someone on the waitlist.
	freed := s.freedSlot(appt)
	if err := s.QueueSvc.ProcessFreedSlot(ctx, appt.SpecialtyID, freed); err != nil {
		utils.GetLogger().Warn("freed-slot queue processing failed",
			zap.String("appointmentId", appt.ID), zap.Error(err))
	}

	return appt, quote, nil
}

// RescheduleAppointment books the new slot first, then retires the original
// so a mid-flight failure never leaves the patient without an appointment.
func (s *DefaultAppointmentService) RescheduleAppointment(ctx context.Context, appointmentID string, newSlot models.AvailableSlot) (*models.Appointment, error) {
	original, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	criteria := models.SchedulingCriteria{
		SpecialtyID:     original.SpecialtyID,
		DoctorID:        newSlot.DoctorID,
		AppointmentType: original.Type,
		StartDate:       newSlot.Start,
		EndDate:         newSlot.End,
		PatientID:       original.PatientID,
		Reason:          original.Reason,
	}

	result, err := s.Rules.ValidateReschedule(ctx, original, criteria, newSlot)
	if err != nil {
		return nil, fmt.Errorf("validating reschedule: %w", err)
	}
	if !result.IsValid {
		return nil, &ValidationError{Result: result}
	}

	replacement, err := s.executeBooking(ctx, criteria, newSlot, models.StatusScheduled, original.Notes)
	if err != nil {
		return nil, err
	}
	replacement.RescheduledFrom = original.ID
	replacement.RescheduleCount = original.RescheduleCount + 1
	replacement.Fee = original.Fee
	replacement.PaymentStatus = original.PaymentStatus
	if err := s.ApptRepo.Update(ctx, replacement); err != nil {
		// Roll back the replacement so there is no duplicate booking.
		if stErr := s.ApptRepo.UpdateStatus(ctx, replacement.ID, models.StatusCancelled); stErr != nil {
			utils.GetLogger().Error("rollback of replacement booking failed",
				zap.String("appointmentId", replacement.ID), zap.Error(stErr))
		}
		s.releaseSchedule(ctx, replacement)
		return nil, fmt.Errorf("linking replacement appointment: %w", err)
	}

	original.Status = models.StatusRescheduled
	original.RescheduledTo = replacement.ID
	if err := s.ApptRepo.Update(ctx, original); err != nil {
		if stErr := s.ApptRepo.UpdateStatus(ctx, replacement.ID, models.StatusCancelled); stErr != nil {
			utils.GetLogger().Error("rollback of replacement booking failed",
				zap.String("appointmentId", replacement.ID), zap.Error(stErr))
		}
		s.releaseSchedule(ctx, replacement)
		return nil, fmt.Errorf("retiring original appointment: %w", err)
	}

	s.releaseSchedule(ctx, original)
	s.NotificationSvc.NotifyAppointmentEvent(ctx, "rescheduled", replacement)

	freed := s.freedSlot(original)
	if err := s.QueueSvc.ProcessFreedSlot(ctx, original.SpecialtyID, freed); err != nil {
		utils.GetLogger().Warn("freed-slot queue processing failed",
			zap.String("appointmentId", original.ID), zap.Error(err))
	}
	return replacement, nil
}

// DisplaceAppointment frees an appointment's interval for an emergency bump
// without charging the patient.
func (s *DefaultAppointmentService) DisplaceAppointment(ctx context.Context, appointmentID, reason string) (*models.Appointment, error) {
	appt, err := s.ApptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.IsTerminal() {
		return nil, fmt.Errorf("appointment %s is already %s", appointmentID, appt.Status)
	}

	appt.Status = models.StatusRescheduled
	appt.Notes = appendNote(appt.Notes, fmt.Sprintf("displaced: %s", reason))
	if err := s.ApptRepo.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("displacing appointment: %w", err)
	}

	s.releaseSchedule(ctx, appt)
	return appt, nil
}

// releaseSchedule frees resources and invalidates the cached availability
// for the appointment's doctor and day.
func (s *DefaultAppointmentService) releaseSchedule(ctx context.Context, appt *models.Appointment) {
	if err := s.Resources.Release(ctx, appt.ID); err != nil {
		utils.GetLogger().Warn("resource release failed",
			zap.String("appointmentId", appt.ID), zap.Error(err))
	}
	s.Availability.InvalidateDoctorDay(ctx, appt.DoctorID, appt.ScheduledAt.Format("2006-01-02"))
}

// freedSlot turns a retired appointment's interval into a candidate slot
// for waitlist processing.
func (s *DefaultAppointmentService) freedSlot(appt *models.Appointment) models.AvailableSlot {
	return models.AvailableSlot{
		ID:              models.SlotID(appt.DoctorID, appt.ScheduledAt),
		DoctorID:        appt.DoctorID,
		Start:           appt.ScheduledAt,
		End:             appt.EndTime,
		DurationMinutes: appt.DurationMinutes,
		Confidence:      0.5,
		SlotType:        models.SlotRegular,
	}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}
