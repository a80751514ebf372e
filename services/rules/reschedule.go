package rules

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"
)

// ValidateReschedule enforces the reschedule cap, notice window and the
// same-day policy, then re-validates the proposed slot through the full
// booking pipeline.
func (e *DefaultRulesEngine) ValidateReschedule(ctx context.Context, appt *models.Appointment, criteria models.SchedulingCriteria, newSlot models.AvailableSlot) (models.ValidationResult, error) {
	result := models.NewValidationResult()
	now := time.Now()

	if appt == nil {
		return result, fmt.Errorf("appointment is required")
	}

	if appt.IsTerminal() {
		result.AddViolation(models.Violation{
			Code:     "APPOINTMENT_NOT_ACTIVE",
			Message:  fmt.Sprintf("a %s appointment cannot be rescheduled", appt.Status),
			Severity: models.ViolationError,
		})
	}

	if appt.RescheduleCount >= e.Policy.MaxReschedules {
		result.AddViolation(models.Violation{
			Code:     "RESCHEDULE_LIMIT_EXCEEDED",
			Message:  fmt.Sprintf("appointment has already been rescheduled %d times (limit %d)", appt.RescheduleCount, e.Policy.MaxReschedules),
			Severity: models.ViolationError,
		})
	}

	notice := appt.ScheduledAt.Sub(now)
	if notice < time.Duration(e.Policy.RescheduleNoticeMin)*time.Minute {
		result.AddViolation(models.Violation{
			Code:     "RESCHEDULE_NOTICE_TOO_SHORT",
			Message:  fmt.Sprintf("reschedules require at least %d minutes of notice", e.Policy.RescheduleNoticeMin),
			Severity: models.ViolationError,
		})
	}

	sameDay := newSlot.Start.Year() == appt.ScheduledAt.Year() && newSlot.Start.YearDay() == appt.ScheduledAt.YearDay()
	if sameDay && !e.Policy.AllowSameDayResched {
		result.AddViolation(models.Violation{
			Code:     "SAME_DAY_RESCHEDULE_DISABLED",
			Message:  "moving an appointment within the same day is not permitted",
			Severity: models.ViolationError,
		})
	}

	// The new slot must independently satisfy every booking rule.
	bookingResult, err := e.ValidateBooking(ctx, criteria, newSlot)
	if err != nil {
		return result, fmt.Errorf("re-validating new slot: %w", err)
	}
	result.Merge(bookingResult)

	return result, nil
}
