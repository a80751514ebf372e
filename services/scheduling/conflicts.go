package scheduling

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"
)

// CheckConflicts evaluates a candidate appointment against the doctor's
// existing schedule, clinic hours and turnover buffers. Double-booking is
// CRITICAL and never auto-resolvable; hours and buffer conflicts carry
// suggested resolutions.
func (se *DefaultSchedulingEngine) CheckConflicts(ctx context.Context, candidate models.Appointment) ([]models.Conflict, error) {
	var conflicts []models.Conflict

	dayStart := dayFloor(candidate.ScheduledAt)
	dayEnd := dayStart.AddDate(0, 0, 1)
	existing, err := se.ApptRepo.ListActiveByDoctorRange(ctx, candidate.DoctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("loading doctor schedule: %w", err)
	}

	if c := se.detectDoubleBooking(candidate, existing); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := se.detectOutsideHours(candidate); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := se.detectInsufficientBuffer(ctx, candidate, existing); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := se.detectDoctorUnavailable(ctx, candidate); c != nil {
		conflicts = append(conflicts, *c)
	}

	return conflicts, nil
}

// detectDoubleBooking finds overlapping active appointments for the doctor.
func (se *DefaultSchedulingEngine) detectDoubleBooking(candidate models.Appointment, existing []models.Appointment) *models.Conflict {
	var overlapping []string
	for _, appt := range existing {
		if appt.ID == candidate.ID {
			continue
		}
		if appt.Overlaps(candidate.ScheduledAt, candidate.EndTime) {
			overlapping = append(overlapping, appt.ID)
		}
	}
	if len(overlapping) == 0 {
		return nil
	}
	return &models.Conflict{
		Type:           models.ConflictDoubleBooking,
		Severity:       models.SeverityCritical,
		Message:        fmt.Sprintf("interval overlaps %d existing active appointment(s) for the doctor", len(overlapping)),
		AppointmentIDs: overlapping,
		AutoResolvable: false,
	}
}

// detectOutsideHours flags intervals escaping the clinic's business hours.
func (se *DefaultSchedulingEngine) detectOutsideHours(candidate models.Appointment) *models.Conflict {
	startMin := candidate.ScheduledAt.Hour()*60 + candidate.ScheduledAt.Minute()
	endMin := candidate.EndTime.Hour()*60 + candidate.EndTime.Minute()
	if endMin == 0 {
		endMin = 24 * 60
	}
	if startMin >= se.BusinessHoursStart && endMin <= se.BusinessHoursEnd {
		return nil
	}
	return &models.Conflict{
		Type:           models.ConflictOutsideHours,
		Severity:       models.SeverityHigh,
		Message:        "appointment falls outside clinic business hours",
		AppointmentIDs: []string{candidate.ID},
		AutoResolvable: true,
		Resolution: &models.Resolution{
			Strategy: "shift-within-hours",
			Actions: []models.ResolutionAction{
				{Description: "move the appointment to the nearest in-hours slot", Target: candidate.ID},
			},
			EstimatedImpact:  "single appointment moved",
			RequiresApproval: false,
		},
	}
}

// detectInsufficientBuffer checks the turnover gap against neighbors.
func (se *DefaultSchedulingEngine) detectInsufficientBuffer(ctx context.Context, candidate models.Appointment, existing []models.Appointment) *models.Conflict {
	spec, err := se.DoctorRepo.GetSpecialty(ctx, candidate.SpecialtyID)
	if err != nil || spec.BufferMin <= 0 {
		return nil
	}
	required := time.Duration(spec.BufferMin) * time.Minute

	var crowded []string
	for _, appt := range existing {
		if appt.ID == candidate.ID || appt.Overlaps(candidate.ScheduledAt, candidate.EndTime) {
			continue
		}
		gapBefore := candidate.ScheduledAt.Sub(appt.EndTime)
		gapAfter := appt.ScheduledAt.Sub(candidate.EndTime)
		if (gapBefore >= 0 && gapBefore < required) || (gapAfter >= 0 && gapAfter < required) {
			crowded = append(crowded, appt.ID)
		}
	}
	if len(crowded) == 0 {
		return nil
	}
	return &models.Conflict{
		Type:           models.ConflictInsufficientBuffer,
		Severity:       models.SeverityMedium,
		Message:        fmt.Sprintf("less than %dm of turnover around neighboring appointments", spec.BufferMin),
		AppointmentIDs: crowded,
		AutoResolvable: true,
		Resolution: &models.Resolution{
			Strategy: "widen-buffer",
			Actions: []models.ResolutionAction{
				{Description: "shift the appointment to restore the turnover gap", Target: candidate.ID},
			},
			EstimatedImpact:  "minor start-time adjustment",
			RequiresApproval: false,
		},
	}
}

// detectDoctorUnavailable verifies the doctor actually works the candidate's
// weekday and window.
func (se *DefaultSchedulingEngine) detectDoctorUnavailable(ctx context.Context, candidate models.Appointment) *models.Conflict {
	doctor, err := se.DoctorRepo.GetByID(ctx, candidate.DoctorID)
	if err != nil {
		return &models.Conflict{
			Type:           models.ConflictDoctorUnavailable,
			Severity:       models.SeverityCritical,
			Message:        fmt.Sprintf("doctor %s not found", candidate.DoctorID),
			AutoResolvable: false,
		}
	}
	template := doctor.TemplateFor(candidate.ScheduledAt.Weekday())
	if template == nil {
		return &models.Conflict{
			Type:           models.ConflictDoctorUnavailable,
			Severity:       models.SeverityHigh,
			Message:        "doctor has no availability template for this weekday",
			AppointmentIDs: []string{candidate.ID},
			AutoResolvable: false,
		}
	}
	startMin := candidate.ScheduledAt.Hour()*60 + candidate.ScheduledAt.Minute()
	endMin := candidate.EndTime.Hour()*60 + candidate.EndTime.Minute()
	if endMin == 0 {
		endMin = 24 * 60
	}
	if startMin < template.Start || endMin > template.End {
		return &models.Conflict{
			Type:           models.ConflictDoctorUnavailable,
			Severity:       models.SeverityHigh,
			Message:        "appointment falls outside the doctor's working window",
			AppointmentIDs: []string{candidate.ID},
			AutoResolvable: false,
		}
	}
	return nil
}
