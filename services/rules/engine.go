package rules

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "clinicore/database/repository/appointment"
	doctorRepo "clinicore/database/repository/doctor"
	patientRepo "clinicore/database/repository/patient"
	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// DefaultRulesEngine implements RulesEngine.
type DefaultRulesEngine struct {
	DoctorRepo  doctorRepo.DoctorRepository
	PatientRepo patientRepo.PatientRepository
	ApptRepo    appointmentRepo.AppointmentRepository
	Resources   ResourceChecker
	Policy      Policy
}

// ValidateBooking runs the full validation pipeline against a proposed slot.
// Every validator runs regardless of earlier findings so the caller sees the
// complete picture in one pass.
func (e *DefaultRulesEngine) ValidateBooking(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot) (models.ValidationResult, error) {
	result := models.NewValidationResult()

	e.validateTiming(&result, criteria, slot)

	if err := e.validatePatient(ctx, &result, criteria); err != nil {
		return result, err
	}
	if err := e.validateDoctor(ctx, &result, criteria, slot); err != nil {
		return result, err
	}
	if err := e.validateSpecialty(ctx, &result, criteria, slot); err != nil {
		return result, err
	}
	e.validateAppointmentType(&result, criteria, slot)

	if e.Resources != nil {
		ok, err := e.Resources.ResourcesAvailable(ctx, criteria, slot.Start, slot.End)
		if err != nil {
			return result, fmt.Errorf("resource availability check failed: %w", err)
		}
		if !ok {
			result.AddViolation(models.Violation{
				Code:     "RESOURCE_UNAVAILABLE",
				Message:  "no room or equipment is free for the requested slot",
				Severity: models.ViolationError,
			})
		}
	}

	e.applyEmergencyOverride(&result, criteria)

	if !result.IsValid {
		utils.GetLogger().Debug("booking validation rejected",
			zap.String("patientId", criteria.PatientID),
			zap.Int("violations", len(result.Violations)),
		)
	}
	return result, nil
}

// validateTiming enforces the advance-booking ceiling, the minimum lead time
// and business-hours containment.
func (e *DefaultRulesEngine) validateTiming(result *models.ValidationResult, criteria models.SchedulingCriteria, slot models.AvailableSlot) {
	now := time.Now()

	if slot.Start.After(now.AddDate(0, 0, e.Policy.MaxAdvanceDays)) {
		result.AddViolation(models.Violation{
			Code:     "ADVANCE_LIMIT_EXCEEDED",
			Message:  fmt.Sprintf("appointments may be booked at most %d days ahead", e.Policy.MaxAdvanceDays),
			Severity: models.ViolationError,
			Field:    "startDate",
		})
	}

	if !criteria.Emergency && slot.Start.Before(now.Add(time.Duration(e.Policy.MinLeadMinutes)*time.Minute)) {
		result.AddViolation(models.Violation{
			Code:     "INSUFFICIENT_LEAD_TIME",
			Message:  fmt.Sprintf("bookings require at least %d minutes of notice", e.Policy.MinLeadMinutes),
			Severity: models.ViolationError,
			Field:    "startDate",
		})
	}

	startMin := slot.Start.Hour()*60 + slot.Start.Minute()
	endMin := slot.End.Hour()*60 + slot.End.Minute()
	if endMin == 0 {
		endMin = 24 * 60
	}
	if startMin < e.Policy.BusinessHoursStart || endMin > e.Policy.BusinessHoursEnd {
		result.AddViolation(models.Violation{
			Code:     "OUTSIDE_BUSINESS_HOURS",
			Message:  "requested slot falls outside clinic business hours",
			Severity: models.ViolationError,
			Field:    "startDate",
		})
	}
}

// validatePatient checks account standing and the no-show strike count.
func (e *DefaultRulesEngine) validatePatient(ctx context.Context, result *models.ValidationResult, criteria models.SchedulingCriteria) error {
	patient, err := e.PatientRepo.GetByID(ctx, criteria.PatientID)
	if err != nil {
		result.AddViolation(models.Violation{
			Code:     "PATIENT_NOT_FOUND",
			Message:  fmt.Sprintf("patient %s does not exist", criteria.PatientID),
			Severity: models.ViolationError,
			Field:    "patientId",
		})
		return nil
	}

	if patient.Suspended {
		result.AddViolation(models.Violation{
			Code:     "PATIENT_SUSPENDED",
			Message:  "patient account is suspended",
			Severity: models.ViolationError,
			Field:    "patientId",
		})
	}

	switch {
	case patient.NoShowCount >= e.Policy.StrikesBeforeSusp:
		result.AddViolation(models.Violation{
			Code:     "NO_SHOW_LIMIT_EXCEEDED",
			Message:  fmt.Sprintf("patient reached the no-show limit (%d)", e.Policy.StrikesBeforeSusp),
			Severity: models.ViolationError,
			Field:    "patientId",
		})
	case patient.NoShowCount == e.Policy.StrikesBeforeSusp-1:
		result.AddViolation(models.Violation{
			Code:     "NO_SHOW_WARNING",
			Message:  "one more missed appointment will suspend this account",
			Severity: models.ViolationWarning,
			Impact:   "HIGH",
		})
	}
	return nil
}

// validateDoctor checks that the doctor exists, is active and accepts the
// patient (closed panels admit patients with prior history).
func (e *DefaultRulesEngine) validateDoctor(ctx context.Context, result *models.ValidationResult, criteria models.SchedulingCriteria, slot models.AvailableSlot) error {
	doctorID := criteria.DoctorID
	if doctorID == "" {
		doctorID = slot.DoctorID
	}
	if doctorID == "" {
		return nil
	}

	doctor, err := e.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		result.AddViolation(models.Violation{
			Code:     "DOCTOR_NOT_FOUND",
			Message:  fmt.Sprintf("doctor %s does not exist", doctorID),
			Severity: models.ViolationError,
			Field:    "doctorId",
		})
		return nil
	}

	if !doctor.Active {
		result.AddViolation(models.Violation{
			Code:     "DOCTOR_INACTIVE",
			Message:  "doctor is not currently practicing",
			Severity: models.ViolationError,
			Field:    "doctorId",
		})
	}

	if !doctor.AcceptingPatients {
		visits, err := e.ApptRepo.CountVisits(ctx, criteria.PatientID, doctorID)
		if err != nil {
			return fmt.Errorf("prior-history lookup failed: %w", err)
		}
		if visits == 0 {
			result.AddViolation(models.Violation{
				Code:     "DOCTOR_NOT_ACCEPTING",
				Message:  "doctor is not accepting new patients",
				Severity: models.ViolationError,
				Field:    "doctorId",
			})
		}
	}
	return nil
}

// validateSpecialty checks the specialty is active and the requested
// duration is sane against its default.
func (e *DefaultRulesEngine) validateSpecialty(ctx context.Context, result *models.ValidationResult, criteria models.SchedulingCriteria, slot models.AvailableSlot) error {
	spec, err := e.DoctorRepo.GetSpecialty(ctx, criteria.SpecialtyID)
	if err != nil {
		result.AddViolation(models.Violation{
			Code:     "SPECIALTY_NOT_FOUND",
			Message:  fmt.Sprintf("specialty %s does not exist", criteria.SpecialtyID),
			Severity: models.ViolationError,
			Field:    "specialtyId",
		})
		return nil
	}

	if !spec.Active {
		result.AddViolation(models.Violation{
			Code:     "SPECIALTY_INACTIVE",
			Message:  "specialty is not currently offered",
			Severity: models.ViolationError,
			Field:    "specialtyId",
		})
	}

	if criteria.DurationMinutes > 0 && spec.DefaultDurationMin > 0 {
		// Sanity bounds: a quarter to four times the specialty default.
		minDur := spec.DefaultDurationMin / 4
		maxDur := spec.DefaultDurationMin * 4
		if criteria.DurationMinutes < minDur || criteria.DurationMinutes > maxDur {
			result.AddViolation(models.Violation{
				Code:     "DURATION_OUT_OF_RANGE",
				Message:  fmt.Sprintf("requested duration %dm is implausible for this specialty (default %dm)", criteria.DurationMinutes, spec.DefaultDurationMin),
				Severity: models.ViolationWarning,
			})
		}
	}
	return nil
}

// validateAppointmentType enforces per-type same-day and reason rules.
func (e *DefaultRulesEngine) validateAppointmentType(result *models.ValidationResult, criteria models.SchedulingCriteria, slot models.AvailableSlot) {
	now := time.Now()
	sameDay := slot.Start.Year() == now.Year() && slot.Start.YearDay() == now.YearDay()
	if sameDay && !criteria.AppointmentType.AllowsSameDay() && !criteria.Emergency {
		result.AddViolation(models.Violation{
			Code:     "SAME_DAY_NOT_ALLOWED",
			Message:  fmt.Sprintf("%s appointments cannot be booked for the current day", criteria.AppointmentType),
			Severity: models.ViolationError,
			Field:    "appointmentType",
		})
	}

	if criteria.AppointmentType.RequiresReason() && criteria.Reason == "" {
		result.AddViolation(models.Violation{
			Code:     "REASON_REQUIRED",
			Message:  fmt.Sprintf("%s appointments require a reason", criteria.AppointmentType),
			Severity: models.ViolationError,
			Field:    "reason",
		})
	}
}

// applyEmergencyOverride softens findings for genuinely urgent requests.
// At or above the override level, capacity-style violations become warnings.
// Only the top urgency bracket may convert business-hours violations into an
// allow-outside-hours modification.
func (e *DefaultRulesEngine) applyEmergencyOverride(result *models.ValidationResult, criteria models.SchedulingCriteria) {
	if !criteria.Emergency || criteria.UrgencyLevel < e.Policy.EmergencyOverride {
		return
	}

	kept := result.Violations[:0]
	for _, v := range result.Violations {
		switch v.Code {
		case "RESOURCE_UNAVAILABLE", "INSUFFICIENT_LEAD_TIME", "SAME_DAY_NOT_ALLOWED":
			v.Severity = models.ViolationWarning
			result.Warnings = append(result.Warnings, v)
		case "OUTSIDE_BUSINESS_HOURS":
			if criteria.UrgencyLevel >= 9 {
				result.Modifications = append(result.Modifications, models.Modification{
					Code:        "ALLOW_OUTSIDE_BUSINESS_HOURS",
					Description: "emergency urgency permits scheduling outside regular hours",
				})
			} else {
				kept = append(kept, v)
			}
		default:
			kept = append(kept, v)
		}
	}
	result.Violations = kept
	result.IsValid = true
	for _, v := range result.Violations {
		if v.Severity == models.ViolationError {
			result.IsValid = false
			break
		}
	}
}
