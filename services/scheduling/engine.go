package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinicore/config"
	appointmentRepo "clinicore/database/repository/appointment"
	doctorRepo "clinicore/database/repository/doctor"
	"clinicore/models"
)

// DefaultSchedulingEngine is the production implementation.
type DefaultSchedulingEngine struct {
	DoctorRepo doctorRepo.DoctorRepository
	ApptRepo   appointmentRepo.AppointmentRepository

	BusinessHoursStart int // minutes from midnight
	BusinessHoursEnd   int // minutes from midnight
}

// NewDefaultSchedulingEngine wires the engine with repositories and the
// configured business hours.
func NewDefaultSchedulingEngine(doctors doctorRepo.DoctorRepository, appts appointmentRepo.AppointmentRepository, cfg config.Config) *DefaultSchedulingEngine {
	return &DefaultSchedulingEngine{
		DoctorRepo:         doctors,
		ApptRepo:           appts,
		BusinessHoursStart: cfg.BusinessHoursStart,
		BusinessHoursEnd:   cfg.BusinessHoursEnd,
	}
}

// FindAvailableSlots walks each eligible doctor's weekly templates over the
// requested range, rejects infeasible slots, scores the survivors and
// returns them ranked by confidence then start time.
func (se *DefaultSchedulingEngine) FindAvailableSlots(ctx context.Context, criteria models.SchedulingCriteria) ([]models.AvailableSlot, error) {
	doctors, err := se.eligibleDoctors(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return []models.AvailableSlot{}, nil
	}

	durationMin := se.effectiveDuration(ctx, criteria)

	var slots []models.AvailableSlot
	for _, doctor := range doctors {
		doctorSlots, err := se.slotsForDoctor(ctx, doctor, criteria, durationMin)
		if err != nil {
			return nil, fmt.Errorf("computing slots for doctor %s: %w", doctor.ID, err)
		}
		slots = append(slots, doctorSlots...)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Confidence != slots[j].Confidence {
			return slots[i].Confidence > slots[j].Confidence
		}
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots, nil
}

// eligibleDoctors resolves the explicit doctor or every active doctor in the
// specialty with an open panel.
func (se *DefaultSchedulingEngine) eligibleDoctors(ctx context.Context, criteria models.SchedulingCriteria) ([]models.Doctor, error) {
	if criteria.DoctorID != "" {
		doctor, err := se.DoctorRepo.GetByID(ctx, criteria.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("resolving doctor %s: %w", criteria.DoctorID, err)
		}
		if !doctor.Active {
			return []models.Doctor{}, nil
		}
		return []models.Doctor{*doctor}, nil
	}
	doctors, err := se.DoctorRepo.ListBySpecialty(ctx, criteria.SpecialtyID, true)
	if err != nil {
		return nil, fmt.Errorf("listing doctors for specialty %s: %w", criteria.SpecialtyID, err)
	}
	return doctors, nil
}

// effectiveDuration resolves the slot length for the request from the
// specialty defaults and the type buffer. When the specialty cannot be
// resolved, slotsForDay falls back to the template's own duration.
func (se *DefaultSchedulingEngine) effectiveDuration(ctx context.Context, criteria models.SchedulingCriteria) int {
	spec, err := se.DoctorRepo.GetSpecialty(ctx, criteria.SpecialtyID)
	if err != nil {
		return criteria.DurationMinutes
	}
	return AppointmentDuration(criteria, *spec)
}

// slotsForDoctor generates and scores one doctor's candidate slots across
// the requested date range.
func (se *DefaultSchedulingEngine) slotsForDoctor(ctx context.Context, doctor models.Doctor, criteria models.SchedulingCriteria, durationMin int) ([]models.AvailableSlot, error) {
	rangeStart := dayFloor(criteria.StartDate)
	rangeEnd := dayFloor(criteria.EndDate).AddDate(0, 0, 1)

	existing, err := se.ApptRepo.ListActiveByDoctorRange(ctx, doctor.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("loading existing appointments: %w", err)
	}

	var slots []models.AvailableSlot
	for day := rangeStart; day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		template := doctor.TemplateFor(day.Weekday())
		if template == nil {
			continue
		}
		slots = append(slots, se.slotsForDay(doctor, *template, day, existing, criteria, durationMin)...)
	}
	return slots, nil
}

// slotsForDay steps through one day's template on the template grid, sizing
// each candidate by the effective appointment length and dropping slots that
// overlap breaks, existing active appointments, or fall outside business
// hours.
func (se *DefaultSchedulingEngine) slotsForDay(doctor models.Doctor, template models.AvailabilityTemplate, day time.Time, existing []models.Appointment, criteria models.SchedulingCriteria, durationMin int) []models.AvailableSlot {
	if template.SlotDurationMin <= 0 {
		return nil
	}
	length := durationMin
	if length <= 0 {
		length = template.SlotDurationMin
	}

	var slots []models.AvailableSlot
	for startMin := template.Start; startMin+length <= template.End; startMin += template.SlotDurationMin {
		endMin := startMin + length

		if startMin < se.BusinessHoursStart || endMin > se.BusinessHoursEnd {
			continue
		}
		if overlapsBreak(template.Breaks, startMin, endMin) {
			continue
		}

		slotStart := day.Add(time.Duration(startMin) * time.Minute)
		slotEnd := day.Add(time.Duration(endMin) * time.Minute)
		if conflictsWithExisting(existing, slotStart, slotEnd) {
			continue
		}

		slot := models.AvailableSlot{
			ID:              models.SlotID(doctor.ID, slotStart),
			DoctorID:        doctor.ID,
			Start:           slotStart,
			End:             slotEnd,
			DurationMinutes: length,
			SlotType:        models.SlotRegular,
		}
		se.scoreSlot(&slot, existing, criteria)
		slots = append(slots, slot)
	}
	return slots
}

// overlapsBreak applies the half-open overlap test against break windows.
func overlapsBreak(breaks []models.BreakWindow, startMin, endMin int) bool {
	for _, b := range breaks {
		if startMin < b.End && endMin > b.Start {
			return true
		}
	}
	return false
}

// conflictsWithExisting applies the half-open overlap test against active
// appointments: slotStart < existingEnd && slotEnd > existingStart.
func conflictsWithExisting(existing []models.Appointment, slotStart, slotEnd time.Time) bool {
	for _, appt := range existing {
		if appt.Overlaps(slotStart, slotEnd) {
			return true
		}
	}
	return false
}

// AppointmentDuration computes the effective appointment length for the
// request: the requested or specialty-default duration plus the specialty
// buffer scaled by the appointment-type multiplier.
func AppointmentDuration(criteria models.SchedulingCriteria, spec models.Specialty) int {
	duration := criteria.DurationMinutes
	if duration <= 0 {
		duration = spec.DefaultDurationMin
	}
	buffer := int(float64(spec.BufferMin) * criteria.AppointmentType.BufferMultiplier())
	return duration + buffer
}

func dayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
