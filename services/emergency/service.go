package emergency

import (
	"context"
	"fmt"
	"sort"
	"time"

	appointmentRepo "clinicore/database/repository/appointment"
	doctorRepo "clinicore/database/repository/doctor"
	"clinicore/models"
	"clinicore/services/appointment"
	"clinicore/services/availability"
	"clinicore/services/notification"
	"clinicore/services/queue"
	"clinicore/services/scheduling"
	"clinicore/utils"

	"go.uber.org/zap"
)

// DefaultEmergencyService implements EmergencyService.
type DefaultEmergencyService struct {
	ApptRepo        appointmentRepo.AppointmentRepository
	DoctorRepo      doctorRepo.DoctorRepository
	Availability    availability.AvailabilityService
	Appointments    appointment.AppointmentService
	QueueSvc        queue.QueueService
	NotificationSvc notification.NotificationService
	Policy          EscalationPolicy
}

// HandleEmergency triages and then walks the escalation ladder. Each rung is
// tried in order; the first to produce an appointment wins.
func (s *DefaultEmergencyService) HandleEmergency(ctx context.Context, req models.EmergencyRequest) (*models.EmergencyResult, error) {
	logger := utils.GetLogger()
	assessment := TriageEmergencyRequest(req)
	logger.Info("emergency triaged",
		zap.String("patientId", req.PatientID),
		zap.Int("urgencyLevel", assessment.UrgencyLevel),
		zap.String("priorityClass", string(assessment.PriorityClass)),
	)

	type strategy struct {
		name    string
		enabled bool
		run     func(context.Context, models.EmergencyRequest, models.EmergencyAssessment) (*models.Appointment, []string, error)
	}
	strategies := []strategy{
		{"existing_gaps", true, s.bookExistingGap},
		{"bump_lower_priority", s.Policy.AllowBumping && s.bumpJustified(assessment), s.bumpAndBook},
		{"extended_hours", s.Policy.AllowExtendedHours, s.bookExtendedHours},
		{"alternate_doctor", req.DoctorID != "", s.bookAlternateDoctor},
		{"overbook", s.Policy.AllowOverbooking, s.overbook},
	}

	for _, strat := range strategies {
		if !strat.enabled {
			continue
		}
		appt, bumped, err := strat.run(ctx, req, assessment)
		if err != nil {
			logger.Warn("emergency strategy failed",
				zap.String("strategy", strat.name),
				zap.String("patientId", req.PatientID),
				zap.Error(err),
			)
			continue
		}
		if appt == nil {
			continue
		}
		logger.Info("emergency slot secured",
			zap.String("strategy", strat.name),
			zap.String("appointmentId", appt.ID),
			zap.Time("scheduledAt", appt.ScheduledAt),
		)
		return &models.EmergencyResult{
			Success:     true,
			Appointment: appt,
			Assessment:  assessment,
			Strategy:    strat.name,
			Bumped:      bumped,
		}, nil
	}

	return s.fallbackResult(ctx, req, assessment), nil
}

// bumpJustified restricts displacement to cases that cannot wait or exceed
// the configured override urgency.
func (s *DefaultEmergencyService) bumpJustified(assessment models.EmergencyAssessment) bool {
	return !assessment.CanWait || assessment.UrgencyLevel >= s.Policy.OverrideLevel
}

// bookExistingGap books a free slot inside the required response window.
func (s *DefaultEmergencyService) bookExistingGap(ctx context.Context, req models.EmergencyRequest, assessment models.EmergencyAssessment) (*models.Appointment, []string, error) {
	criteria := s.emergencyCriteria(req, assessment, req.DoctorID)
	slots, err := s.Availability.GetAvailability(ctx, criteria)
	if err != nil {
		return nil, nil, err
	}
	slot := pickSlot(slots, assessment)
	if slot == nil {
		return nil, nil, nil
	}
	slot.SlotType = models.SlotEmergency
	appt, err := s.Appointments.BookEmergencySlot(ctx, criteria, *slot, assessment)
	if err != nil {
		return nil, nil, err
	}
	return appt, nil, nil
}

// bumpAndBook displaces the lowest-impact non-emergency appointment inside
// the response window and books its interval. The displaced patient gets an
// immediate rebooking attempt; failing that they go to the front of the
// waitlist and staff are alerted.
func (s *DefaultEmergencyService) bumpAndBook(ctx context.Context, req models.EmergencyRequest, assessment models.EmergencyAssessment) (*models.Appointment, []string, error) {
	doctors, err := s.candidateDoctors(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	windowEnd := now.Add(time.Duration(assessment.RequiredResponseMinutes) * time.Minute)

	victim := s.findBumpVictim(ctx, doctors, now, windowEnd)
	if victim == nil {
		return nil, nil, nil
	}

	displaced, err := s.Appointments.DisplaceAppointment(ctx, victim.ID,
		fmt.Sprintf("bumped for %s emergency", assessment.PriorityClass))
	if err != nil {
		return nil, nil, err
	}

	slot := models.AvailableSlot{
		ID:              models.SlotID(displaced.DoctorID, displaced.ScheduledAt),
		DoctorID:        displaced.DoctorID,
		Start:           displaced.ScheduledAt,
		End:             displaced.EndTime,
		DurationMinutes: displaced.DurationMinutes,
		Confidence:      1.0,
		SlotType:        models.SlotEmergency,
	}
	criteria := s.emergencyCriteria(req, assessment, displaced.DoctorID)
	appt, err := s.Appointments.BookEmergencySlot(ctx, criteria, slot, assessment)
	if err != nil {
		return nil, nil, fmt.Errorf("booking bumped interval: %w", err)
	}

	s.rebookDisplaced(ctx, displaced)
	return appt, []string{displaced.ID}, nil
}

// findBumpVictim selects the displaceable appointment with the cheapest
// impact: never emergencies, consultations and follow-ups before procedures,
// later starts before earlier ones.
func (s *DefaultEmergencyService) findBumpVictim(ctx context.Context, doctors []models.Doctor, start, end time.Time) *models.Appointment {
	var candidates []models.Appointment
	for _, doc := range doctors {
		appts, err := s.ApptRepo.ListActiveByDoctorRange(ctx, doc.ID, start, end)
		if err != nil {
			continue
		}
		for _, a := range appts {
			if a.Type == models.AppointmentEmergency {
				continue
			}
			if a.Status == models.StatusInProgress {
				continue
			}
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := bumpCost(candidates[i]), bumpCost(candidates[j])
		if ci != cj {
			return ci < cj
		}
		return candidates[i].ScheduledAt.After(candidates[j].ScheduledAt)
	})
	return &candidates[0]
}

func bumpCost(a models.Appointment) int {
	switch a.Type {
	case models.AppointmentFollowUp:
		return 0
	case models.AppointmentConsultation:
		return 1
	case models.AppointmentExam:
		return 2
	default:
		return 3
	}
}

// rebookDisplaced tries to immediately land the bumped patient in another
// slot; otherwise they join the waitlist with elevated urgency and staff are
// asked to intervene.
func (s *DefaultEmergencyService) rebookDisplaced(ctx context.Context, displaced *models.Appointment) {
	logger := utils.GetLogger()
	criteria := models.SchedulingCriteria{
		SpecialtyID:     displaced.SpecialtyID,
		AppointmentType: displaced.Type,
		DurationMinutes: displaced.DurationMinutes,
		StartDate:       time.Now(),
		EndDate:         time.Now().Add(7 * 24 * time.Hour),
		PatientID:       displaced.PatientID,
		Reason:          displaced.Reason,
	}
	slots, err := s.Availability.GetAvailability(ctx, criteria)
	if err == nil {
		for i := range slots {
			replacement, bookErr := s.Appointments.BookAppointment(ctx, criteria, slots[i])
			if bookErr == nil {
				logger.Info("displaced patient rebooked",
					zap.String("originalId", displaced.ID),
					zap.String("replacementId", replacement.ID),
				)
				s.NotificationSvc.NotifyAppointmentEvent(ctx, "rebooked_after_bump", replacement)
				return
			}
		}
	}

	entry := models.QueueEntry{
		PatientID:       displaced.PatientID,
		DoctorID:        displaced.DoctorID,
		SpecialtyID:     displaced.SpecialtyID,
		AppointmentType: displaced.Type,
		MaxWaitDays:     7,
		UrgencyLevel:    6, // bumped patients jump the line
		AutoBook:        true,
	}
	if _, qErr := s.QueueSvc.Enqueue(ctx, entry); qErr != nil {
		logger.Error("failed to waitlist displaced patient",
			zap.String("appointmentId", displaced.ID), zap.Error(qErr))
	}
	s.NotificationSvc.NotifyManualIntervention(ctx,
		"displaced patient could not be rebooked automatically", displaced.ID)
}

// bookExtendedHours appends an emergency slot after the doctor's last
// commitment of the day.
func (s *DefaultEmergencyService) bookExtendedHours(ctx context.Context, req models.EmergencyRequest, assessment models.EmergencyAssessment) (*models.Appointment, []string, error) {
	doctors, err := s.candidateDoctors(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	duration := s.emergencyDuration(ctx, req.SpecialtyID)
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, doc := range doctors {
		tmpl := doc.TemplateFor(now.Weekday())
		if tmpl == nil {
			continue
		}
		start := dayStart.Add(time.Duration(tmpl.End) * time.Minute)
		appts, err := s.ApptRepo.ListActiveByDoctorRange(ctx, doc.ID, start, dayStart.Add(24*time.Hour))
		if err != nil {
			continue
		}
		for _, a := range appts {
			if a.EndTime.After(start) {
				start = a.EndTime
			}
		}
		if start.Before(now) {
			start = now
		}

		slot := models.AvailableSlot{
			ID:              models.SlotID(doc.ID, start),
			DoctorID:        doc.ID,
			Start:           start,
			End:             start.Add(time.Duration(duration) * time.Minute),
			DurationMinutes: duration,
			Confidence:      0.8,
			SlotType:        models.SlotEmergency,
		}
		criteria := s.emergencyCriteria(req, assessment, doc.ID)
		appt, err := s.Appointments.BookEmergencySlot(ctx, criteria, slot, assessment)
		if err != nil {
			continue
		}
		return appt, nil, nil
	}
	return nil, nil, nil
}

// bookAlternateDoctor retries the gap search across the whole specialty when
// the request named a specific doctor.
func (s *DefaultEmergencyService) bookAlternateDoctor(ctx context.Context, req models.EmergencyRequest, assessment models.EmergencyAssessment) (*models.Appointment, []string, error) {
	broadened := req
	broadened.DoctorID = ""
	return s.bookExistingGap(ctx, broadened, assessment)
}

// overbook deliberately double-books the least loaded candidate doctor with
// an overflow slot starting now. The storage overlap guard is bypassed for
// overflow slots only.
func (s *DefaultEmergencyService) overbook(ctx context.Context, req models.EmergencyRequest, assessment models.EmergencyAssessment) (*models.Appointment, []string, error) {
	doctors, err := s.candidateDoctors(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if len(doctors) == 0 {
		return nil, nil, nil
	}

	now := time.Now()
	windowEnd := now.Add(time.Duration(assessment.RequiredResponseMinutes) * time.Minute)
	best := doctors[0]
	bestLoad := -1
	for _, doc := range doctors {
		appts, err := s.ApptRepo.ListActiveByDoctorRange(ctx, doc.ID, now, windowEnd)
		if err != nil {
			continue
		}
		if bestLoad < 0 || len(appts) < bestLoad {
			best, bestLoad = doc, len(appts)
		}
	}

	duration := s.emergencyDuration(ctx, req.SpecialtyID)
	start := now.Truncate(5 * time.Minute).Add(5 * time.Minute)
	slot := models.AvailableSlot{
		ID:              models.SlotID(best.ID, start),
		DoctorID:        best.ID,
		Start:           start,
		End:             start.Add(time.Duration(duration) * time.Minute),
		DurationMinutes: duration,
		Confidence:      0.6,
		SlotType:        models.SlotOverflow,
	}
	criteria := s.emergencyCriteria(req, assessment, best.ID)
	appt, err := s.Appointments.BookEmergencySlot(ctx, criteria, slot, assessment)
	if err != nil {
		return nil, nil, err
	}
	s.NotificationSvc.NotifyManualIntervention(ctx,
		"emergency overbooked onto a full schedule", appt.ID)
	return appt, nil, nil
}

// fallbackResult reports failure with an estimated wait and the nearest
// alternatives over the coming week.
func (s *DefaultEmergencyService) fallbackResult(ctx context.Context, req models.EmergencyRequest, assessment models.EmergencyAssessment) *models.EmergencyResult {
	result := &models.EmergencyResult{
		Success:    false,
		Assessment: assessment,
		Message:    "no emergency capacity available; staff have been alerted",
	}

	criteria := s.emergencyCriteria(req, assessment, req.DoctorID)
	criteria.EndDate = time.Now().Add(7 * 24 * time.Hour)
	if slots, err := s.Availability.GetAvailability(ctx, criteria); err == nil && len(slots) > 0 {
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
		if len(slots) > 5 {
			slots = slots[:5]
		}
		result.Alternatives = slots
		result.EstimatedWaitMin = int(time.Until(slots[0].Start).Minutes())
	}

	s.NotificationSvc.NotifyManualIntervention(ctx,
		fmt.Sprintf("emergency for patient %s could not be placed (%s)",
			req.PatientID, assessment.PriorityClass), "")
	return result
}

// candidateDoctors resolves the set of doctors an emergency may land on.
func (s *DefaultEmergencyService) candidateDoctors(ctx context.Context, req models.EmergencyRequest) ([]models.Doctor, error) {
	if req.DoctorID != "" {
		doc, err := s.DoctorRepo.GetByID(ctx, req.DoctorID)
		if err != nil {
			return nil, err
		}
		return []models.Doctor{*doc}, nil
	}
	// Closed panels do not apply to emergencies.
	return s.DoctorRepo.ListBySpecialty(ctx, req.SpecialtyID, false)
}

// emergencyCriteria bounds the search to the triage response window.
func (s *DefaultEmergencyService) emergencyCriteria(req models.EmergencyRequest, assessment models.EmergencyAssessment, doctorID string) models.SchedulingCriteria {
	now := time.Now()
	return models.SchedulingCriteria{
		SpecialtyID:       req.SpecialtyID,
		DoctorID:          doctorID,
		AppointmentType:   models.AppointmentEmergency,
		StartDate:         now,
		EndDate:           now.Add(time.Duration(assessment.RequiredResponseMinutes) * time.Minute),
		PatientID:         req.PatientID,
		UrgencyLevel:      assessment.UrgencyLevel,
		Emergency:         true,
		RequiredEquipment: req.RequiredEquipment,
		Reason:            req.Description,
	}
}

// emergencyDuration derives the visit length from the specialty default plus
// the emergency-scaled buffer.
func (s *DefaultEmergencyService) emergencyDuration(ctx context.Context, specialtyID string) int {
	spec, err := s.DoctorRepo.GetSpecialty(ctx, specialtyID)
	if err != nil {
		return 30
	}
	criteria := models.SchedulingCriteria{AppointmentType: models.AppointmentEmergency}
	if d := scheduling.AppointmentDuration(criteria, *spec); d > 0 {
		return d
	}
	return 30
}

// pickSlot chooses the slot to book: the earliest when the patient cannot
// wait, otherwise the highest-confidence candidate.
func pickSlot(slots []models.AvailableSlot, assessment models.EmergencyAssessment) *models.AvailableSlot {
	if len(slots) == 0 {
		return nil
	}
	if !assessment.CanWait {
		earliest := slots[0]
		for _, sl := range slots[1:] {
			if sl.Start.Before(earliest.Start) {
				earliest = sl
			}
		}
		return &earliest
	}
	best := slots[0]
	for _, sl := range slots[1:] {
		if sl.Confidence > best.Confidence {
			best = sl
		}
	}
	return &best
}
