package intelligence

import (
	"context"
	"fmt"
	"sort"
	"time"

	appointmentRepo "clinicore/database/repository/appointment"
	doctorRepo "clinicore/database/repository/doctor"
	resourceRepo "clinicore/database/repository/resource"
	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// DefaultInsightService implements InsightService.
type DefaultInsightService struct {
	ApptRepo     appointmentRepo.AppointmentRepository
	DoctorRepo   doctorRepo.DoctorRepository
	ResourceRepo resourceRepo.ResourceRepository
}

// Ranking weights. The adjustment is bounded so advisory re-ranking can
// nudge but never invert a strong confidence difference.
const (
	loadBalanceWeight = 0.15
	popularityWeight  = 0.10
	historyWeight     = 0.10
)

// RankSlots reorders candidates without dropping any. Per-doctor load over
// the criteria window spreads bookings across the panel; mid-morning and
// mid-afternoon starts get a small popularity nudge; doctors the patient has
// seen before rank higher.
func (s *DefaultInsightService) RankSlots(ctx context.Context, criteria models.SchedulingCriteria, slots []models.AvailableSlot) []models.AvailableSlot {
	if len(slots) < 2 {
		return slots
	}

	load := s.doctorLoad(ctx, slots, criteria.StartDate, criteria.EndDate)
	history := s.visitHistory(ctx, criteria.PatientID, slots)

	type ranked struct {
		slot  models.AvailableSlot
		score float64
	}
	rankedSlots := make([]ranked, len(slots))
	maxLoad := 1
	for _, n := range load {
		if n > maxLoad {
			maxLoad = n
		}
	}
	for i, sl := range slots {
		score := sl.Confidence
		// Lightly loaded doctors score higher.
		score += loadBalanceWeight * (1.0 - float64(load[sl.DoctorID])/float64(maxLoad))
		score += popularityWeight * timeOfDayPopularity(sl.Start)
		if history[sl.DoctorID] {
			score += historyWeight
		}
		rankedSlots[i] = ranked{slot: sl, score: score}
	}

	sort.SliceStable(rankedSlots, func(i, j int) bool {
		return rankedSlots[i].score > rankedSlots[j].score
	})
	out := make([]models.AvailableSlot, len(rankedSlots))
	for i, r := range rankedSlots {
		out[i] = r.slot
	}
	return out
}

// doctorLoad counts active appointments per doctor across the window.
func (s *DefaultInsightService) doctorLoad(ctx context.Context, slots []models.AvailableSlot, start, end time.Time) map[string]int {
	load := make(map[string]int)
	seen := make(map[string]bool)
	for _, sl := range slots {
		if seen[sl.DoctorID] {
			continue
		}
		seen[sl.DoctorID] = true
		appts, err := s.ApptRepo.ListActiveByDoctorRange(ctx, sl.DoctorID, start, end)
		if err != nil {
			utils.GetLogger().Warn("load lookup failed during ranking",
				zap.String("doctorId", sl.DoctorID), zap.Error(err))
			continue
		}
		load[sl.DoctorID] = len(appts)
	}
	return load
}

// visitHistory marks doctors the patient has completed visits with.
func (s *DefaultInsightService) visitHistory(ctx context.Context, patientID string, slots []models.AvailableSlot) map[string]bool {
	history := make(map[string]bool)
	for _, sl := range slots {
		if _, done := history[sl.DoctorID]; done {
			continue
		}
		n, err := s.ApptRepo.CountVisits(ctx, patientID, sl.DoctorID)
		history[sl.DoctorID] = err == nil && n > 0
	}
	return history
}

// timeOfDayPopularity reflects observed booking demand: mid-morning peaks,
// mid-afternoon close behind, edges of the day trail off.
func timeOfDayPopularity(t time.Time) float64 {
	switch h := t.Hour(); {
	case h >= 9 && h < 11:
		return 1.0
	case h >= 14 && h < 16:
		return 0.8
	case h >= 11 && h < 14:
		return 0.5
	default:
		return 0.2
	}
}

// Utilization thresholds for recommendations.
const (
	overloadedAppointments = 12
	underusedBookings      = 2
)

// OperationalRecommendations inspects one day's doctor and room utilization.
func (s *DefaultInsightService) OperationalRecommendations(ctx context.Context, specialtyID string, day time.Time) ([]Recommendation, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var recs []Recommendation

	doctors, err := s.DoctorRepo.ListBySpecialty(ctx, specialtyID, false)
	if err != nil {
		return nil, fmt.Errorf("listing doctors for recommendations: %w", err)
	}
	for _, doc := range doctors {
		appts, err := s.ApptRepo.ListActiveByDoctorRange(ctx, doc.ID, dayStart, dayEnd)
		if err != nil {
			continue
		}
		switch {
		case len(appts) >= overloadedAppointments:
			recs = append(recs, Recommendation{
				Kind:     "DOCTOR_OVERLOADED",
				Subject:  doc.ID,
				Detail:   fmt.Sprintf("%s has %d appointments; consider redistributing", doc.Name, len(appts)),
				Severity: "ATTENTION",
				Metric:   float64(len(appts)),
			})
		case len(appts) == 0 && doc.TemplateFor(dayStart.Weekday()) != nil:
			recs = append(recs, Recommendation{
				Kind:     "DOCTOR_IDLE",
				Subject:  doc.ID,
				Detail:   fmt.Sprintf("%s is working but has no bookings", doc.Name),
				Severity: "INFO",
			})
		}
	}

	roomCounts, err := s.ResourceRepo.CountBookingsInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return recs, fmt.Errorf("counting room bookings: %w", err)
	}
	for roomID, n := range roomCounts {
		if n <= underusedBookings {
			recs = append(recs, Recommendation{
				Kind:     "ROOM_UNDERUSED",
				Subject:  roomID,
				Detail:   fmt.Sprintf("room has only %d bookings today", n),
				Severity: "INFO",
				Metric:   float64(n),
			})
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Severity != recs[j].Severity {
			return recs[i].Severity == "ATTENTION"
		}
		return recs[i].Subject < recs[j].Subject
	})
	return recs, nil
}
