package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinicore/models"
)

// OptimizeSchedule proposes a rearrangement of one doctor's day that packs
// appointments front-to-back and groups similar types together. The
// proposal is advisory only; nothing is persisted.
func (se *DefaultSchedulingEngine) OptimizeSchedule(ctx context.Context, doctorID string, day time.Time) (*DayOptimization, error) {
	dayStart := dayFloor(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	appts, err := se.ApptRepo.ListActiveByDoctorRange(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("loading day schedule: %w", err)
	}

	opt := &DayOptimization{
		DoctorID: doctorID,
		Date:     dayStart.Format("2006-01-02"),
	}
	if len(appts) < 2 {
		return opt, nil
	}

	doctor, err := se.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("resolving doctor: %w", err)
	}
	template := doctor.TemplateFor(dayStart.Weekday())
	if template == nil {
		return opt, nil
	}

	// Group by appointment type, then order each group by current start so
	// the repacked day keeps similar visits adjacent.
	ordered := make([]models.Appointment, len(appts))
	copy(ordered, appts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Type != ordered[j].Type {
			return ordered[i].Type < ordered[j].Type
		}
		return ordered[i].ScheduledAt.Before(ordered[j].ScheduledAt)
	})

	cursor := dayStart.Add(time.Duration(template.Start) * time.Minute)
	gapBefore := totalGapMinutes(appts)

	for _, appt := range ordered {
		duration := appt.EndTime.Sub(appt.ScheduledAt)
		newStart := cursor
		newEnd := cursor.Add(duration)
		if !newStart.Equal(appt.ScheduledAt) {
			opt.Changes = append(opt.Changes, ProposedChange{
				AppointmentID: appt.ID,
				CurrentStart:  appt.ScheduledAt,
				NewStart:      newStart,
				NewEnd:        newEnd,
				Rationale:     "pack schedule and group similar appointment types",
			})
		}
		cursor = newEnd
	}

	// A fully packed schedule carries no interior gaps.
	opt.GapMinutesSaved = gapBefore
	return opt, nil
}

// totalGapMinutes sums the idle stretches between consecutive appointments.
func totalGapMinutes(appts []models.Appointment) int {
	if len(appts) < 2 {
		return 0
	}
	sorted := make([]models.Appointment, len(appts))
	copy(sorted, appts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ScheduledAt.Before(sorted[j].ScheduledAt)
	})

	total := 0
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].ScheduledAt.Sub(sorted[i-1].EndTime)
		if gap > 0 {
			total += int(gap.Minutes())
		}
	}
	return total
}
