package scheduling

import (
	"time"

	"clinicore/models"
)

// Scoring weights. Every surviving slot starts at the base confidence and
// collects bonuses; the result is clamped to 1.0.
const (
	baseConfidence      = 0.5
	preferredTimeBonus  = 0.3
	optimalHourBonus    = 0.1
	emergencyProxBonus  = 0.2
	utilizationBonusMax = 0.1
)

// Morning and afternoon "optimal" buckets, minutes from midnight.
const (
	morningOptimalStart   = 9 * 60
	morningOptimalEnd     = 11 * 60
	afternoonOptimalStart = 14 * 60
	afternoonOptimalEnd   = 16 * 60
)

// scoreSlot assigns confidence, optimality and utilization metadata.
func (se *DefaultSchedulingEngine) scoreSlot(slot *models.AvailableSlot, existing []models.Appointment, criteria models.SchedulingCriteria) {
	confidence := baseConfidence

	if matchesPreferredTime(slot.Start, criteria.PreferredTimes) {
		confidence += preferredTimeBonus
		slot.PreferenceMatch = 1.0
	}

	startMin := slot.Start.Hour()*60 + slot.Start.Minute()
	if (startMin >= morningOptimalStart && startMin < morningOptimalEnd) ||
		(startMin >= afternoonOptimalStart && startMin < afternoonOptimalEnd) {
		confidence += optimalHourBonus
		slot.IsOptimal = true
	}

	if (criteria.Emergency || criteria.UrgencyLevel >= 8) && time.Until(slot.Start) <= 4*time.Hour && time.Until(slot.Start) >= 0 {
		confidence += emergencyProxBonus
	}

	density := clusterDensity(slot.Start, slot.End, existing)
	slot.UtilizationScore = density
	confidence += utilizationBonusMax * density

	if confidence > 1.0 {
		confidence = 1.0
	}
	slot.Confidence = confidence
}

// matchesPreferredTime reports whether the slot starts within 30 minutes of
// any preferred "HH:MM" time.
func matchesPreferredTime(start time.Time, preferred []string) bool {
	if len(preferred) == 0 {
		return false
	}
	startMin := start.Hour()*60 + start.Minute()
	for _, p := range preferred {
		if len(p) != 5 || p[2] != ':' {
			continue
		}
		h := int(p[0]-'0')*10 + int(p[1]-'0')
		m := int(p[3]-'0')*10 + int(p[4]-'0')
		if h < 0 || h > 23 || m < 0 || m > 59 {
			continue
		}
		prefMin := h*60 + m
		diff := startMin - prefMin
		if diff < 0 {
			diff = -diff
		}
		if diff <= 30 {
			return true
		}
	}
	return false
}

// clusterDensity measures how tightly the slot packs against existing
// appointments: the fraction of the two adjacent hour-wide windows already
// occupied. Denser placement reduces schedule fragmentation.
func clusterDensity(slotStart, slotEnd time.Time, existing []models.Appointment) float64 {
	if len(existing) == 0 {
		return 0
	}
	neighbors := 0
	for _, appt := range existing {
		beforeGap := slotStart.Sub(appt.EndTime)
		afterGap := appt.ScheduledAt.Sub(slotEnd)
		if (beforeGap >= 0 && beforeGap <= time.Hour) || (afterGap >= 0 && afterGap <= time.Hour) {
			neighbors++
		}
	}
	density := float64(neighbors) / 2.0
	if density > 1.0 {
		density = 1.0
	}
	return density
}
