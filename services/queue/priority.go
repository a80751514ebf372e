package queue

import (
	"time"

	"clinicore/models"
)

// Canonical waitlist priority formula:
//
//	priority = base(appointmentType) + classBonus(patientClass)
//	         + urgencyLevel*8
//	         + min(waitHours*0.5, 50)
//	         + fairnessBoost (48h: +15, 72h: +30)
//
// The wait-time contribution is capped so age alone cannot dominate medical
// urgency, while the fairness boosts guarantee entries waiting past the
// thresholds keep climbing regardless of base score. The score is monotone
// non-decreasing in wait time.
const (
	urgencyWeight   = 8.0
	waitHourWeight  = 0.5
	waitContribCap  = 50.0
	fairness48Boost = 15.0
	fairness72Boost = 30.0
)

func basePriority(t models.AppointmentType) float64 {
	switch t {
	case models.AppointmentEmergency:
		return 50
	case models.AppointmentProcedure:
		return 30
	case models.AppointmentExam:
		return 25
	case models.AppointmentFollowUp:
		return 20
	default:
		return 15
	}
}

func classBonus(c models.PatientClass) float64 {
	switch c {
	case models.ClassVIP:
		return 20
	case models.ClassNew:
		return 5
	default:
		return 0
	}
}

// PriorityScore computes the entry's priority as of now.
func PriorityScore(entry models.QueueEntry, now time.Time) float64 {
	score := basePriority(entry.AppointmentType) + classBonus(entry.PatientClass)
	score += float64(entry.UrgencyLevel) * urgencyWeight

	waitHours := now.Sub(entry.CreatedAt).Hours()
	if waitHours < 0 {
		waitHours = 0
	}
	waitContrib := waitHours * waitHourWeight
	if waitContrib > waitContribCap {
		waitContrib = waitContribCap
	}
	score += waitContrib

	switch {
	case waitHours >= 72:
		score += fairness72Boost
	case waitHours >= 48:
		score += fairness48Boost
	}
	return score
}
