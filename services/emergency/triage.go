package emergency

import (
	"strings"
	"time"

	"clinicore/models"
)

// Symptom keyword classes. Matching is case-insensitive substring search so
// free-text symptom lists ("crushing chest pain") still classify.
var lifeThreateningSymptoms = []string{
	"chest pain",
	"cardiac arrest",
	"stroke",
	"unconscious",
	"not breathing",
	"difficulty breathing",
	"severe bleeding",
	"anaphylaxis",
	"seizure",
}

var moderateSymptoms = []string{
	"high fever",
	"fracture",
	"severe pain",
	"persistent vomiting",
	"dehydration",
	"deep laceration",
}

// TriageEmergencyRequest maps symptoms, pain level and vital signs onto an
// urgency level, a medical priority class and a required response time.
func TriageEmergencyRequest(req models.EmergencyRequest) models.EmergencyAssessment {
	assessment := models.EmergencyAssessment{
		UrgencyLevel:            3,
		PriorityClass:           models.PriorityNonUrgent,
		RequiredResponseMinutes: 24 * 60,
		CanWait:                 true,
		RequiredDoctorID:        req.DoctorID,
		RequiredEquipment:       req.RequiredEquipment,
		AssessedAt:              time.Now(),
	}

	if matchesAny(req.Symptoms, lifeThreateningSymptoms) || criticalVitals(req.Vitals) {
		assessment.UrgencyLevel = 10
		assessment.PriorityClass = models.PriorityLifeThreatening
		assessment.RequiredResponseMinutes = 15
		assessment.CanWait = false
		return assessment
	}

	if matchesAny(req.Symptoms, moderateSymptoms) || req.PainLevel >= 7 {
		assessment.UrgencyLevel = 7
		assessment.PriorityClass = models.PriorityUrgent
		assessment.RequiredResponseMinutes = 60
		return assessment
	}

	if req.PainLevel >= 4 {
		assessment.UrgencyLevel = 5
		assessment.PriorityClass = models.PrioritySemiUrgent
		assessment.RequiredResponseMinutes = 4 * 60
	}
	return assessment
}

func matchesAny(symptoms []string, keywords []string) bool {
	for _, symptom := range symptoms {
		lowered := strings.ToLower(symptom)
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
	}
	return false
}

// criticalVitals flags measurements incompatible with waiting.
func criticalVitals(v *models.VitalSigns) bool {
	if v == nil {
		return false
	}
	if v.HeartRate > 0 && (v.HeartRate > 140 || v.HeartRate < 40) {
		return true
	}
	if v.SystolicBP > 0 && (v.SystolicBP < 80 || v.SystolicBP > 200) {
		return true
	}
	if v.OxygenSaturation > 0 && v.OxygenSaturation < 90 {
		return true
	}
	if v.RespiratoryRate > 0 && (v.RespiratoryRate > 30 || v.RespiratoryRate < 8) {
		return true
	}
	if v.TemperatureC > 40.5 {
		return true
	}
	return false
}
