package emergency

import (
	"testing"

	"clinicore/models"

	"github.com/stretchr/testify/assert"
)

func TestTriageLifeThreateningSymptoms(t *testing.T) {
	req := models.EmergencyRequest{
		PatientID:   "pat-1",
		SpecialtyID: "cardio",
		Symptoms:    []string{"crushing CHEST PAIN radiating to left arm"},
	}
	assessment := TriageEmergencyRequest(req)

	assert.Equal(t, 10, assessment.UrgencyLevel)
	assert.Equal(t, models.PriorityLifeThreatening, assessment.PriorityClass)
	assert.Equal(t, 15, assessment.RequiredResponseMinutes)
	assert.False(t, assessment.CanWait)
}

func TestTriageCriticalVitalsOverrideMildSymptoms(t *testing.T) {
	req := models.EmergencyRequest{
		PatientID:   "pat-1",
		SpecialtyID: "general",
		Symptoms:    []string{"feeling dizzy"},
		Vitals:      &models.VitalSigns{OxygenSaturation: 85},
	}
	assessment := TriageEmergencyRequest(req)

	assert.Equal(t, models.PriorityLifeThreatening, assessment.PriorityClass)
	assert.False(t, assessment.CanWait)
}

func TestTriageVitalThresholds(t *testing.T) {
	cases := []struct {
		name     string
		vitals   models.VitalSigns
		critical bool
	}{
		{"tachycardia", models.VitalSigns{HeartRate: 150}, true},
		{"bradycardia", models.VitalSigns{HeartRate: 35}, true},
		{"normal heart rate", models.VitalSigns{HeartRate: 80}, false},
		{"hypotension", models.VitalSigns{SystolicBP: 75}, true},
		{"hypertensive crisis", models.VitalSigns{SystolicBP: 210}, true},
		{"normal pressure", models.VitalSigns{SystolicBP: 120}, false},
		{"hypoxia", models.VitalSigns{OxygenSaturation: 88}, true},
		{"normal saturation", models.VitalSigns{OxygenSaturation: 97}, false},
		{"tachypnea", models.VitalSigns{RespiratoryRate: 35}, true},
		{"hyperthermia", models.VitalSigns{TemperatureC: 41}, true},
		{"fever below threshold", models.VitalSigns{TemperatureC: 39}, false},
		{"unmeasured", models.VitalSigns{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.critical, criticalVitals(&tc.vitals))
		})
	}
}

func TestTriageUrgentOnModerateSymptomsOrHighPain(t *testing.T) {
	bySymptom := TriageEmergencyRequest(models.EmergencyRequest{
		PatientID: "pat-1", SpecialtyID: "ortho",
		Symptoms: []string{"suspected fracture after fall"},
	})
	assert.Equal(t, models.PriorityUrgent, bySymptom.PriorityClass)
	assert.Equal(t, 60, bySymptom.RequiredResponseMinutes)
	assert.True(t, bySymptom.CanWait)

	byPain := TriageEmergencyRequest(models.EmergencyRequest{
		PatientID: "pat-1", SpecialtyID: "general",
		Symptoms: []string{"abdominal discomfort"}, PainLevel: 8,
	})
	assert.Equal(t, models.PriorityUrgent, byPain.PriorityClass)
}

func TestTriageSemiUrgentAndNonUrgent(t *testing.T) {
	semi := TriageEmergencyRequest(models.EmergencyRequest{
		PatientID: "pat-1", SpecialtyID: "general",
		Symptoms: []string{"sprained ankle"}, PainLevel: 5,
	})
	assert.Equal(t, models.PrioritySemiUrgent, semi.PriorityClass)
	assert.Equal(t, 4*60, semi.RequiredResponseMinutes)

	mild := TriageEmergencyRequest(models.EmergencyRequest{
		PatientID: "pat-1", SpecialtyID: "general",
		Symptoms: []string{"mild rash"}, PainLevel: 1,
	})
	assert.Equal(t, models.PriorityNonUrgent, mild.PriorityClass)
	assert.True(t, mild.CanWait)
}

func TestTriageCarriesRequestConstraints(t *testing.T) {
	req := models.EmergencyRequest{
		PatientID:         "pat-1",
		SpecialtyID:       "cardio",
		DoctorID:          "doc-7",
		Symptoms:          []string{"stroke symptoms"},
		RequiredEquipment: []string{"ct-scanner"},
	}
	assessment := TriageEmergencyRequest(req)
	assert.Equal(t, "doc-7", assessment.RequiredDoctorID)
	assert.Equal(t, []string{"ct-scanner"}, assessment.RequiredEquipment)
}
