package rules

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clinicore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePatientRepo struct {
	patients map[string]*models.Patient
}

func (f *fakePatientRepo) GetByID(_ context.Context, id string) (*models.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient not found")
	}
	return p, nil
}

func (f *fakePatientRepo) IncrementNoShow(_ context.Context, id string, suspendAt int) error {
	p, ok := f.patients[id]
	if !ok {
		return fmt.Errorf("patient not found")
	}
	p.NoShowCount++
	if p.NoShowCount >= suspendAt {
		p.Suspended = true
	}
	return nil
}

type fakeDoctorRepo struct {
	doctors     map[string]*models.Doctor
	specialties map[string]*models.Specialty
}

func (f *fakeDoctorRepo) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, fmt.Errorf("doctor not found")
	}
	return d, nil
}

func (f *fakeDoctorRepo) ListBySpecialty(_ context.Context, specialtyID string, acceptingOnly bool) ([]models.Doctor, error) {
	var out []models.Doctor
	for _, d := range f.doctors {
		if d.SpecialtyID != specialtyID || !d.Active {
			continue
		}
		if acceptingOnly && !d.AcceptingPatients {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDoctorRepo) ListActive(_ context.Context) ([]models.Doctor, error) {
	var out []models.Doctor
	for _, d := range f.doctors {
		if d.Active {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDoctorRepo) GetSpecialty(_ context.Context, id string) (*models.Specialty, error) {
	s, ok := f.specialties[id]
	if !ok {
		return nil, fmt.Errorf("specialty not found")
	}
	return s, nil
}

type fakeApptRepo struct {
	appointments map[string]*models.Appointment
	visits       map[string]int // patientID:doctorID
}

func (f *fakeApptRepo) Create(_ context.Context, appt *models.Appointment) error {
	f.appointments[appt.ID] = appt
	return nil
}

func (f *fakeApptRepo) CreateOverbooked(_ context.Context, appt *models.Appointment) error {
	f.appointments[appt.ID] = appt
	return nil
}

func (f *fakeApptRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment not found")
	}
	return a, nil
}

func (f *fakeApptRepo) Update(_ context.Context, appt *models.Appointment) error {
	f.appointments[appt.ID] = appt
	return nil
}

func (f *fakeApptRepo) UpdateStatus(_ context.Context, id string, status models.AppointmentStatus) error {
	a, ok := f.appointments[id]
	if !ok {
		return fmt.Errorf("appointment not found")
	}
	a.Status = status
	return nil
}

func (f *fakeApptRepo) ListActiveByDoctorRange(_ context.Context, doctorID string, start, end time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && a.IsActive() && a.Overlaps(start, end) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeApptRepo) ListActiveByPatient(_ context.Context, patientID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appointments {
		if a.PatientID == patientID && a.IsActive() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeApptRepo) CountVisits(_ context.Context, patientID, doctorID string) (int, error) {
	return f.visits[patientID+":"+doctorID], nil
}

func (f *fakeApptRepo) ListUpcomingEmergencies(_ context.Context, until time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appointments {
		if a.Type == models.AppointmentEmergency && a.IsActive() && a.ScheduledAt.Before(until) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func testPolicy() Policy {
	return Policy{
		BusinessHoursStart:  8 * 60,
		BusinessHoursEnd:    18 * 60,
		MaxAdvanceDays:      180,
		MinLeadMinutes:      60,
		StrikesBeforeSusp:   3,
		MaxReschedules:      3,
		RescheduleNoticeMin: 120,
		AllowSameDayResched: true,
		EmergencyOverride:   8,
	}
}

func newTestEngine(strikes int) (*DefaultRulesEngine, *fakeApptRepo) {
	appts := &fakeApptRepo{
		appointments: map[string]*models.Appointment{},
		visits:       map[string]int{},
	}
	engine := &DefaultRulesEngine{
		DoctorRepo: &fakeDoctorRepo{
			doctors: map[string]*models.Doctor{
				"doc-1": {ID: "doc-1", SpecialtyID: "cardio", Active: true, AcceptingPatients: true},
			},
			specialties: map[string]*models.Specialty{
				"cardio": {ID: "cardio", Active: true, DefaultDurationMin: 30, BufferMin: 10},
			},
		},
		PatientRepo: &fakePatientRepo{
			patients: map[string]*models.Patient{
				"pat-1": {ID: "pat-1", NoShowCount: strikes},
			},
		},
		ApptRepo: appts,
		Policy:   testPolicy(),
	}
	return engine, appts
}

// inHoursSlot returns a slot two days out at 10:00 local, safely inside
// every timing rule.
func inHoursSlot() models.AvailableSlot {
	day := time.Now().AddDate(0, 0, 2)
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, day.Location())
	return models.AvailableSlot{
		ID:       models.SlotID("doc-1", start),
		DoctorID: "doc-1",
		Start:    start,
		End:      start.Add(30 * time.Minute),
	}
}

func baseCriteria() models.SchedulingCriteria {
	slot := inHoursSlot()
	return models.SchedulingCriteria{
		SpecialtyID:     "cardio",
		DoctorID:        "doc-1",
		AppointmentType: models.AppointmentConsultation,
		StartDate:       slot.Start,
		EndDate:         slot.End,
		PatientID:       "pat-1",
	}
}

func violationCodes(result models.ValidationResult) []string {
	var codes []string
	for _, v := range result.Violations {
		codes = append(codes, v.Code)
	}
	return codes
}

func TestValidateBookingCleanRequest(t *testing.T) {
	engine, _ := newTestEngine(0)

	result, err := engine.ValidateBooking(context.Background(), baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.True(t, result.IsValid, "violations: %v", result.Violations)
	assert.Empty(t, result.Violations)
}

func TestValidateBookingNoShowLimit(t *testing.T) {
	engine, _ := newTestEngine(3)

	result, err := engine.ValidateBooking(context.Background(), baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, violationCodes(result), "NO_SHOW_LIMIT_EXCEEDED")
}

func TestValidateBookingNoShowWarningOneStrikeBelow(t *testing.T) {
	engine, _ := newTestEngine(2)

	result, err := engine.ValidateBooking(context.Background(), baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "NO_SHOW_WARNING", result.Warnings[0].Code)
	assert.Equal(t, "HIGH", result.Warnings[0].Impact)
}

func TestValidateBookingSuspendedPatient(t *testing.T) {
	engine, _ := newTestEngine(0)
	engine.PatientRepo.(*fakePatientRepo).patients["pat-1"].Suspended = true

	result, err := engine.ValidateBooking(context.Background(), baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, violationCodes(result), "PATIENT_SUSPENDED")
}

func TestValidateBookingClosedPanelAdmitsPriorHistory(t *testing.T) {
	engine, appts := newTestEngine(0)
	engine.DoctorRepo.(*fakeDoctorRepo).doctors["doc-1"].AcceptingPatients = false

	result, err := engine.ValidateBooking(context.Background(), baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.Contains(t, violationCodes(result), "DOCTOR_NOT_ACCEPTING")

	appts.visits["pat-1:doc-1"] = 2
	result, err = engine.ValidateBooking(context.Background(), baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.NotContains(t, violationCodes(result), "DOCTOR_NOT_ACCEPTING")
}

func TestEmergencyOverrideSoftensLeadTime(t *testing.T) {
	engine, _ := newTestEngine(0)

	// A slot ten minutes out violates the one-hour lead rule.
	start := time.Now().Add(10 * time.Minute)
	slot := models.AvailableSlot{
		ID:       models.SlotID("doc-1", start),
		DoctorID: "doc-1",
		Start:    start,
		End:      start.Add(30 * time.Minute),
	}
	criteria := baseCriteria()
	criteria.StartDate = start
	criteria.AppointmentType = models.AppointmentEmergency
	criteria.Reason = "severe chest pain"

	result, err := engine.ValidateBooking(context.Background(), criteria, slot)
	require.NoError(t, err)
	if start.Hour() >= 8 && start.Hour() < 17 {
		assert.Contains(t, violationCodes(result), "INSUFFICIENT_LEAD_TIME")
	}

	criteria.Emergency = true
	criteria.UrgencyLevel = 8
	result, err = engine.ValidateBooking(context.Background(), criteria, slot)
	require.NoError(t, err)
	assert.NotContains(t, violationCodes(result), "INSUFFICIENT_LEAD_TIME")
}

func TestValidateRescheduleCap(t *testing.T) {
	engine, _ := newTestEngine(0)

	appt := &models.Appointment{
		ID:              "appt-1",
		PatientID:       "pat-1",
		DoctorID:        "doc-1",
		SpecialtyID:     "cardio",
		Status:          models.StatusScheduled,
		ScheduledAt:     time.Now().Add(72 * time.Hour),
		EndTime:         time.Now().Add(72*time.Hour + 30*time.Minute),
		RescheduleCount: 3,
	}

	result, err := engine.ValidateReschedule(context.Background(), appt, baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, violationCodes(result), "RESCHEDULE_LIMIT_EXCEEDED")
}

func TestValidateRescheduleNotice(t *testing.T) {
	engine, _ := newTestEngine(0)

	appt := &models.Appointment{
		ID:          "appt-1",
		PatientID:   "pat-1",
		DoctorID:    "doc-1",
		SpecialtyID: "cardio",
		Status:      models.StatusScheduled,
		ScheduledAt: time.Now().Add(30 * time.Minute),
		EndTime:     time.Now().Add(60 * time.Minute),
	}

	result, err := engine.ValidateReschedule(context.Background(), appt, baseCriteria(), inHoursSlot())
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, violationCodes(result), "RESCHEDULE_NOTICE_TOO_SHORT")
}
