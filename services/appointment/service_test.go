package appointment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"clinicore/models"
	"clinicore/services/availability"
	"clinicore/services/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApptRepo struct {
	appointments map[string]*models.Appointment
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

func (f *fakeApptRepo) CountVisits(_ context.Context, _, _ string) (int, error) { return 0, nil }

func (f *fakeApptRepo) ListUpcomingEmergencies(_ context.Context, _ time.Time) ([]models.Appointment, error) {
	return nil, nil
}

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

// fakeRules returns canned outcomes so the orchestration logic is exercised
// in isolation.
type fakeRules struct {
	bookingResult    models.ValidationResult
	rescheduleResult models.ValidationResult
	cancelQuote      models.CancellationQuote
}

func permissiveRules() *fakeRules {
	return &fakeRules{
		bookingResult:    models.ValidationResult{IsValid: true},
		rescheduleResult: models.ValidationResult{IsValid: true},
		cancelQuote:      models.CancellationQuote{Allowed: true, Fee: 25, FeePercent: 0.25},
	}
}

func (f *fakeRules) ValidateBooking(_ context.Context, _ models.SchedulingCriteria, _ models.AvailableSlot) (models.ValidationResult, error) {
	return f.bookingResult, nil
}

func (f *fakeRules) ValidateCancellation(_ context.Context, _ *models.Appointment, _ time.Time) (models.CancellationQuote, error) {
	return f.cancelQuote, nil
}

func (f *fakeRules) ValidateReschedule(_ context.Context, _ *models.Appointment, _ models.SchedulingCriteria, _ models.AvailableSlot) (models.ValidationResult, error) {
	return f.rescheduleResult, nil
}

// memoryReserver mirrors the redis reserver's single-holder semantics.
type memoryReserver struct {
	holds        map[string]string // slotID -> patientID
	invalidated  []string
	reserveCalls int
}

func newMemoryReserver() *memoryReserver {
	return &memoryReserver{holds: map[string]string{}}
}

func (m *memoryReserver) ReserveSlotTemporarily(_ context.Context, slotID, patientID string, _ time.Duration) error {
	m.reserveCalls++
	if holder, held := m.holds[slotID]; held && holder != patientID {
		return availability.ErrSlotHeld
	}
	m.holds[slotID] = patientID
	return nil
}

func (m *memoryReserver) ReleaseTemporaryReservation(_ context.Context, slotID, patientID string) error {
	if m.holds[slotID] == patientID {
		delete(m.holds, slotID)
	}
	return nil
}

func (m *memoryReserver) GetAvailability(_ context.Context, _ models.SchedulingCriteria) ([]models.AvailableSlot, error) {
	return nil, nil
}

func (m *memoryReserver) GetBulkAvailability(_ context.Context, criteriaList []models.SchedulingCriteria) [][]models.AvailableSlot {
	return make([][]models.AvailableSlot, len(criteriaList))
}

func (m *memoryReserver) InvalidateDoctorDay(_ context.Context, doctorID string, day string) {
	m.invalidated = append(m.invalidated, doctorID+"@"+day)
}

type fakeResources struct {
	allocErr   error
	confirmErr error
	released   []string
}

func (f *fakeResources) Allocate(_ context.Context, _ models.SchedulingCriteria, _, _ time.Time) (*models.ResourceAllocation, error) {
	if f.allocErr != nil {
		return nil, f.allocErr
	}
	return &models.ResourceAllocation{RoomID: "room-1", AllocationScore: 0.9}, nil
}

func (f *fakeResources) ResourcesAvailable(_ context.Context, _ models.SchedulingCriteria, _, _ time.Time) (bool, error) {
	return f.allocErr == nil, nil
}

func (f *fakeResources) ConfirmAllocation(_ context.Context, appointmentID string, alloc models.ResourceAllocation, _, _ time.Time) (*models.ResourceBooking, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &models.ResourceBooking{AppointmentID: appointmentID, RoomID: alloc.RoomID}, nil
}

func (f *fakeResources) Release(_ context.Context, appointmentID string) error {
	f.released = append(f.released, appointmentID)
	return nil
}

func (f *fakeResources) Utilization(_ context.Context, _, _ time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}

type fakeQueue struct {
	freedSlots []models.AvailableSlot
}

func (f *fakeQueue) Enqueue(_ context.Context, entry models.QueueEntry) (*models.QueueEntry, error) {
	return &entry, nil
}

func (f *fakeQueue) Withdraw(_ context.Context, _ string) error { return nil }

func (f *fakeQueue) GetEntry(_ context.Context, _ string) (*models.QueueEntry, int64, error) {
	return nil, 0, fmt.Errorf("not used")
}

func (f *fakeQueue) ListByPriority(_ context.Context, _, _ string) ([]models.QueueEntry, error) {
	return nil, nil
}

func (f *fakeQueue) ProcessFreedSlot(_ context.Context, _ string, slot models.AvailableSlot) error {
	f.freedSlots = append(f.freedSlots, slot)
	return nil
}

func (f *fakeQueue) SweepPriorities(_ context.Context) error { return nil }

func (f *fakeQueue) ExpireOffer(_ context.Context, _ string) error { return nil }

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) NotifyAppointmentEvent(_ context.Context, event string, _ *models.Appointment) {
	r.events = append(r.events, event)
}

func (r *recordingNotifier) NotifyQueueEvent(_ context.Context, event string, _ *models.QueueEntry, _ *models.AvailableSlot) {
	r.events = append(r.events, event)
}

func (r *recordingNotifier) NotifyManualIntervention(_ context.Context, _ string, _ string) {}

type orchestratorFixture struct {
	svc       *DefaultAppointmentService
	repo      *fakeApptRepo
	patients  *fakePatientRepo
	rules     *fakeRules
	reserver  *memoryReserver
	resources *fakeResources
	queue     *fakeQueue
	notifier  *recordingNotifier
}

func newOrchestrator() *orchestratorFixture {
	repo := &fakeApptRepo{appointments: map[string]*models.Appointment{}}
	patients := &fakePatientRepo{patients: map[string]*models.Patient{
		"pat-1": {ID: "pat-1"},
		"pat-2": {ID: "pat-2"},
	}}
	r := permissiveRules()
	reserver := newMemoryReserver()
	resources := &fakeResources{}
	q := &fakeQueue{}
	notifier := &recordingNotifier{}

	svc := &DefaultAppointmentService{
		ApptRepo:    repo,
		PatientRepo: patients,
		DoctorRepo: &fakeDoctorRepo{
			doctors: map[string]*models.Doctor{
				"doc-1": {ID: "doc-1", SpecialtyID: "cardio", Active: true, AcceptingPatients: true, ConsultationFee: 150},
			},
			specialties: map[string]*models.Specialty{
				"cardio": {ID: "cardio", Active: true, DefaultDurationMin: 30, BufferMin: 10, BaseFee: 100},
			},
		},
		Rules:           r,
		Availability:    reserver,
		Resources:       resources,
		QueueSvc:        q,
		NotificationSvc: notifier,
		ReservationTTL:  5 * time.Minute,
		StrikeLimit:     3,
	}
	return &orchestratorFixture{
		svc: svc, repo: repo, patients: patients, rules: r,
		reserver: reserver, resources: resources, queue: q, notifier: notifier,
	}
}

func tomorrowSlot() models.AvailableSlot {
	start := time.Now().AddDate(0, 0, 1).Truncate(time.Hour)
	return models.AvailableSlot{
		ID:              models.SlotID("doc-1", start),
		DoctorID:        "doc-1",
		Start:           start,
		End:             start.Add(30 * time.Minute),
		DurationMinutes: 30,
		Confidence:      0.9,
		SlotType:        models.SlotRegular,
	}
}

func bookingCriteria(patientID string) models.SchedulingCriteria {
	slot := tomorrowSlot()
	return models.SchedulingCriteria{
		SpecialtyID:     "cardio",
		DoctorID:        "doc-1",
		AppointmentType: models.AppointmentConsultation,
		StartDate:       slot.Start,
		EndDate:         slot.End,
		PatientID:       patientID,
	}
}

func TestBookAppointmentHappyPath(t *testing.T) {
	fx := newOrchestrator()

	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.NoError(t, err)
	require.NotNil(t, appt)

	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.Equal(t, "pat-1", appt.PatientID)
	assert.Equal(t, "doc-1", appt.DoctorID)
	assert.Equal(t, 30, appt.DurationMinutes)
	assert.Equal(t, 150.0, appt.Fee)
	assert.Equal(t, "room-1", appt.RoomID)

	_, persisted := fx.repo.appointments[appt.ID]
	assert.True(t, persisted)
	assert.Empty(t, fx.reserver.holds, "reservation must be released after booking")
	assert.NotEmpty(t, fx.reserver.invalidated)
	assert.Contains(t, fx.notifier.events, "booked")
}

func TestBookAppointmentRejectsRuleViolations(t *testing.T) {
	fx := newOrchestrator()
	fx.rules.bookingResult = models.ValidationResult{
		IsValid:    false,
		Violations: []models.Violation{{Code: "PATIENT_SUSPENDED", Severity: models.ViolationError}},
	}

	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.Error(t, err)
	assert.Nil(t, appt)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "PATIENT_SUSPENDED", vErr.Result.Violations[0].Code)

	assert.Empty(t, fx.repo.appointments, "nothing may persist on a rejected booking")
	assert.Zero(t, fx.reserver.reserveCalls, "validation precedes the slot hold")
}

func TestBookAppointmentSlotHoldIsExclusive(t *testing.T) {
	fx := newOrchestrator()
	slot := tomorrowSlot()

	// Another flow holds the slot: the booking must fail without side effects.
	require.NoError(t, fx.reserver.ReserveSlotTemporarily(context.Background(), slot.ID, "pat-2", time.Minute))

	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), slot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, availability.ErrSlotHeld))
	assert.Nil(t, appt)
	assert.Empty(t, fx.repo.appointments)

	// Once the competing hold is gone the same request succeeds.
	require.NoError(t, fx.reserver.ReleaseTemporaryReservation(context.Background(), slot.ID, "pat-2"))
	appt, err = fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), slot)
	require.NoError(t, err)
	assert.NotNil(t, appt)
}

func TestBookAppointmentRollsBackOnConfirmFailure(t *testing.T) {
	fx := newOrchestrator()
	fx.resources.confirmErr = fmt.Errorf("booking ledger unavailable")

	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.Error(t, err)
	assert.Nil(t, appt)

	// The persisted record is cancelled, not left dangling, and the hold is
	// released so the slot can be retried.
	for _, a := range fx.repo.appointments {
		assert.Equal(t, models.StatusCancelled, a.Status)
	}
	assert.Empty(t, fx.reserver.holds)
}

func TestBookAppointmentNoResourcesFailsRegularSlots(t *testing.T) {
	fx := newOrchestrator()
	fx.resources.allocErr = resource.ErrNoFeasibleResources

	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resource.ErrNoFeasibleResources))
	assert.Nil(t, appt)
	assert.Empty(t, fx.reserver.holds)
}

func TestBookEmergencySlotOverflowBypassesResourceCheck(t *testing.T) {
	fx := newOrchestrator()
	fx.resources.allocErr = resource.ErrNoFeasibleResources

	slot := tomorrowSlot()
	slot.SlotType = models.SlotOverflow

	appt, err := fx.svc.BookEmergencySlot(context.Background(), bookingCriteria("pat-1"), slot, models.EmergencyAssessment{
		UrgencyLevel:  10,
		PriorityClass: models.PriorityLifeThreatening,
	})
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, models.StatusConfirmed, appt.Status, "emergencies auto-confirm")
	assert.Contains(t, appt.Notes, "triage:")
	assert.Empty(t, appt.RoomID)
}

func TestCancelAppointmentFeedsFreedSlotToWaitlist(t *testing.T) {
	fx := newOrchestrator()

	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.NoError(t, err)

	cancelled, quote, err := fx.svc.CancelAppointment(context.Background(), appt.ID, "pat-1", "conflict")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 25.0, cancelled.CancellationFee)
	assert.Equal(t, 25.0, quote.Fee)
	assert.Contains(t, fx.notifier.events, "cancelled")
	assert.Contains(t, fx.resources.released, appt.ID)

	require.Len(t, fx.queue.freedSlots, 1)
	freed := fx.queue.freedSlots[0]
	assert.True(t, freed.Start.Equal(appt.ScheduledAt))
	assert.True(t, freed.End.Equal(appt.EndTime))
}

func TestCancelAppointmentDisallowedReturnsQuote(t *testing.T) {
	fx := newOrchestrator()
	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.NoError(t, err)

	fx.rules.cancelQuote = models.CancellationQuote{Allowed: false, Reason: "appointment already started"}

	_, quote, err := fx.svc.CancelAppointment(context.Background(), appt.ID, "pat-1", "too late")
	require.Error(t, err)

	var cErr *CancellationError
	require.True(t, errors.As(err, &cErr))
	assert.False(t, quote.Allowed)
	assert.Equal(t, models.StatusScheduled, fx.repo.appointments[appt.ID].Status)
}

func TestCancelAppointmentRejectsInProgress(t *testing.T) {
	fx := newOrchestrator()
	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.NoError(t, err)

	require.NoError(t, fx.svc.ConfirmAppointment(context.Background(), appt.ID))
	require.NoError(t, fx.svc.StartAppointment(context.Background(), appt.ID, "doc-1"))

	_, _, err = fx.svc.CancelAppointment(context.Background(), appt.ID, "pat-1", "changed my mind")
	require.Error(t, err)
	assert.Equal(t, models.StatusInProgress, fx.repo.appointments[appt.ID].Status)
	assert.NotContains(t, fx.resources.released, appt.ID)
}

func TestRescheduleLinksReplacementAndRetiresOriginal(t *testing.T) {
	fx := newOrchestrator()
	original, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.NoError(t, err)

	newStart := original.ScheduledAt.Add(24 * time.Hour)
	newSlot := models.AvailableSlot{
		ID:              models.SlotID("doc-1", newStart),
		DoctorID:        "doc-1",
		Start:           newStart,
		End:             newStart.Add(30 * time.Minute),
		DurationMinutes: 30,
	}

	replacement, err := fx.svc.RescheduleAppointment(context.Background(), original.ID, newSlot)
	require.NoError(t, err)

	assert.Equal(t, original.ID, replacement.RescheduledFrom)
	assert.Equal(t, original.RescheduleCount+1, replacement.RescheduleCount)
	assert.Equal(t, models.StatusRescheduled, fx.repo.appointments[original.ID].Status)
	assert.Equal(t, replacement.ID, fx.repo.appointments[original.ID].RescheduledTo)
	assert.Contains(t, fx.notifier.events, "rescheduled")

	// The vacated interval goes to the waitlist.
	require.Len(t, fx.queue.freedSlots, 1)
	assert.True(t, fx.queue.freedSlots[0].Start.Equal(original.ScheduledAt))
}

func TestMarkNoShowStrikesAndSuspends(t *testing.T) {
	fx := newOrchestrator()

	for i := 0; i < 3; i++ {
		appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
		require.NoError(t, err)
		require.NoError(t, fx.svc.MarkNoShow(context.Background(), appt.ID))
		assert.Equal(t, models.StatusNoShow, fx.repo.appointments[appt.ID].Status)
	}

	patient := fx.patients.patients["pat-1"]
	assert.Equal(t, 3, patient.NoShowCount)
	assert.True(t, patient.Suspended)
}

func TestLifecycleGuardsTransitions(t *testing.T) {
	fx := newOrchestrator()
	appt, err := fx.svc.BookAppointment(context.Background(), bookingCriteria("pat-1"), tomorrowSlot())
	require.NoError(t, err)

	// SCHEDULED cannot jump straight to IN_PROGRESS.
	require.Error(t, fx.svc.StartAppointment(context.Background(), appt.ID, "doc-1"))

	require.NoError(t, fx.svc.ConfirmAppointment(context.Background(), appt.ID))

	// Only the assigned doctor may start or complete.
	require.Error(t, fx.svc.StartAppointment(context.Background(), appt.ID, "doc-2"))
	require.NoError(t, fx.svc.StartAppointment(context.Background(), appt.ID, "doc-1"))

	require.Error(t, fx.svc.CompleteAppointment(context.Background(), appt.ID, "doc-2", "", ""))
	require.NoError(t, fx.svc.CompleteAppointment(context.Background(), appt.ID, "doc-1", "stable angina", "nitroglycerin"))

	final := fx.repo.appointments[appt.ID]
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, "stable angina", final.Diagnosis)
	assert.Contains(t, fx.notifier.events, "completed")
}
