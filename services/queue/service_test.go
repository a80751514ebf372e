package queue

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"clinicore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	entries map[string]models.QueueEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]models.QueueEntry{}}
}

func (m *memoryStore) Add(_ context.Context, entry models.QueueEntry) error {
	m.entries[entry.ID] = entry
	return nil
}

func (m *memoryStore) Save(_ context.Context, entry models.QueueEntry) error {
	m.entries[entry.ID] = entry
	return nil
}

func (m *memoryStore) Get(_ context.Context, entryID string) (*models.QueueEntry, error) {
	entry, ok := m.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("entry not found")
	}
	return &entry, nil
}

func (m *memoryStore) Remove(_ context.Context, entry models.QueueEntry) error {
	delete(m.entries, entry.ID)
	return nil
}

func (m *memoryStore) UpdateScore(_ context.Context, entry models.QueueEntry, score float64) error {
	e := m.entries[entry.ID]
	e.Priority = score
	m.entries[entry.ID] = e
	return nil
}

func (m *memoryStore) RangeByPriority(_ context.Context, specialtyID, doctorID string) ([]string, error) {
	var scoped []models.QueueEntry
	for _, e := range m.entries {
		if e.SpecialtyID == specialtyID && e.DoctorID == doctorID {
			scoped = append(scoped, e)
		}
	}
	sort.Slice(scoped, func(i, j int) bool { return scoped[i].Priority > scoped[j].Priority })
	ids := make([]string, len(scoped))
	for i, e := range scoped {
		ids[i] = e.ID
	}
	return ids, nil
}

func (m *memoryStore) Rank(ctx context.Context, entry models.QueueEntry) (int64, error) {
	ids, _ := m.RangeByPriority(ctx, entry.SpecialtyID, entry.DoctorID)
	for i, id := range ids {
		if id == entry.ID {
			return int64(i), nil
		}
	}
	return -1, fmt.Errorf("entry not ranked")
}

func (m *memoryStore) ListAllIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids, nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) NotifyAppointmentEvent(_ context.Context, event string, _ *models.Appointment) {
	r.events = append(r.events, event)
}

func (r *recordingNotifier) NotifyQueueEvent(_ context.Context, event string, _ *models.QueueEntry, _ *models.AvailableSlot) {
	r.events = append(r.events, event)
}

func (r *recordingNotifier) NotifyManualIntervention(_ context.Context, _ string, _ string) {
	r.events = append(r.events, "manual_intervention")
}

type stubBooker struct {
	booked []string
	fail   bool
}

func (b *stubBooker) BookFromQueue(_ context.Context, entry models.QueueEntry, _ models.AvailableSlot) (*models.Appointment, error) {
	if b.fail {
		return nil, fmt.Errorf("no capacity")
	}
	b.booked = append(b.booked, entry.ID)
	return &models.Appointment{ID: "appt-" + entry.ID}, nil
}

func newTestService(store QueueStore) (*DefaultQueueService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	svc := NewDefaultQueueService(store, notifier, 2*time.Hour, 3)
	return svc, notifier
}

func TestPriorityScoreMonotonicInUrgency(t *testing.T) {
	now := time.Now()
	prev := -1.0
	for urgency := 0; urgency <= 10; urgency++ {
		entry := models.QueueEntry{
			AppointmentType: models.AppointmentConsultation,
			PatientClass:    models.ClassRegular,
			UrgencyLevel:    urgency,
			CreatedAt:       now,
		}
		score := PriorityScore(entry, now)
		require.Greater(t, score, prev, "urgency %d", urgency)
		prev = score
	}
}

func TestPriorityScoreMonotonicInWaitTime(t *testing.T) {
	created := time.Now()
	entry := models.QueueEntry{
		AppointmentType: models.AppointmentConsultation,
		PatientClass:    models.ClassRegular,
		UrgencyLevel:    3,
		CreatedAt:       created,
	}

	prev := -1.0
	for hours := 0; hours <= 120; hours += 6 {
		score := PriorityScore(entry, created.Add(time.Duration(hours)*time.Hour))
		require.GreaterOrEqual(t, score, prev, "wait %dh", hours)
		prev = score
	}
}

func TestPriorityScoreFairnessBoosts(t *testing.T) {
	created := time.Now()
	entry := models.QueueEntry{
		AppointmentType: models.AppointmentFollowUp,
		PatientClass:    models.ClassRegular,
		CreatedAt:       created,
	}

	at47 := PriorityScore(entry, created.Add(47*time.Hour))
	at49 := PriorityScore(entry, created.Add(49*time.Hour))
	at73 := PriorityScore(entry, created.Add(73*time.Hour))

	assert.GreaterOrEqual(t, at49-at47, fairness48Boost, "48h boost missing")
	assert.Greater(t, at73, at49)
}

func TestPriorityScoreClassAndTypeOrdering(t *testing.T) {
	now := time.Now()
	vip := models.QueueEntry{AppointmentType: models.AppointmentConsultation, PatientClass: models.ClassVIP, CreatedAt: now}
	regular := models.QueueEntry{AppointmentType: models.AppointmentConsultation, PatientClass: models.ClassRegular, CreatedAt: now}
	assert.Greater(t, PriorityScore(vip, now), PriorityScore(regular, now))

	emergency := models.QueueEntry{AppointmentType: models.AppointmentEmergency, PatientClass: models.ClassRegular, CreatedAt: now}
	assert.Greater(t, PriorityScore(emergency, now), PriorityScore(regular, now))
}

func TestEnqueueAssignsIdentityAndPriority(t *testing.T) {
	svc, _ := newTestService(newMemoryStore())

	created, err := svc.Enqueue(context.Background(), models.QueueEntry{
		PatientID:       "pat-1",
		SpecialtyID:     "cardio",
		AppointmentType: models.AppointmentConsultation,
		UrgencyLevel:    5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.QueueActive, created.Status)
	assert.Equal(t, models.ClassRegular, created.PatientClass)
	assert.Greater(t, created.Priority, 0.0)
}

func TestSweepExpiresEntriesPastMaxWait(t *testing.T) {
	store := newMemoryStore()
	svc, notifier := newTestService(store)

	stale := models.QueueEntry{
		ID:              "stale",
		PatientID:       "pat-1",
		SpecialtyID:     "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive,
		MaxWaitDays:     7,
		CreatedAt:       time.Now().Add(-8 * 24 * time.Hour),
	}
	fresh := models.QueueEntry{
		ID:              "fresh",
		PatientID:       "pat-2",
		SpecialtyID:     "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive,
		MaxWaitDays:     7,
		CreatedAt:       time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, store.Add(context.Background(), stale))
	require.NoError(t, store.Add(context.Background(), fresh))

	require.NoError(t, svc.SweepPriorities(context.Background()))

	_, err := store.Get(context.Background(), "stale")
	assert.Error(t, err, "expired entry must leave the queue")
	kept, err := store.Get(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, models.QueueActive, kept.Status)
	assert.Contains(t, notifier.events, "expired")
}

func TestSweepReactivatesLapsedOffers(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	lapsed := time.Now().Add(-time.Minute)
	entry := models.QueueEntry{
		ID:              "offered",
		PatientID:       "pat-1",
		SpecialtyID:     "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueOffered,
		OfferSlotID:     "doc-1:slot",
		OfferExpiresAt:  &lapsed,
		CreatedAt:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.Add(context.Background(), entry))

	require.NoError(t, svc.SweepPriorities(context.Background()))

	got, err := store.Get(context.Background(), "offered")
	require.NoError(t, err)
	assert.Equal(t, models.QueueActive, got.Status)
	assert.Empty(t, got.OfferSlotID)
	assert.Nil(t, got.OfferExpiresAt)
}

func TestSweepReactivatesLapsedOfferWithPlateauedScore(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	// Past ~100h the wait contribution caps and the 72h boost is already in,
	// so the recomputed score equals the stored priority. The reactivation
	// must persist anyway.
	now := time.Now()
	lapsed := now.Add(-time.Minute)
	entry := models.QueueEntry{
		ID:              "plateaued",
		PatientID:       "pat-1",
		SpecialtyID:     "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueOffered,
		OfferSlotID:     "doc-1:slot",
		OfferExpiresAt:  &lapsed,
		CreatedAt:       now.Add(-200 * time.Hour),
	}
	entry.Priority = PriorityScore(entry, now)
	require.NoError(t, store.Add(context.Background(), entry))

	require.NoError(t, svc.SweepPriorities(context.Background()))

	got, err := store.Get(context.Background(), "plateaued")
	require.NoError(t, err)
	assert.Equal(t, models.QueueActive, got.Status)
	assert.Empty(t, got.OfferSlotID)
	assert.Nil(t, got.OfferExpiresAt)
}

func freedSlot() models.AvailableSlot {
	start := time.Now().Add(48 * time.Hour)
	return models.AvailableSlot{
		ID:              models.SlotID("doc-1", start),
		DoctorID:        "doc-1",
		Start:           start,
		End:             start.Add(30 * time.Minute),
		DurationMinutes: 30,
		SlotType:        models.SlotRegular,
	}
}

func TestProcessFreedSlotAutoBooksHighestPriority(t *testing.T) {
	store := newMemoryStore()
	svc, notifier := newTestService(store)
	booker := &stubBooker{}
	svc.SetBooker(booker)

	low := models.QueueEntry{
		ID: "low", PatientID: "pat-1", SpecialtyID: "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive, AutoBook: true,
		Priority: 20, CreatedAt: time.Now(),
	}
	high := models.QueueEntry{
		ID: "high", PatientID: "pat-2", SpecialtyID: "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive, AutoBook: true,
		Priority: 80, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Add(context.Background(), low))
	require.NoError(t, store.Add(context.Background(), high))

	require.NoError(t, svc.ProcessFreedSlot(context.Background(), "cardio", freedSlot()))

	require.Equal(t, []string{"high"}, booker.booked)
	_, err := store.Get(context.Background(), "high")
	assert.Error(t, err, "booked entry must leave the queue")
	_, err = store.Get(context.Background(), "low")
	assert.NoError(t, err, "lower-priority entry stays queued")
	assert.Contains(t, notifier.events, "auto_booked")
}

func TestProcessFreedSlotOffersWhenAutoBookDisabled(t *testing.T) {
	store := newMemoryStore()
	svc, notifier := newTestService(store)
	svc.SetBooker(&stubBooker{})

	entry := models.QueueEntry{
		ID: "manual", PatientID: "pat-1", SpecialtyID: "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive, AutoBook: false,
		Priority: 40, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Add(context.Background(), entry))

	slot := freedSlot()
	require.NoError(t, svc.ProcessFreedSlot(context.Background(), "cardio", slot))

	got, err := store.Get(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, models.QueueOffered, got.Status)
	assert.Equal(t, slot.ID, got.OfferSlotID)
	require.NotNil(t, got.OfferExpiresAt)
	assert.Contains(t, notifier.events, "slot_offered")
}

func TestProcessFreedSlotCountsFailedAttempts(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)
	svc.SetBooker(&stubBooker{fail: true})

	entry := models.QueueEntry{
		ID: "retry", PatientID: "pat-1", SpecialtyID: "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive, AutoBook: true,
		Priority: 40, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Add(context.Background(), entry))

	require.NoError(t, svc.ProcessFreedSlot(context.Background(), "cardio", freedSlot()))

	got, err := store.Get(context.Background(), "retry")
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookingAttempts)
	assert.Equal(t, models.QueueActive, got.Status)
}

func TestProcessFreedSlotRespectsDoctorPreference(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)
	booker := &stubBooker{}
	svc.SetBooker(booker)

	otherDoctor := models.QueueEntry{
		ID: "other", PatientID: "pat-1", SpecialtyID: "cardio", DoctorID: "doc-9",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueActive, AutoBook: true,
		Priority: 90, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Add(context.Background(), otherDoctor))

	require.NoError(t, svc.ProcessFreedSlot(context.Background(), "cardio", freedSlot()))
	assert.Empty(t, booker.booked, "entry pinned to another doctor must not match")
}

func TestExpireOfferIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	expires := time.Now().Add(time.Hour)
	entry := models.QueueEntry{
		ID: "offered", PatientID: "pat-1", SpecialtyID: "cardio",
		AppointmentType: models.AppointmentConsultation,
		Status:          models.QueueOffered,
		OfferSlotID:     "slot-1", OfferExpiresAt: &expires,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Add(context.Background(), entry))

	require.NoError(t, svc.ExpireOffer(context.Background(), "offered"))
	got, err := store.Get(context.Background(), "offered")
	require.NoError(t, err)
	assert.Equal(t, models.QueueActive, got.Status)

	// A second expiry, and one for a missing entry, are no-ops.
	require.NoError(t, svc.ExpireOffer(context.Background(), "offered"))
	require.NoError(t, svc.ExpireOffer(context.Background(), "missing"))
}
