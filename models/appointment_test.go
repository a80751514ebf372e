package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interval(startMin, endMin int) (time.Time, time.Time) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(startMin) * time.Minute), base.Add(time.Duration(endMin) * time.Minute)
}

func TestAppointmentOverlapsHalfOpen(t *testing.T) {
	start, end := interval(600, 630) // 10:00-10:30
	appt := Appointment{ScheduledAt: start, EndTime: end}

	// Back-to-back intervals never overlap.
	prevStart, prevEnd := interval(570, 600)
	assert.False(t, appt.Overlaps(prevStart, prevEnd))
	nextStart, nextEnd := interval(630, 660)
	assert.False(t, appt.Overlaps(nextStart, nextEnd))

	// One shared minute overlaps.
	s, e := interval(629, 659)
	assert.True(t, appt.Overlaps(s, e))
	s, e = interval(571, 601)
	assert.True(t, appt.Overlaps(s, e))

	// Containment in both directions.
	s, e = interval(605, 625)
	assert.True(t, appt.Overlaps(s, e))
	s, e = interval(590, 640)
	assert.True(t, appt.Overlaps(s, e))
}

func TestAppointmentOverlapsRandomizedProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		aStart := rng.Intn(1000)
		aEnd := aStart + 1 + rng.Intn(120)
		bStart := rng.Intn(1000)
		bEnd := bStart + 1 + rng.Intn(120)

		s1, e1 := interval(aStart, aEnd)
		s2, e2 := interval(bStart, bEnd)
		appt := Appointment{ScheduledAt: s1, EndTime: e1}

		want := aStart < bEnd && aEnd > bStart
		require.Equal(t, want, appt.Overlaps(s2, e2),
			"a=[%d,%d) b=[%d,%d)", aStart, aEnd, bStart, bEnd)

		// Overlap is symmetric.
		other := Appointment{ScheduledAt: s2, EndTime: e2}
		require.Equal(t, want, other.Overlaps(s1, e1))
	}
}

func TestAppointmentStateMachine(t *testing.T) {
	cases := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusInProgress, false},
		{StatusScheduled, StatusCompleted, false},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusNoShow, StatusScheduled, false},
	}
	for _, tc := range cases {
		appt := Appointment{Status: tc.from}
		assert.Equal(t, tc.allowed, appt.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestIsActiveAndTerminalPartition(t *testing.T) {
	all := []AppointmentStatus{
		StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled,
	}
	for _, st := range all {
		appt := Appointment{Status: st}
		assert.NotEqual(t, appt.IsActive(), appt.IsTerminal(),
			"status %s must be exactly one of active/terminal", st)
	}
}
