package queue

import (
	"context"
	"time"

	"clinicore/models"
)

// Booker is the slice of the appointment orchestrator the waitlist uses for
// auto-booking. Bound late in the composition root to avoid a dependency
// cycle with the orchestrator, which re-processes freed slots through this
// service.
type Booker interface {
	BookFromQueue(ctx context.Context, entry models.QueueEntry, slot models.AvailableSlot) (*models.Appointment, error)
}

// OfferExpiryScheduler schedules the one-shot task that returns a lapsed
// offer to normal processing. Implemented by the background task layer; the
// periodic sweep backstops a missed schedule.
type OfferExpiryScheduler interface {
	ScheduleOfferExpiry(ctx context.Context, entryID string, at time.Time) error
}

// QueueService manages the priority-ordered waitlist.
type QueueService interface {
	// Enqueue parks a request that could not get an immediate slot.
	Enqueue(ctx context.Context, entry models.QueueEntry) (*models.QueueEntry, error)
	// Withdraw removes an entry at the patient's request.
	Withdraw(ctx context.Context, entryID string) error
	// GetEntry returns one entry with its current rank.
	GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, int64, error)
	// ListByPriority returns a scope's active entries, highest priority first.
	ListByPriority(ctx context.Context, specialtyID, doctorID string) ([]models.QueueEntry, error)
	// ProcessFreedSlot offers a newly freed slot to matching entries in
	// priority order, auto-booking where enabled.
	ProcessFreedSlot(ctx context.Context, specialtyID string, slot models.AvailableSlot) error
	// SweepPriorities recomputes every entry's priority and expires entries
	// past their maximum wait. Idempotent; safe to skip or repeat.
	SweepPriorities(ctx context.Context) error
	// ExpireOffer returns an un-claimed offer back to normal processing.
	ExpireOffer(ctx context.Context, entryID string) error
}
