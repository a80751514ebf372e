package queue

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"
	"clinicore/services/notification"
	"clinicore/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQueueService is the production implementation.
type DefaultQueueService struct {
	Store           QueueStore
	NotificationSvc notification.NotificationService

	OfferWindow     time.Duration
	MaxAutoBookTry  int

	// Optional; when unset, the periodic sweep alone reclaims lapsed offers.
	OfferScheduler OfferExpiryScheduler

	booker Booker
}

// NewDefaultQueueService wires the waitlist service.
func NewDefaultQueueService(store QueueStore, notifSvc notification.NotificationService, offerWindow time.Duration, maxAutoBookTry int) *DefaultQueueService {
	return &DefaultQueueService{
		Store:           store,
		NotificationSvc: notifSvc,
		OfferWindow:     offerWindow,
		MaxAutoBookTry:  maxAutoBookTry,
	}
}

// SetBooker binds the auto-booking collaborator. Called once from the
// composition root after the orchestrator exists.
func (s *DefaultQueueService) SetBooker(b Booker) {
	s.booker = b
}

// Enqueue parks a request in its (specialty, doctor) scope.
func (s *DefaultQueueService) Enqueue(ctx context.Context, entry models.QueueEntry) (*models.QueueEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.PatientClass == "" {
		entry.PatientClass = models.ClassRegular
	}
	entry.Status = models.QueueActive
	entry.Priority = PriorityScore(entry, time.Now())

	if err := s.Store.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("enqueuing waitlist entry: %w", err)
	}
	utils.GetLogger().Info("waitlist entry created",
		zap.String("entryId", entry.ID),
		zap.String("patientId", entry.PatientID),
		zap.Float64("priority", entry.Priority),
	)
	return &entry, nil
}

// Withdraw removes an entry at the patient's request.
func (s *DefaultQueueService) Withdraw(ctx context.Context, entryID string) error {
	entry, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return err
	}
	entry.Status = models.QueueWithdrawn
	if err := s.Store.Remove(ctx, *entry); err != nil {
		return fmt.Errorf("withdrawing waitlist entry: %w", err)
	}
	s.NotificationSvc.NotifyQueueEvent(ctx, "withdrawn", entry, nil)
	return nil
}

// GetEntry returns one entry with its current rank.
func (s *DefaultQueueService) GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, int64, error) {
	entry, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return nil, 0, err
	}
	rank, err := s.Store.Rank(ctx, *entry)
	if err != nil {
		return entry, -1, nil
	}
	return entry, rank, nil
}

// ListByPriority returns a scope's entries, highest priority first.
func (s *DefaultQueueService) ListByPriority(ctx context.Context, specialtyID, doctorID string) ([]models.QueueEntry, error) {
	ids, err := s.Store.RangeByPriority(ctx, specialtyID, doctorID)
	if err != nil {
		return nil, err
	}
	entries := make([]models.QueueEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.Store.Get(ctx, id)
		if err != nil {
			// Entry document lost; skip rather than fail the listing.
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// ProcessFreedSlot walks matching entries in priority order. Auto-booking
// entries with attempts remaining are booked directly; the rest get a
// time-boxed offer and stay queued.
func (s *DefaultQueueService) ProcessFreedSlot(ctx context.Context, specialtyID string, slot models.AvailableSlot) error {
	logger := utils.GetLogger()

	// The freed slot can satisfy both doctor-specific and any-doctor scopes.
	candidates, err := s.matchingEntries(ctx, specialtyID, slot)
	if err != nil {
		return err
	}

	for _, entry := range candidates {
		if entry.AutoBook && s.booker != nil && entry.BookingAttempts < s.MaxAutoBookTry {
			appt, err := s.booker.BookFromQueue(ctx, entry, slot)
			if err == nil {
				entry.Status = models.QueueAutoBooked
				if err := s.Store.Remove(ctx, entry); err != nil {
					logger.Error("failed to remove auto-booked entry", zap.String("entryId", entry.ID), zap.Error(err))
				}
				s.NotificationSvc.NotifyQueueEvent(ctx, "auto_booked", &entry, &slot)
				logger.Info("waitlist entry auto-booked",
					zap.String("entryId", entry.ID),
					zap.String("appointmentId", appt.ID),
				)
				return nil
			}
			entry.BookingAttempts++
			if saveErr := s.Store.Save(ctx, entry); saveErr != nil {
				logger.Error("failed to record booking attempt", zap.String("entryId", entry.ID), zap.Error(saveErr))
			}
			logger.Warn("auto-booking attempt failed",
				zap.String("entryId", entry.ID),
				zap.Int("attempts", entry.BookingAttempts),
				zap.Error(err),
			)
			continue
		}

		// Offer the slot and keep the entry queued for the claim window.
		expires := time.Now().Add(s.OfferWindow)
		entry.Status = models.QueueOffered
		entry.OfferSlotID = slot.ID
		entry.OfferExpiresAt = &expires
		if err := s.Store.Save(ctx, entry); err != nil {
			return fmt.Errorf("recording slot offer: %w", err)
		}
		s.NotificationSvc.NotifyQueueEvent(ctx, "slot_offered", &entry, &slot)
		if s.OfferScheduler != nil {
			if err := s.OfferScheduler.ScheduleOfferExpiry(ctx, entry.ID, expires); err != nil {
				logger.Warn("failed to schedule offer expiry; sweep will reclaim it",
					zap.String("entryId", entry.ID), zap.Error(err))
			}
		}
		return nil
	}
	return nil
}

// matchingEntries collects active entries whose preferences intersect the
// slot, ordered by priority across both scopes.
func (s *DefaultQueueService) matchingEntries(ctx context.Context, specialtyID string, slot models.AvailableSlot) ([]models.QueueEntry, error) {
	scopes := [][2]string{{specialtyID, slot.DoctorID}, {specialtyID, ""}}
	var matched []models.QueueEntry

	for _, scope := range scopes {
		ids, err := s.Store.RangeByPriority(ctx, scope[0], scope[1])
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			entry, err := s.Store.Get(ctx, id)
			if err != nil {
				continue
			}
			if entry.Status != models.QueueActive {
				continue
			}
			if entryMatchesSlot(*entry, slot) {
				matched = append(matched, *entry)
			}
		}
	}

	// Scopes were each ordered; merge-order across them by priority.
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].Priority > matched[j-1].Priority; j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}
	return matched, nil
}

// entryMatchesSlot intersects the entry's doctor/date/time preferences with
// the slot. Empty preference lists match anything.
func entryMatchesSlot(entry models.QueueEntry, slot models.AvailableSlot) bool {
	if entry.DoctorID != "" && entry.DoctorID != slot.DoctorID {
		return false
	}
	if len(entry.PreferredDates) > 0 {
		slotDate := slot.Start.Format("2006-01-02")
		found := false
		for _, d := range entry.PreferredDates {
			if d == slotDate {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(entry.PreferredTimes) > 0 {
		slotMin := slot.Start.Hour()*60 + slot.Start.Minute()
		found := false
		for _, p := range entry.PreferredTimes {
			if len(p) != 5 || p[2] != ':' {
				continue
			}
			prefMin := (int(p[0]-'0')*10+int(p[1]-'0'))*60 + int(p[3]-'0')*10 + int(p[4]-'0')
			diff := slotMin - prefMin
			if diff < 0 {
				diff = -diff
			}
			if diff <= 60 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
