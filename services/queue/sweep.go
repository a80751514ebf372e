package queue

import (
	"context"
	"time"

	"clinicore/models"
	"clinicore/utils"

	"go.uber.org/zap"
)

// SweepPriorities recomputes every entry's priority so aging entries
// surface in ranking without client interaction, and expires entries past
// their maximum wait. Recomputation is a pure function of the entry and the
// clock, so a skipped or repeated sweep loses nothing.
func (s *DefaultQueueService) SweepPriorities(ctx context.Context) error {
	logger := utils.GetLogger()
	now := time.Now()

	ids, err := s.Store.ListAllIDs(ctx)
	if err != nil {
		return err
	}

	var recomputed, expired int
	for _, id := range ids {
		entry, err := s.Store.Get(ctx, id)
		if err != nil {
			continue
		}

		if entry.Expired(now) {
			entry.Status = models.QueueExpired
			if err := s.Store.Remove(ctx, *entry); err != nil {
				logger.Error("failed to expire waitlist entry", zap.String("entryId", entry.ID), zap.Error(err))
				continue
			}
			s.NotificationSvc.NotifyQueueEvent(ctx, "expired", entry, nil)
			expired++
			continue
		}

		changed := false

		// Lapsed offers fall back to normal priority-driven processing. The
		// reactivation must persist even when the recomputed score is
		// unchanged, which happens once the wait contribution has capped.
		if entry.Status == models.QueueOffered && entry.OfferExpiresAt != nil && now.After(*entry.OfferExpiresAt) {
			entry.Status = models.QueueActive
			entry.OfferSlotID = ""
			entry.OfferExpiresAt = nil
			changed = true
		}

		if score := PriorityScore(*entry, now); score != entry.Priority {
			entry.Priority = score
			changed = true
		}
		if !changed {
			continue
		}

		if err := s.Store.Save(ctx, *entry); err != nil {
			logger.Error("failed to save recomputed entry", zap.String("entryId", entry.ID), zap.Error(err))
			continue
		}
		if err := s.Store.UpdateScore(ctx, *entry, entry.Priority); err != nil {
			logger.Error("failed to re-rank entry", zap.String("entryId", entry.ID), zap.Error(err))
			continue
		}
		recomputed++
	}

	if recomputed > 0 || expired > 0 {
		logger.Info("waitlist sweep complete",
			zap.Int("recomputed", recomputed),
			zap.Int("expired", expired),
		)
	}
	return nil
}

// ExpireOffer returns an un-claimed offer back to active processing. Used
// by the one-shot expiry task scheduled when the offer was made; a no-op if
// the entry was booked or withdrawn meanwhile.
func (s *DefaultQueueService) ExpireOffer(ctx context.Context, entryID string) error {
	entry, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return nil
	}
	if entry.Status != models.QueueOffered {
		return nil
	}
	entry.Status = models.QueueActive
	entry.OfferSlotID = ""
	entry.OfferExpiresAt = nil
	if err := s.Store.Save(ctx, *entry); err != nil {
		return err
	}
	s.NotificationSvc.NotifyQueueEvent(ctx, "offer_expired", entry, nil)
	return nil
}
