package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"clinicore/models"

	"github.com/go-redis/redis/v8"
)

// QueueStore is the priority-ordered structure backing the waitlist,
// scoped per (specialty, doctor).
type QueueStore interface {
	Add(ctx context.Context, entry models.QueueEntry) error
	Save(ctx context.Context, entry models.QueueEntry) error
	Get(ctx context.Context, entryID string) (*models.QueueEntry, error)
	Remove(ctx context.Context, entry models.QueueEntry) error
	UpdateScore(ctx context.Context, entry models.QueueEntry, score float64) error
	// RangeByPriority returns entry IDs for the (specialty, doctor) scope,
	// highest priority first.
	RangeByPriority(ctx context.Context, specialtyID, doctorID string) ([]string, error)
	// Rank returns the 0-based position of the entry in its scope, highest
	// priority first.
	Rank(ctx context.Context, entry models.QueueEntry) (int64, error)
	// ListAllIDs returns every queued entry ID, for the background sweep.
	ListAllIDs(ctx context.Context) ([]string, error)
}

// RedisQueueStore keeps one sorted set per (specialty, doctor) scope with
// the priority as score, a JSON document per entry, and an index set of all
// entry IDs for sweeps.
type RedisQueueStore struct {
	Client *redis.Client
}

// NewRedisQueueStore builds the store over the injected client.
func NewRedisQueueStore(client *redis.Client) *RedisQueueStore {
	return &RedisQueueStore{Client: client}
}

const indexKey = "queue:entries"

func scopeKey(specialtyID, doctorID string) string {
	if doctorID == "" {
		doctorID = "any"
	}
	return fmt.Sprintf("queue:%s:%s", specialtyID, doctorID)
}

func entryKey(entryID string) string {
	return fmt.Sprintf("queue:entry:%s", entryID)
}

// Add stores the entry document and ranks it in its scope.
func (s *RedisQueueStore) Add(ctx context.Context, entry models.QueueEntry) error {
	if err := s.Save(ctx, entry); err != nil {
		return err
	}
	pipe := s.Client.TxPipeline()
	pipe.ZAdd(ctx, scopeKey(entry.SpecialtyID, entry.DoctorID), &redis.Z{
		Score:  entry.Priority,
		Member: entry.ID,
	})
	pipe.SAdd(ctx, indexKey, entry.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ranking queue entry %s: %w", entry.ID, err)
	}
	return nil
}

// Save writes the entry document without touching its rank.
func (s *RedisQueueStore) Save(ctx context.Context, entry models.QueueEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling queue entry: %w", err)
	}
	if err := s.Client.Set(ctx, entryKey(entry.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("storing queue entry %s: %w", entry.ID, err)
	}
	return nil
}

// Get loads one entry document.
func (s *RedisQueueStore) Get(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	payload, err := s.Client.Get(ctx, entryKey(entryID)).Result()
	if err != nil {
		return nil, fmt.Errorf("queue entry %s not found: %w", entryID, err)
	}
	var entry models.QueueEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, fmt.Errorf("parsing queue entry %s: %w", entryID, err)
	}
	return &entry, nil
}

// Remove drops the entry from its scope, the index and the document store.
func (s *RedisQueueStore) Remove(ctx context.Context, entry models.QueueEntry) error {
	pipe := s.Client.TxPipeline()
	pipe.ZRem(ctx, scopeKey(entry.SpecialtyID, entry.DoctorID), entry.ID)
	pipe.SRem(ctx, indexKey, entry.ID)
	pipe.Del(ctx, entryKey(entry.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing queue entry %s: %w", entry.ID, err)
	}
	return nil
}

// UpdateScore re-ranks the entry within its scope.
func (s *RedisQueueStore) UpdateScore(ctx context.Context, entry models.QueueEntry, score float64) error {
	err := s.Client.ZAdd(ctx, scopeKey(entry.SpecialtyID, entry.DoctorID), &redis.Z{
		Score:  score,
		Member: entry.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("re-ranking queue entry %s: %w", entry.ID, err)
	}
	return nil
}

// RangeByPriority returns entry IDs in a scope, highest priority first.
func (s *RedisQueueStore) RangeByPriority(ctx context.Context, specialtyID, doctorID string) ([]string, error) {
	ids, err := s.Client.ZRevRange(ctx, scopeKey(specialtyID, doctorID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading queue scope: %w", err)
	}
	return ids, nil
}

// Rank returns the 0-based position of the entry, highest priority first.
func (s *RedisQueueStore) Rank(ctx context.Context, entry models.QueueEntry) (int64, error) {
	rank, err := s.Client.ZRevRank(ctx, scopeKey(entry.SpecialtyID, entry.DoctorID), entry.ID).Result()
	if err != nil {
		return 0, fmt.Errorf("ranking queue entry %s: %w", entry.ID, err)
	}
	return rank, nil
}

// ListAllIDs returns every queued entry ID.
func (s *RedisQueueStore) ListAllIDs(ctx context.Context) ([]string, error) {
	ids, err := s.Client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing queue index: %w", err)
	}
	return ids, nil
}
