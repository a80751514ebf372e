package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicore/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrSlotHeld is returned when another booking flow already holds the slot.
// It is retryable: the caller should re-query availability.
var ErrSlotHeld = errors.New("slot is temporarily held by another booking flow")

// SlotReserver is the soft-lock boundary serializing concurrent booking
// flows per slot. At most one holder may exist per slot at a time.
type SlotReserver interface {
	ReserveSlotTemporarily(ctx context.Context, slotID, patientID string, ttl time.Duration) error
	ReleaseTemporaryReservation(ctx context.Context, slotID, patientID string) error
}

// RedisSlotReserver implements the soft lock as an atomic SETNX with expiry.
// Reservations expire on their own when a flow dies mid-booking.
type RedisSlotReserver struct {
	Client *redis.Client
}

// NewRedisSlotReserver builds the reserver over the injected client.
func NewRedisSlotReserver(client *redis.Client) *RedisSlotReserver {
	return &RedisSlotReserver{Client: client}
}

func reservationKey(slotID string) string {
	return fmt.Sprintf("reserve:slot:%s", slotID)
}

// ReserveSlotTemporarily atomically claims the slot for the patient. A lost
// race surfaces as ErrSlotHeld rather than silently overwriting the holder.
func (r *RedisSlotReserver) ReserveSlotTemporarily(ctx context.Context, slotID, patientID string, ttl time.Duration) error {
	ok, err := r.Client.SetNX(ctx, reservationKey(slotID), patientID, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot reservation: %w", err)
	}
	if !ok {
		return ErrSlotHeld
	}
	utils.GetLogger().Debug("slot reserved",
		zap.String("slotId", slotID),
		zap.String("patientId", patientID),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// Compare-and-delete so one flow cannot release a reservation a later flow
// now holds.
var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// ReleaseTemporaryReservation removes the patient's hold. Releasing an
// already-expired or never-held reservation is a no-op.
func (r *RedisSlotReserver) ReleaseTemporaryReservation(ctx context.Context, slotID, patientID string) error {
	_, err := releaseScript.Run(ctx, r.Client, []string{reservationKey(slotID)}, patientID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot reservation: %w", err)
	}
	return nil
}
