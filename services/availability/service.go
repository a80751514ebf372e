package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	doctorRepo "clinicore/database/repository/doctor"
	"clinicore/models"
	"clinicore/services/resource"
	"clinicore/services/scheduling"
	"clinicore/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultAvailabilityService is the production implementation.
type DefaultAvailabilityService struct {
	*RedisSlotReserver

	Engine     scheduling.SchedulingEngine
	Resources  resource.ResourceManager
	DoctorRepo doctorRepo.DoctorRepository
	Cache      *redis.Client
	CacheTTL   time.Duration
}

// NewDefaultAvailabilityService wires the availability view.
func NewDefaultAvailabilityService(engine scheduling.SchedulingEngine, resources resource.ResourceManager, doctors doctorRepo.DoctorRepository, cache *redis.Client, cacheTTL time.Duration) *DefaultAvailabilityService {
	return &DefaultAvailabilityService{
		RedisSlotReserver: NewRedisSlotReserver(cache),
		Engine:            engine,
		Resources:         resources,
		DoctorRepo:        doctors,
		Cache:             cache,
		CacheTTL:          cacheTTL,
	}
}

func availabilityKey(doctorID, day string) string {
	return fmt.Sprintf("avail:%s:%s", doctorID, day)
}

// GetAvailability materializes concrete slots for the criteria. The view is
// assembled per doctor per day so cache invalidation can target exactly the
// schedule that changed.
func (s *DefaultAvailabilityService) GetAvailability(ctx context.Context, criteria models.SchedulingCriteria) ([]models.AvailableSlot, error) {
	doctorIDs, err := s.resolveDoctorIDs(ctx, criteria)
	if err != nil {
		return nil, err
	}

	var slots []models.AvailableSlot
	for _, doctorID := range doctorIDs {
		for day := dayFloor(criteria.StartDate); !day.After(dayFloor(criteria.EndDate)); day = day.AddDate(0, 0, 1) {
			daySlots, err := s.doctorDaySlots(ctx, doctorID, day, criteria)
			if err != nil {
				return nil, err
			}
			slots = append(slots, daySlots...)
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Confidence != slots[j].Confidence {
			return slots[i].Confidence > slots[j].Confidence
		}
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots, nil
}

// doctorDaySlots serves one (doctor, day) cell from cache or computes and
// caches it. Cache failures degrade to a miss; they never fail the lookup.
func (s *DefaultAvailabilityService) doctorDaySlots(ctx context.Context, doctorID string, day time.Time, criteria models.SchedulingCriteria) ([]models.AvailableSlot, error) {
	logger := utils.GetLogger()
	key := availabilityKey(doctorID, day.Format("2006-01-02"))

	if cached, err := s.Cache.Get(ctx, key).Result(); err == nil {
		var slots []models.AvailableSlot
		if err := json.Unmarshal([]byte(cached), &slots); err == nil {
			return slots, nil
		}
		logger.Warn("corrupt availability cache entry, recomputing", zap.String("key", key))
	} else if err != redis.Nil {
		logger.Warn("availability cache read failed, treating as miss", zap.Error(err))
	}

	dayCriteria := criteria
	dayCriteria.DoctorID = doctorID
	dayCriteria.StartDate = day
	dayCriteria.EndDate = day

	raw, err := s.Engine.FindAvailableSlots(ctx, dayCriteria)
	if err != nil {
		return nil, fmt.Errorf("computing availability for doctor %s: %w", doctorID, err)
	}

	slots := s.materialize(ctx, raw, criteria)

	if payload, err := json.Marshal(slots); err == nil {
		if err := s.Cache.Set(ctx, key, payload, s.CacheTTL).Err(); err != nil {
			logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return slots, nil
}

// materialize attaches a concrete resource allocation to each slot and
// drops slots the clinic cannot host. Dropping is the built-in
// alternative-slot search: the surviving candidates are the alternatives.
func (s *DefaultAvailabilityService) materialize(ctx context.Context, raw []models.AvailableSlot, criteria models.SchedulingCriteria) []models.AvailableSlot {
	slots := make([]models.AvailableSlot, 0, len(raw))
	for _, slot := range raw {
		alloc, err := s.Resources.Allocate(ctx, criteria, slot.Start, slot.End)
		if err == resource.ErrNoFeasibleResources {
			continue
		}
		if err != nil {
			utils.GetLogger().Warn("resource allocation failed for slot, skipping",
				zap.String("slotId", slot.ID), zap.Error(err))
			continue
		}
		slot.RoomID = alloc.RoomID
		slot.EquipmentIDs = alloc.EquipmentIDs
		slot.BufferBefore = alloc.BufferBefore
		slot.BufferAfter = alloc.BufferAfter
		slots = append(slots, slot)
	}
	return slots
}

// GetBulkAvailability fans out lookups in parallel, tolerating partial
// failure.
func (s *DefaultAvailabilityService) GetBulkAvailability(ctx context.Context, criteriaList []models.SchedulingCriteria) [][]models.AvailableSlot {
	results := make([][]models.AvailableSlot, len(criteriaList))
	var wg sync.WaitGroup

	for i, criteria := range criteriaList {
		wg.Add(1)
		go func(idx int, c models.SchedulingCriteria) {
			defer wg.Done()
			slots, err := s.GetAvailability(ctx, c)
			if err != nil {
				utils.GetLogger().Warn("bulk availability lookup failed",
					zap.Int("index", idx), zap.Error(err))
				results[idx] = []models.AvailableSlot{}
				return
			}
			results[idx] = slots
		}(i, criteria)
	}

	wg.Wait()
	return results
}

// InvalidateDoctorDay drops the cached cell for a doctor's day.
func (s *DefaultAvailabilityService) InvalidateDoctorDay(ctx context.Context, doctorID string, day string) {
	if err := s.Cache.Del(ctx, availabilityKey(doctorID, day)).Err(); err != nil {
		utils.GetLogger().Warn("availability cache invalidation failed",
			zap.String("doctorId", doctorID), zap.String("day", day), zap.Error(err))
	}
}

// resolveDoctorIDs expands the criteria into the concrete doctor set.
func (s *DefaultAvailabilityService) resolveDoctorIDs(ctx context.Context, criteria models.SchedulingCriteria) ([]string, error) {
	if criteria.DoctorID != "" {
		return []string{criteria.DoctorID}, nil
	}
	doctors, err := s.DoctorRepo.ListBySpecialty(ctx, criteria.SpecialtyID, true)
	if err != nil {
		return nil, fmt.Errorf("listing doctors for specialty %s: %w", criteria.SpecialtyID, err)
	}
	ids := make([]string, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func dayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
