package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinicore/config"
	doctorRepo "clinicore/database/repository/doctor"
	"clinicore/models"
	"clinicore/services/availability"
	"clinicore/services/emergency"
	"clinicore/services/queue"
	"clinicore/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task type names. Periodic tasks are registered with the scheduler;
// offer expiry is enqueued one-shot when a slot offer is made.
const (
	TypeQueueSweep          = "queue:sweep"
	TypeEmergencyMonitor    = "emergency:monitor"
	TypeAvailabilityRefresh = "availability:refresh"
	TypeOfferExpire         = "queue:offer_expire"
)

// WorkerDeps are the services the task handlers delegate to.
type WorkerDeps struct {
	QueueSvc        queue.QueueService
	EmergencySvc    emergency.EmergencyService
	AvailabilitySvc availability.AvailabilityService
	DoctorRepo      doctorRepo.DoctorRepository
}

func redisOpts(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisTaskDB,
	}
}

// InitWorker starts the asynq server and scheduler in the background and
// returns a function that shuts both down. Every handler is idempotent, so
// a skipped or repeated tick is harmless.
func InitWorker(cfg config.Config, deps WorkerDeps) func() {
	logger := utils.GetLogger()
	opts := redisOpts(cfg)

	srv := asynq.NewServer(opts, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeQueueSweep, handleQueueSweep(deps.QueueSvc))
	mux.HandleFunc(TypeEmergencyMonitor, handleEmergencyMonitor(deps.EmergencySvc))
	mux.HandleFunc(TypeAvailabilityRefresh, handleAvailabilityRefresh(deps.AvailabilitySvc, deps.DoctorRepo))
	mux.HandleFunc(TypeOfferExpire, handleOfferExpire(deps.QueueSvc))

	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{})
	registrations := []struct {
		spec string
		task *asynq.Task
	}{
		{fmt.Sprintf("@every %ds", cfg.QueueSweepSeconds), asynq.NewTask(TypeQueueSweep, nil)},
		{fmt.Sprintf("@every %ds", cfg.EmergencyMonitorSeconds), asynq.NewTask(TypeEmergencyMonitor, nil)},
		{"@every 5m", asynq.NewTask(TypeAvailabilityRefresh, nil)},
	}
	for _, reg := range registrations {
		if _, err := scheduler.Register(reg.spec, reg.task); err != nil {
			logger.Fatal("failed to register periodic task",
				zap.String("task", reg.task.Type()), zap.Error(err))
		}
	}

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Fatal("task worker stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal("task scheduler stopped", zap.Error(err))
		}
	}()
	logger.Info("background worker started",
		zap.Int("queueSweepSeconds", cfg.QueueSweepSeconds),
		zap.Int("emergencyMonitorSeconds", cfg.EmergencyMonitorSeconds),
	)

	return func() {
		scheduler.Shutdown()
		srv.Shutdown()
	}
}

func handleQueueSweep(queueSvc queue.QueueService) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return queueSvc.SweepPriorities(ctx)
	}
}

func handleEmergencyMonitor(emergencySvc emergency.EmergencyService) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return emergencySvc.MonitorPendingEmergencies(ctx)
	}
}

// handleAvailabilityRefresh pre-warms today's availability cells for every
// working doctor so interactive searches hit the cache.
func handleAvailabilityRefresh(availSvc availability.AvailabilityService, doctors doctorRepo.DoctorRepository) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		active, err := doctors.ListActive(ctx)
		if err != nil {
			return fmt.Errorf("listing doctors for cache refresh: %w", err)
		}

		now := time.Now()
		dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location())
		for _, doc := range active {
			if doc.TemplateFor(now.Weekday()) == nil {
				continue
			}
			criteria := models.SchedulingCriteria{
				SpecialtyID:     doc.SpecialtyID,
				DoctorID:        doc.ID,
				AppointmentType: models.AppointmentConsultation,
				StartDate:       now,
				EndDate:         dayEnd,
			}
			if _, err := availSvc.GetAvailability(ctx, criteria); err != nil {
				utils.GetLogger().Warn("availability refresh failed for doctor",
					zap.String("doctorId", doc.ID), zap.Error(err))
			}
		}
		return nil
	}
}

type offerExpirePayload struct {
	EntryID string `json:"entryId"`
}

func handleOfferExpire(queueSvc queue.QueueService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p offerExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid offer expiry payload: %w", err)
		}
		return queueSvc.ExpireOffer(ctx, p.EntryID)
	}
}

// AsynqOfferScheduler schedules one-shot offer expiries on the task queue.
type AsynqOfferScheduler struct {
	client *asynq.Client
}

// NewAsynqOfferScheduler builds the scheduler over its own asynq client.
func NewAsynqOfferScheduler(cfg config.Config) *AsynqOfferScheduler {
	return &AsynqOfferScheduler{client: asynq.NewClient(redisOpts(cfg))}
}

// ScheduleOfferExpiry enqueues the expiry to fire when the claim window
// closes.
func (s *AsynqOfferScheduler) ScheduleOfferExpiry(ctx context.Context, entryID string, at time.Time) error {
	payload, err := json.Marshal(offerExpirePayload{EntryID: entryID})
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, asynq.NewTask(TypeOfferExpire, payload), asynq.ProcessAt(at))
	return err
}

// Close releases the scheduler's client connection.
func (s *AsynqOfferScheduler) Close() error {
	return s.client.Close()
}
