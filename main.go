package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicore/config"
	"clinicore/cron"
	"clinicore/database"
	appointmentRepo "clinicore/database/repository/appointment"
	doctorRepo "clinicore/database/repository/doctor"
	patientRepo "clinicore/database/repository/patient"
	resourceRepo "clinicore/database/repository/resource"
	"clinicore/handlers"
	"clinicore/routes"
	"clinicore/services/appointment"
	"clinicore/services/availability"
	"clinicore/services/emergency"
	"clinicore/services/intelligence"
	"clinicore/services/notification"
	"clinicore/services/queue"
	"clinicore/services/resource"
	"clinicore/services/rules"
	"clinicore/services/scheduling"
	"clinicore/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()

	db, closeDB, err := database.Connect(cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to database: %v", err)
	}
	defer closeDB()

	cacheClient, err := utils.NewCacheClient(cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to cache redis: %v", err)
	}
	queueClient, err := utils.NewQueueClient(cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to queue redis: %v", err)
	}

	// Repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo(db)
	docRepo := doctorRepo.NewMongoDoctorRepo(db)
	patRepo := patientRepo.NewMongoPatientRepo(db)
	resRepo := resourceRepo.NewMongoResourceRepo(db)

	// Services.
	notificationSvc := notification.NewDefaultNotificationService()
	resourceMgr := resource.NewDefaultResourceManager(resRepo)
	schedulingEngine := scheduling.NewDefaultSchedulingEngine(docRepo, apptRepo, cfg)
	availabilitySvc := availability.NewDefaultAvailabilityService(
		schedulingEngine,
		resourceMgr,
		docRepo,
		cacheClient,
		time.Duration(cfg.AvailabilityCacheTTL)*time.Second,
	)

	rulesEngine := &rules.DefaultRulesEngine{
		DoctorRepo:  docRepo,
		PatientRepo: patRepo,
		ApptRepo:    apptRepo,
		Resources:   resourceMgr,
		Policy:      rules.PolicyFromConfig(cfg),
	}

	queueSvc := queue.NewDefaultQueueService(
		queue.NewRedisQueueStore(queueClient),
		notificationSvc,
		time.Duration(cfg.QueueOfferWindowMin)*time.Minute,
		cfg.QueueMaxAutoBookTry,
	)
	queueSvc.OfferScheduler = cron.NewAsynqOfferScheduler(cfg)

	appointmentSvc := &appointment.DefaultAppointmentService{
		ApptRepo:        apptRepo,
		PatientRepo:     patRepo,
		DoctorRepo:      docRepo,
		Rules:           rulesEngine,
		Availability:    availabilitySvc,
		Resources:       resourceMgr,
		QueueSvc:        queueSvc,
		NotificationSvc: notificationSvc,
		ReservationTTL:  time.Duration(cfg.ReservationTTLMin) * time.Minute,
		StrikeLimit:     cfg.StrikesBeforeSusp,
	}
	// Late binding: the waitlist auto-books through the orchestrator, which
	// in turn feeds freed slots back to the waitlist.
	queueSvc.SetBooker(appointmentSvc)

	emergencySvc := &emergency.DefaultEmergencyService{
		ApptRepo:        apptRepo,
		DoctorRepo:      docRepo,
		Availability:    availabilitySvc,
		Appointments:    appointmentSvc,
		QueueSvc:        queueSvc,
		NotificationSvc: notificationSvc,
		Policy:          emergency.EscalationPolicyFromConfig(cfg),
	}

	insightSvc := &intelligence.DefaultInsightService{
		ApptRepo:     apptRepo,
		DoctorRepo:   docRepo,
		ResourceRepo: resRepo,
	}

	// Background tasks.
	stopWorker := cron.InitWorker(cfg, cron.WorkerDeps{
		QueueSvc:        queueSvc,
		EmergencySvc:    emergencySvc,
		AvailabilitySvc: availabilitySvc,
		DoctorRepo:      docRepo,
	})
	defer stopWorker()

	// HTTP layer.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		Scheduling:     schedulingEngine,
		Availability:   availabilitySvc,
		Appointments:   appointmentSvc,
		Queue:          queueSvc,
		Emergency:      emergencySvc,
		Insights:       insightSvc,
		ReservationTTL: time.Duration(cfg.ReservationTTLMin) * time.Minute,
	}
	routes.RegisterRoutes(router, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
