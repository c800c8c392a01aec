package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinq/config"
	"clinq/cron"
	"clinq/database"
	appointmentRepoPkg "clinq/database/repository/appointment"
	clinicRepoPkg "clinq/database/repository/clinic"
	doctorRepoPkg "clinq/database/repository/doctor"
	notifyRepoPkg "clinq/database/repository/notify"
	patientRepoPkg "clinq/database/repository/patient"
	schedulerRepoPkg "clinq/database/repository/scheduler"
	"clinq/handlers"
	"clinq/routes"
	"clinq/services/booking"
	"clinq/services/breaks"
	"clinq/services/notification"
	"clinq/services/queue"
	"clinq/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	clock, err := utils.NewClock(config.AppConfig.ClinicTimezone)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to load clinic timezone: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	clinicRepo := clinicRepoPkg.NewMongoClinicRepo()
	doctorRepo := doctorRepoPkg.NewMongoDoctorRepo()
	patientRepo := patientRepoPkg.NewMongoPatientRepo()
	apptRepo := appointmentRepoPkg.NewMongoAppointmentRepo()
	schedulerRepo := schedulerRepoPkg.NewMongoSchedulerRepo()
	notifyRepo := notifyRepoPkg.NewMongoNotifyRepo()

	// services.
	dispatcher := &notification.DefaultDispatcher{
		ClinicRepo:  clinicRepo,
		DoctorRepo:  doctorRepo,
		PatientRepo: patientRepo,
		ApptRepo:    apptRepo,
		NotifyRepo:  notifyRepo,
		Push:        notification.NewGatewayPushSender(),
		WhatsApp:    notification.NewGatewayWhatsAppSender(),
		Clock:       clock,
	}

	bookingService := &booking.DefaultBookingService{
		ClinicRepo:  clinicRepo,
		DoctorRepo:  doctorRepo,
		PatientRepo: patientRepo,
		ApptRepo:    apptRepo,
		Scheduler:   schedulerRepo,
		Clock:       clock,
		CacheClient: utils.GetCacheClient(),
		Notifier:    dispatcher,
	}

	queueService := &queue.DefaultQueueService{
		ClinicRepo: clinicRepo,
		DoctorRepo: doctorRepo,
		ApptRepo:   apptRepo,
		Scheduler:  schedulerRepo,
		Clock:      clock,
	}

	breakService := &breaks.DefaultBreakService{
		DoctorRepo: doctorRepo,
		Scheduler:  schedulerRepo,
		Booking:    bookingService,
		Clock:      clock,
	}

	handlerBundle := &handlers.HandlerBundle{
		Booking:    bookingService,
		Queue:      queueService,
		Breaks:     breakService,
		Dispatcher: dispatcher,
		ClinicRepo: clinicRepo,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Background worker: reminder batches, follow-up expiry, stale-reservation
	// sweeps.
	cron.InitNotificationWorker(dispatcher, schedulerRepo, clock)
	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient()}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
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

	// Wait for an OS signal to gracefully shutdown.
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
