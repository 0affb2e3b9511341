package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/smilecare/clinic-scheduler/internal/app"
	"github.com/smilecare/clinic-scheduler/internal/config"
	controller "github.com/smilecare/clinic-scheduler/internal/controller/http"
	"github.com/smilecare/clinic-scheduler/internal/notify"
	"github.com/smilecare/clinic-scheduler/internal/repository"
	"github.com/smilecare/clinic-scheduler/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	scheduleRepo := repository.NewScheduleRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	apptRepo := repository.NewAppointmentRepository(pool)
	treatmentRepo := repository.NewTreatmentRepository(pool)
	dentistRepo := repository.NewDentistRepository(pool)
	patientRepo := repository.NewPatientRepository(pool)
	recordRepo := repository.NewTreatmentRecordRepository(pool)

	settings := service.ClinicSettings{
		Granularity: time.Duration(cfg.GranularityMinutes) * time.Minute,
		ClosedDays:  make(map[time.Weekday]bool, len(cfg.ClosedDays)),
	}
	for _, day := range cfg.ClosedDays {
		settings.ClosedDays[day] = true
	}

	var notifier notify.Notifier
	if cfg.SendgridAPIKey != "" {
		notifier = notify.NewEmailNotifier(cfg.SendgridAPIKey, cfg.NotifyFromEmail, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	scheduleService := service.NewScheduleService(pool, scheduleRepo, slotRepo, apptRepo, dentistRepo, settings, logger)
	availabilityService := service.NewAvailabilityService(pool, slotRepo, apptRepo, treatmentRepo, logger)
	bookingService := service.NewBookingService(pool, slotRepo, apptRepo, treatmentRepo, dentistRepo, patientRepo, notifier, settings, logger)
	appointmentService := service.NewAppointmentService(pool, apptRepo, slotRepo, recordRepo, patientRepo, dentistRepo, treatmentRepo, notifier, logger)

	scheduler := app.NewScheduler(appointmentService, cfg.AutoCancelInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	handler := controller.NewHandler(bookingService, availabilityService, scheduleService, appointmentService, treatmentRepo, logger)
	router := controller.NewRouter(handler, cfg.Environment)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
