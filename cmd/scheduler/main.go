package main

import (
	bookinghandler "clinicdesk/internal/bookings/handler"
	bookingrepo "clinicdesk/internal/bookings/repository"
	bookingservice "clinicdesk/internal/bookings/service"
	"clinicdesk/internal/bookings/validator"
	calendarhandler "clinicdesk/internal/calendar/handler"
	calendarservice "clinicdesk/internal/calendar/service"
	recordshandler "clinicdesk/internal/records/handler"
	recordsrepo "clinicdesk/internal/records/repository"
	recordsservice "clinicdesk/internal/records/service"
	"clinicdesk/pkg/app"
	"clinicdesk/pkg/client"
	"clinicdesk/pkg/config"
	"clinicdesk/pkg/contracts"
	"clinicdesk/pkg/kafka"
	kafka_config "clinicdesk/pkg/kafka/config"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting scheduler service")

	producer := initProducer(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	handlers := initHandlers(cfg, producer)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, kafkaCfg.BookingDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized", "topic", kafkaCfg.BookingEventsTopic)
	return producer
}

func initHandlers(cfg *config.Config, producer *kafka.Producer) []contracts.Handler {
	var patients bookingservice.PatientDirectory
	if cfg.PatientDirectoryURL != "" {
		patients = client.NewPatientDirectoryClient(cfg.PatientDirectoryURL, cfg.PatientDirectoryTimeout)
	}

	var events bookingservice.EventPublisher
	if producer != nil {
		events = producer
	}

	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepo.NewResourceLockRepository(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingSvc := bookingservice.NewBookingService(
		bookingRepo,
		lockRepo,
		bookingValidator,
		patients,
		events,
		cfg,
	)

	calendarSvc := calendarservice.NewCalendarService(bookingSvc, cfg)

	var diagnostics recordsservice.DiagnosticsAnalyzer
	if cfg.DiagnosticsURL != "" {
		diagnostics = client.NewDiagnosticsClient(cfg.DiagnosticsURL, cfg.DiagnosticsTimeout)
	}
	documentRepo := recordsrepo.NewMongoDocumentRepository(cfg)
	documentSvc := recordsservice.NewDocumentService(documentRepo, diagnostics, cfg)

	cfg.Log.Info("Scheduler services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		bookinghandler.NewBookingHandler(bookingSvc, cfg.Log),
		calendarhandler.NewCalendarHandler(calendarSvc, cfg.Log),
		recordshandler.NewDocumentHandler(documentSvc, cfg.Log),
	}
}
