package main

import (
	"contactcleaner/internal/contacts/events"
	"contactcleaner/internal/contacts/handler"
	"contactcleaner/internal/contacts/pipeline"
	"contactcleaner/internal/contacts/service"
	"contactcleaner/internal/contacts/store"
	"contactcleaner/internal/contacts/validator"
	"contactcleaner/pkg/app"
	"contactcleaner/pkg/config"
	"contactcleaner/pkg/kafka"
	kafka_middleware "contactcleaner/pkg/kafka/middleware"
	"contactcleaner/pkg/metrics"
	"contactcleaner/pkg/sealer"
)

const (
	ServiceName      = "contactcleaner"
	MetricsNamespace = "contactcleaner"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Contact Cleaner service")

	registry := metrics.NewRegistry()
	serviceMetrics, err := metrics.New(registry, MetricsNamespace)
	if err != nil {
		cfg.Log.Fatal("Failed to register metrics", "error", err)
	}

	uploadStore := store.NewInMemoryUploadStore(store.Config{TTL: cfg.UploadTTL}, cfg.Log)
	if err := metrics.RegisterGauge(registry, MetricsNamespace, "active_uploads",
		"Uploads currently held in memory", func() float64 { return float64(uploadStore.Len()) }); err != nil {
		cfg.Log.Fatal("Failed to register metrics", "error", err)
	}

	publisher := initPublisher(cfg, serviceMetrics)
	contactService := initServices(cfg, uploadStore, publisher, serviceMetrics)

	cookieSealer, err := sealer.New(cfg.SecretKey)
	if err != nil {
		cfg.Log.Fatal("Failed to create session sealer", "error", err)
	}

	contactHandler := handler.NewContactHandler(
		contactService,
		cookieSealer,
		handler.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionCookieSecure,
			MaxAge: cfg.UploadTTL,
		},
		int64(cfg.MaxUploadSize),
		cfg.Log,
	)

	serverApp := app.NewApplication(cfg).WithMetrics(metrics.Handler(registry), serviceMetrics)
	serverApp.OnShutdown("upload store", func() error {
		uploadStore.Stop()
		return nil
	})
	serverApp.OnShutdown("contact service", contactService.Close)
	serverApp.SetApp(handler.NewHealthHandler(uploadStore, cfg.Log), contactHandler)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, observer kafka_middleware.PublishObserver) events.Publisher {
	if !cfg.Kafka.Enabled() {
		cfg.Log.Info("Kafka disabled, cleaned events will not be published")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.MetricsProducerMiddleware(observer))
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka publisher initialized",
		"brokers", cfg.Kafka.Brokers,
		"topic", producer.Topic(),
	)
	return events.NewKafkaPublisher(producer, ServiceName)
}

func initServices(
	cfg *config.Config,
	uploadStore store.UploadStore,
	publisher events.Publisher,
	observer service.Observer,
) service.ContactService {
	opts := pipeline.DefaultOptions()
	opts.Region = cfg.DefaultPhoneRegion

	contactService := service.NewContactService(service.Deps{
		Store:       uploadStore,
		Runner:      pipeline.NewRunner(opts, cfg.Log),
		Validator:   validator.NewCleanRequestValidator(cfg.Log),
		Publisher:   publisher,
		Observer:    observer,
		PreviewRows: cfg.PreviewRows,
		Log:         cfg.Log,
	})

	cfg.Log.Info("Contact service initialized",
		"default_phone_region", cfg.DefaultPhoneRegion,
		"preview_rows", cfg.PreviewRows,
	)
	return contactService
}
