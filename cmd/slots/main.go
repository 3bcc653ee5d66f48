package main

import (
	"context"

	"creatorclub/internal/slots/audit"
	"creatorclub/internal/slots/events"
	"creatorclub/internal/slots/handler"
	"creatorclub/internal/slots/service"
	"creatorclub/internal/slots/store"
	"creatorclub/internal/slots/store/backend"
	"creatorclub/internal/slots/validator"
	"creatorclub/pkg/app"
	"creatorclub/pkg/config"
	"creatorclub/pkg/kafka"
	kafka_config "creatorclub/pkg/kafka/config"
	kafka_middleware "creatorclub/pkg/kafka/middleware"
)

const ServiceName = "slots"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Slots service", "store", cfg.SlotStore)

	slotStore, err := backend.Open(context.Background(), cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to open slot store", "store", cfg.SlotStore, "error", err)
	}

	serverApp := app.NewApplication()
	slotService := initServices(cfg, slotStore, serverApp)

	serverApp.SetApp(cfg,
		handler.NewHealthHandler(slotStore, cfg.SlotStore, cfg.Log),
		handler.NewSlotHandler(slotService, cfg.Log),
		handler.IsConfirmPath,
	)
	serverApp.OnShutdown("slot store", slotStore.Close)
	serverApp.OnShutdown("clients", func() error {
		cfg.GracefulShutdown()
		return nil
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, slotStore store.Store, serverApp *app.Application) service.SlotService {
	var opts []service.Option

	if kafka_config.Enabled() {
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.SlotEventsTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		}
		serverApp.OnShutdown("kafka producer", producer.Close)
		opts = append(opts, service.WithPublisher(events.NewPublisher(producer)))
	} else {
		cfg.Log.Info("Kafka not configured, slots.booked events are disabled")
	}

	// With Mongo as the store, privileged reads are also kept in admin_audit_logs.
	if cfg.SlotStore == config.StoreMongo && cfg.Client.Mongo != nil {
		opts = append(opts, service.WithAuditor(audit.NewMongoAuditor(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.MongoConnTimeout)))
		cfg.Log.Info("Audit records persisted to Mongo", "collection", audit.CollectionName)
	}

	slotService := service.NewSlotService(
		slotStore,
		validator.NewSlotValidator(cfg.Log),
		cfg,
		opts...,
	)

	cfg.Log.Info("Slot service initialized",
		"store", cfg.SlotStore,
		"default_hold_minutes", cfg.DefaultHoldMinutes,
		"max_range_size", cfg.MaxRangeSize,
	)
	return slotService
}
