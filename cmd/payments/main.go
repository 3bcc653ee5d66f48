package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"creatorclub/internal/slots/events"
	"creatorclub/internal/slots/service"
	"creatorclub/internal/slots/store/backend"
	"creatorclub/internal/slots/validator"
	"creatorclub/pkg/config"
	"creatorclub/pkg/kafka"
	kafka_config "creatorclub/pkg/kafka/config"
	kafka_middleware "creatorclub/pkg/kafka/middleware"
)

const ServiceName = "payments-consumer"

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, kafkaCfg)
	cfg.GracefulShutdown()
	if err != nil {
		// A non-zero exit gets the consumer restarted; uncommitted messages are redelivered.
		cfg.Log.Fatal("Payment consumer stopped", "error", err)
	}
	cfg.Log.Info("Payment consumer stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, kafkaCfg *kafka_config.Config) error {
	slotStore, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open slot store %s: %w", cfg.SlotStore, err)
	}
	defer slotStore.Close()

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.SlotEventsTopic, cfg.Log)
	if err != nil {
		return fmt.Errorf("create producer: %w", err)
	}
	defer producer.Close()

	slotService := service.NewSlotService(
		slotStore,
		validator.NewSlotValidator(cfg.Log),
		cfg,
		service.WithPublisher(events.NewPublisher(producer)),
	)
	paymentHandler := events.NewPaymentHandler(slotService, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.PaymentsTopic,
		kafkaCfg.PaymentsGroupID,
		kafkaCfg.PaymentsDLQTopic,
		paymentHandler.Handle,
		cfg.Log,
	)
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Consuming payment confirmations",
		"topic", kafkaCfg.PaymentsTopic,
		"group_id", kafkaCfg.PaymentsGroupID,
		"dlq_topic", kafkaCfg.PaymentsDLQTopic,
	)
	err = consumer.Start(ctx)
	if closeErr := consumer.Close(); closeErr != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", closeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
