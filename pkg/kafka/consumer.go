package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafka_config "creatorclub/pkg/kafka/config"
	"creatorclub/pkg/logger"

	kafkago "github.com/segmentio/kafka-go"
)

// fetchBackoff is the pause after a failed fetch before polling the broker again.
const fetchBackoff = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Consumer struct {
	reader       messageReader
	dlqWriter    messageWriter
	topic        string
	groupID      string
	dlqTopic     string
	maxRetries   int
	retryBackoff time.Duration
	handler      MessageHandler
	middleware   []ConsumerMiddleware
	logger       *logger.Logger
	closed       bool
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, topic, groupID, dlqTopic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("topic", topic, "group_id", groupID)

	// Offsets are committed explicitly after each message is settled.
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.ConsumerMinBytes,
		MaxBytes:          cfg.ConsumerMaxBytes,
		MaxWait:           cfg.ConsumerMaxWait,
		HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
		SessionTimeout:    cfg.ConsumerSessionTimeout,
		RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
		StartOffset:       cfg.ConsumerStartOffset,
		ErrorLogger:       kafkago.LoggerFunc(errorLogger(log)),
	})

	var dlqWriter messageWriter
	if dlqTopic != "" {
		dlqWriter = &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			Compression:  compressionCodec(cfg.ProducerCompression),
			MaxAttempts:  cfg.ProducerMaxAttempts,
			WriteTimeout: cfg.ProducerWriteTimeout,
			ErrorLogger:  kafkago.LoggerFunc(errorLogger(log)),
		}
	}

	return newConsumer(reader, dlqWriter, topic, groupID, dlqTopic, cfg.ConsumerMaxRetries, cfg.ConsumerRetryBackoff, handler, log), nil
}

func newConsumer(reader messageReader, dlqWriter messageWriter, topic, groupID, dlqTopic string, maxRetries int, retryBackoff time.Duration, handler MessageHandler, log *logger.Logger) *Consumer {
	return &Consumer{
		reader:       reader,
		dlqWriter:    dlqWriter,
		topic:        topic,
		groupID:      groupID,
		dlqTopic:     dlqTopic,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		handler:      handler,
		logger:       log,
	}
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start consumes until ctx is cancelled. A message is committed once it is handled or dead-lettered.
// If a failed message can be neither handled nor dead-lettered, Start returns without committing so
// the message is redelivered after a restart.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	handler := c.chain()
	c.mu.RUnlock()
	defer c.wg.Done()

	c.logger.Info("Kafka consumer started")

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to fetch message", "error", err)
			if !sleep(ctx, fetchBackoff) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafkaMessage(kafkaMsg)
		if err := c.processMessage(ctx, handler, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to commit offset",
				"partition", kafkaMsg.Partition,
				"offset", kafkaMsg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) chain() MessageHandler {
	handler := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}
	return handler
}

// processMessage runs handler with bounded, linearly backed-off retries for transient failures.
// It returns an error only when the message must not be committed.
func (c *Consumer) processMessage(ctx context.Context, handler MessageHandler, msg Message) error {
	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		retries := msg.GetRetryCount()
		if ShouldRetry(err, retries, c.maxRetries) {
			msg.IncrementRetryCount()
			c.logger.Warn("retrying message",
				"attempt", retries+1,
				"max_retries", c.maxRetries,
				"offset", msg.Offset,
				"error", err,
			)
			if !sleep(ctx, c.retryBackoff*time.Duration(retries+1)) {
				return ctx.Err()
			}
			continue
		}

		return c.deadLetter(ctx, msg, err)
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg Message, cause error) error {
	log := c.logger.With(
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", msg.Key,
		"event_id", msg.GetEventID(),
		"error_type", ClassifyError(cause).String(),
		"error", cause,
	)

	if c.dlqWriter == nil {
		log.Error("dropping message, no dead-letter topic configured")
		return nil
	}

	if err := c.sendToDLQ(ctx, msg, cause); err != nil {
		log.Error("failed to send message to DLQ", "dlq_error", err)
		return fmt.Errorf("dead-letter message at offset %d: %w", msg.Offset, errors.Join(err, cause))
	}
	log.Warn("message sent to DLQ", "dlq_topic", c.dlqTopic, "retries", msg.GetRetryCount())
	return nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg Message, cause error) error {
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}
	msg.Headers[HeaderOriginalTopic] = c.topic
	msg.Headers[HeaderErrorType] = ClassifyError(cause).String()
	msg.Headers[HeaderErrorMessage] = cause.Error()
	msg.Headers["dlq-consumer-group"] = c.groupID
	msg.Timestamp = time.Now().UTC()

	return c.dlqWriter.WriteMessages(ctx, toKafkaMessage(msg))
}

// Close waits for Start to return, so cancel its context first.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	err := c.reader.Close()
	if c.dlqWriter != nil {
		err = errors.Join(err, c.dlqWriter.Close())
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func errorLogger(log *logger.Logger) func(string, ...any) {
	return func(format string, args ...any) {
		log.Error("kafka client error", "detail", fmt.Sprintf(format, args...))
	}
}
