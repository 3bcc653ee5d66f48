package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"creatorclub/pkg/kafka"
	"creatorclub/pkg/logger"
)

func TestLoggingConsumerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.DEBUG, Format: logger.JSON, Output: &buf})
	mw := LoggingConsumerMiddleware(log)

	msg := kafka.Message{Topic: "payments", Offset: 3, Headers: map[string]string{kafka.HeaderEventID: "e1"}}
	boom := errors.New("boom")

	err := mw(context.Background(), msg, func(ctx context.Context, m kafka.Message) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("error must pass through, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Failed to process message", `"event_id":"e1"`, `"offset":3`, "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestLoggingProducerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.DEBUG, Format: logger.JSON, Output: &buf})
	mw := LoggingProducerMiddleware(log)

	msg := kafka.Message{Topic: "slots.booked", Key: "room-9/20250601"}
	if err := mw(context.Background(), msg, func(ctx context.Context, m kafka.Message) error { return nil }); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "Published message") || !strings.Contains(buf.String(), "room-9/20250601") {
		t.Errorf("unexpected log: %s", buf.String())
	}
}
