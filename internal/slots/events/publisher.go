package events

import (
	"context"
	"fmt"

	"creatorclub/internal/slots/service"
	"creatorclub/pkg/kafka"
	"creatorclub/pkg/middleware"
	"creatorclub/pkg/model"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Publisher sends slots.booked events after a confirmation commits.
type Publisher struct {
	producer messagePublisher
}

var _ service.EventPublisher = (*Publisher)(nil)

func NewPublisher(producer messagePublisher) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) PublishSlotsBooked(ctx context.Context, event *model.SlotsBookedEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(partitionKey(event.ResourceID, event.DateKey)).
		WithValue(event).
		WithEventType(EventSlotsBooked).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSource(source).
		Build()
	if err != nil {
		return fmt.Errorf("build %s event: %w", EventSlotsBooked, err)
	}
	return p.producer.Publish(ctx, msg)
}
