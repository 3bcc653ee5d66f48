package events

import (
	"context"

	"creatorclub/internal/slots/service"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/kafka"
	"creatorclub/pkg/logger"
	"creatorclub/pkg/model"
)

// PaymentHandler books the slots named by a payment.succeeded event.
// Redelivery is harmless because booking an already booked slot is a no-op.
type PaymentHandler struct {
	slots  service.SlotService
	logger *logger.Logger
}

func NewPaymentHandler(slots service.SlotService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{slots: slots, logger: log}
}

// Handle is a kafka.MessageHandler.
func (h *PaymentHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != "" && eventType != EventPaymentSucceeded {
		h.logger.DebugContext(ctx, "skipping unrelated event", "event_type", eventType, "event_id", msg.GetEventID())
		return nil
	}

	var event model.PaymentSucceededEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("decode payment event", err)
	}

	log := h.logger.With(
		"payment_id", event.PaymentID,
		"resource_id", event.ResourceID,
		"date_key", event.DateKey,
		"slot_indices", event.SlotIndices,
		"holder_id", event.HolderID,
	)

	_, err := h.slots.ConfirmRange(ctx, &model.ConfirmRangeRequest{
		ResourceID:  event.ResourceID,
		DateKey:     event.DateKey,
		SlotIndices: event.SlotIndices,
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotLocked) {
			// Payment cleared for a slot that was never held. Upstream must reconcile.
			log.ErrorContext(ctx, "payment confirmed without a lock", "error", err)
		}
		return err
	}

	log.InfoContext(ctx, "payment confirmed booking")
	return nil
}
