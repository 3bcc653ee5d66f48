package service

import (
	"context"

	"creatorclub/internal/slots/store"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/model"
	"creatorclub/pkg/sanitizer"
)

// Confirm marks a locked slot as booked. It is idempotent: confirming a booked slot succeeds
// without rewriting it, so a redelivered payment confirmation has no further effect.
func (s *slotService) Confirm(ctx context.Context, req *model.ConfirmRequest) (*model.ConfirmResult, error) {
	req.ResourceID = sanitizer.NormalizeIdentifier(req.ResourceID)
	req.DateKey = sanitizer.NormalizeIdentifier(req.DateKey)
	if err := s.validate(req, "confirm"); err != nil {
		return nil, err
	}

	if err := s.book(ctx, "confirm booking", req.ResourceID, req.DateKey, []int{*req.SlotIndex}); err != nil {
		return nil, err
	}
	return &model.ConfirmResult{OK: true}, nil
}

// ConfirmRange books a batch of slots in one transaction. Every index needs a stored record;
// the first absent one fails the whole batch with NotLocked and nothing is written.
func (s *slotService) ConfirmRange(ctx context.Context, req *model.ConfirmRangeRequest) (*model.ConfirmResult, error) {
	req.ResourceID = sanitizer.NormalizeIdentifier(req.ResourceID)
	req.DateKey = sanitizer.NormalizeIdentifier(req.DateKey)
	if err := s.validate(req, "confirm range"); err != nil {
		return nil, err
	}
	indices, err := s.normalizeIndices(req.SlotIndices)
	if err != nil {
		return nil, err
	}

	if err := s.book(ctx, "confirm booking range", req.ResourceID, req.DateKey, indices); err != nil {
		return nil, err
	}
	return &model.ConfirmResult{OK: true}, nil
}

func (s *slotService) book(ctx context.Context, action, resourceID, dateKey string, indices []int) error {
	keys := keysFor(resourceID, dateKey, indices)

	var (
		booked  []*model.SlotRecord
		expired []int
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		booked, expired = nil, nil

		current, err := tx.GetMany(ctx, keys)
		if err != nil {
			return err
		}

		now := s.now()
		for _, key := range keys {
			rec, ok := current[key]
			if !ok {
				return apperrors.NotLocked(key.Index)
			}
			if rec.Status == model.SlotBooked {
				continue
			}
			if lockExpired(rec, now) {
				expired = append(expired, key.Index)
			}

			// lockedBy is kept as provenance of who held the slot.
			updated := *rec
			bookedAt := now
			updated.Status = model.SlotBooked
			updated.BookedAt = &bookedAt
			booked = append(booked, &updated)
		}

		if len(booked) == 0 {
			return nil
		}
		return tx.PutMany(ctx, booked)
	})
	if err != nil {
		return s.failure(action, err,
			"resource_id", resourceID,
			"date_key", dateKey,
			"slots", indices,
		)
	}

	if len(booked) == 0 {
		s.cfg.Log.Info("Slots already booked, confirmation ignored",
			"resource_id", resourceID,
			"date_key", dateKey,
			"slots", indices,
		)
		return nil
	}
	if len(expired) > 0 {
		s.cfg.Log.Warn("Confirmed slots whose lock had already expired",
			"resource_id", resourceID,
			"date_key", dateKey,
			"slots", expired,
		)
	}

	bookedIndices := make([]int, len(booked))
	for i, rec := range booked {
		bookedIndices[i] = rec.SlotIndex
	}
	s.cfg.Log.Info("Slots booked successfully",
		"resource_id", resourceID,
		"date_key", dateKey,
		"slots", bookedIndices,
	)

	s.publishBooked(ctx, &model.SlotsBookedEvent{
		ResourceID:  resourceID,
		DateKey:     dateKey,
		SlotIndices: bookedIndices,
		BookedAt:    *booked[0].BookedAt,
	})
	return nil
}

// publishBooked runs after commit. A failed publish is logged and the booking stands.
func (s *slotService) publishBooked(ctx context.Context, event *model.SlotsBookedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSlotsBooked(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Error("Failed to publish slots booked event",
			"resource_id", event.ResourceID,
			"date_key", event.DateKey,
			"slots", event.SlotIndices,
			"error", err,
		)
	}
}
