package service

import (
	"context"

	"creatorclub/internal/slots/store"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/model"
	"creatorclub/pkg/sanitizer"
)

// Release ends the caller's own live locks early by rewriting them as already expired.
// Free and lapsed slots are skipped; a slot booked or held by someone else fails the request.
func (s *slotService) Release(ctx context.Context, req *model.ReleaseRequest) error {
	holderID, err := requireHolder(req.HolderID)
	if err != nil {
		return err
	}
	req.ResourceID = sanitizer.NormalizeIdentifier(req.ResourceID)
	req.DateKey = sanitizer.NormalizeIdentifier(req.DateKey)
	if err := s.validate(req, "release"); err != nil {
		return err
	}
	indices, err := s.normalizeIndices(req.SlotIndices)
	if err != nil {
		return err
	}

	keys := keysFor(req.ResourceID, req.DateKey, indices)
	var released []int

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		released = nil

		current, err := tx.GetMany(ctx, keys)
		if err != nil {
			return err
		}

		now := s.now()
		var writes []*model.SlotRecord
		for _, key := range keys {
			rec := current[key]
			switch classify(rec, holderID, now) {
			case claimBooked:
				return apperrors.SlotAlreadyBooked(key.Index)
			case claimOther:
				return apperrors.SlotAlreadyLocked(key.Index)
			case claimOwn:
				updated := *rec
				updated.ExpiresAt = now
				writes = append(writes, &updated)
				released = append(released, key.Index)
			}
		}

		if len(writes) == 0 {
			return nil
		}
		return tx.PutMany(ctx, writes)
	})
	if err != nil {
		return s.failure("release slots", err,
			"resource_id", req.ResourceID,
			"date_key", req.DateKey,
			"slots", indices,
			"holder_id", holderID,
		)
	}

	s.cfg.Log.Info("Slots released successfully",
		"resource_id", req.ResourceID,
		"date_key", req.DateKey,
		"slots", released,
		"holder_id", holderID,
	)
	return nil
}
