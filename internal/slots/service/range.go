package service

import (
	"context"

	"creatorclub/internal/slots/store"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/model"
	"creatorclub/pkg/sanitizer"
)

// LockRange locks a set of slots as one unit. Indices are checked in ascending order and the
// first failing one is reported; nothing is written unless every index passes.
func (s *slotService) LockRange(ctx context.Context, req *model.LockRangeRequest) (*model.LockResult, error) {
	holderID, err := requireHolder(req.HolderID)
	if err != nil {
		return nil, err
	}
	req.ResourceID = sanitizer.NormalizeIdentifier(req.ResourceID)
	req.DateKey = sanitizer.NormalizeIdentifier(req.DateKey)
	if err := s.validate(req, "lock range"); err != nil {
		return nil, err
	}
	hold, err := s.holdDuration(req.HoldMinutes)
	if err != nil {
		return nil, err
	}
	indices, err := s.normalizeIndices(req.SlotIndices)
	if err != nil {
		return nil, err
	}

	keys := keysFor(req.ResourceID, req.DateKey, indices)
	var records []*model.SlotRecord

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		current, err := tx.GetMany(ctx, keys)
		if err != nil {
			return err
		}

		now := s.now()
		for _, key := range keys {
			switch classify(current[key], holderID, now) {
			case claimBooked:
				return apperrors.SlotAlreadyBooked(key.Index)
			case claimOther:
				return apperrors.SlotAlreadyLocked(key.Index)
			}
		}

		expiresAt := now.Add(hold)
		records = make([]*model.SlotRecord, len(keys))
		for i, key := range keys {
			records[i] = newLock(key, holderID, now, expiresAt)
		}
		return tx.PutMany(ctx, records)
	})
	if err != nil {
		return nil, s.failure("lock slot range", err,
			"resource_id", req.ResourceID,
			"date_key", req.DateKey,
			"slots", indices,
			"holder_id", holderID,
		)
	}

	expiresAt := records[0].ExpiresAt
	s.cfg.Log.Info("Slot range locked successfully",
		"resource_id", req.ResourceID,
		"date_key", req.DateKey,
		"slots", indices,
		"holder_id", holderID,
		"expires_at", expiresAt,
	)
	return &model.LockResult{OK: true, ExpiresAt: expiresAt, Slots: indices}, nil
}
