package service

import (
	"context"

	"creatorclub/internal/slots/store"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/model"
	"creatorclub/pkg/sanitizer"
)

// Lock acquires or refreshes a hold on one slot. A live lock of the same holder is re-entrant:
// it is rewritten with a fresh expiry.
func (s *slotService) Lock(ctx context.Context, req *model.LockRequest) (*model.LockResult, error) {
	holderID, err := requireHolder(req.HolderID)
	if err != nil {
		return nil, err
	}
	req.ResourceID = sanitizer.NormalizeIdentifier(req.ResourceID)
	req.DateKey = sanitizer.NormalizeIdentifier(req.DateKey)
	if err := s.validate(req, "lock"); err != nil {
		return nil, err
	}
	hold, err := s.holdDuration(req.HoldMinutes)
	if err != nil {
		return nil, err
	}

	key := model.SlotKey{ResourceID: req.ResourceID, DateKey: req.DateKey, Index: *req.SlotIndex}
	var record *model.SlotRecord

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		records, err := tx.GetMany(ctx, []model.SlotKey{key})
		if err != nil {
			return err
		}

		now := s.now()
		switch classify(records[key], holderID, now) {
		case claimBooked:
			return apperrors.AlreadyBooked(key.Index)
		case claimOther:
			return apperrors.AlreadyLocked(key.Index)
		}

		record = newLock(key, holderID, now, now.Add(hold))
		return tx.PutMany(ctx, []*model.SlotRecord{record})
	})
	if err != nil {
		return nil, s.failure("lock slot", err,
			"resource_id", key.ResourceID,
			"date_key", key.DateKey,
			"slot_index", key.Index,
			"holder_id", holderID,
		)
	}

	s.cfg.Log.Info("Slot locked successfully",
		"resource_id", key.ResourceID,
		"date_key", key.DateKey,
		"slot_index", key.Index,
		"holder_id", holderID,
		"expires_at", record.ExpiresAt,
	)
	return &model.LockResult{OK: true, ExpiresAt: record.ExpiresAt}, nil
}
