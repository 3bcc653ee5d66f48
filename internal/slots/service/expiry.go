package service

import (
	"time"

	"creatorclub/pkg/model"
)

// Expiry is evaluated on every read instead of by a sweeper: a stale lock stays stored
// and is simply superseded by the next writer.

// lockExpired reports whether a lock has lapsed at now. A lock is live strictly before expiresAt.
func lockExpired(rec *model.SlotRecord, now time.Time) bool {
	return !now.Before(rec.ExpiresAt)
}

func activeLock(rec *model.SlotRecord, now time.Time) bool {
	return rec != nil && rec.Status == model.SlotLocked && !lockExpired(rec, now)
}

func effectiveStatus(rec *model.SlotRecord, now time.Time) model.SlotStatus {
	switch {
	case rec == nil:
		return model.SlotFree
	case rec.Status == model.SlotBooked:
		return model.SlotBooked
	case activeLock(rec, now):
		return model.SlotLocked
	default:
		return model.SlotFree
	}
}

type claim int

const (
	claimFree claim = iota
	claimOwn
	claimOther
	claimBooked
)

// classify reports how a slot stands relative to holderID at now.
func classify(rec *model.SlotRecord, holderID string, now time.Time) claim {
	switch effectiveStatus(rec, now) {
	case model.SlotBooked:
		return claimBooked
	case model.SlotLocked:
		if rec.LockedBy == holderID {
			return claimOwn
		}
		return claimOther
	default:
		return claimFree
	}
}

func newLock(key model.SlotKey, holderID string, now, expiresAt time.Time) *model.SlotRecord {
	return &model.SlotRecord{
		ResourceID: key.ResourceID,
		DateKey:    key.DateKey,
		SlotIndex:  key.Index,
		Status:     model.SlotLocked,
		LockedBy:   holderID,
		LockedAt:   now,
		ExpiresAt:  expiresAt,
	}
}

func toView(rec *model.SlotRecord, now time.Time) model.SlotView {
	view := model.SlotView{
		SlotIndex: rec.SlotIndex,
		Status:    effectiveStatus(rec, now),
	}
	switch view.Status {
	case model.SlotLocked:
		expiresAt := rec.ExpiresAt
		view.LockedBy = rec.LockedBy
		view.ExpiresAt = &expiresAt
	case model.SlotBooked:
		view.LockedBy = rec.LockedBy
		view.BookedAt = rec.BookedAt
	}
	return view
}
