package store

import (
	"context"
	"fmt"
	"strings"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/pkg/model"
)

// Tx is one logical transaction against the slot store.
type Tx interface {
	// GetMany reads keys from a single consistent snapshot. Absent keys are omitted from the map.
	GetMany(ctx context.Context, keys []model.SlotKey) (map[model.SlotKey]*model.SlotRecord, error)
	// PutMany writes records atomically with the reads made earlier in the same transaction.
	PutMany(ctx context.Context, records []*model.SlotRecord) error
}

type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error)
	// RunInTx executes fn in one transaction. On a write conflict the backend re-runs fn a
	// bounded number of times and then returns slotserrors.ErrConflict. Errors produced by
	// fn's own logic are returned unchanged and never retried.
	RunInTx(ctx context.Context, fn TxFunc) error
	// ListDay returns every stored record of a partition ordered by slot index.
	ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

func ValidateKey(key model.SlotKey) error {
	switch {
	case key.ResourceID == "" || strings.Contains(key.ResourceID, "/"):
		return fmt.Errorf("%w: resource id %q", slotserrors.ErrInvalidKey, key.ResourceID)
	case key.DateKey == "" || strings.Contains(key.DateKey, "/"):
		return fmt.Errorf("%w: date key %q", slotserrors.ErrInvalidKey, key.DateKey)
	case key.Index < 0:
		return fmt.Errorf("%w: slot index %d", slotserrors.ErrInvalidKey, key.Index)
	}
	return nil
}

func ValidateKeys(keys []model.SlotKey) error {
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return err
		}
	}
	return nil
}

func ValidateRecords(records []*model.SlotRecord) error {
	for _, rec := range records {
		if err := ValidateKey(rec.Key()); err != nil {
			return err
		}
		if rec.Status != model.SlotLocked && rec.Status != model.SlotBooked {
			return fmt.Errorf("%w: status %q cannot be stored", slotserrors.ErrInvalidKey, rec.Status)
		}
	}
	return nil
}

// Partition is the (resource, date) pair that slot indices live under.
type Partition struct {
	ResourceID string
	DateKey    string
}

// GroupByPartition buckets keys by partition, preserving the order indices were given in.
func GroupByPartition(keys []model.SlotKey) map[Partition][]int {
	groups := make(map[Partition][]int)
	for _, k := range keys {
		p := Partition{ResourceID: k.ResourceID, DateKey: k.DateKey}
		groups[p] = append(groups[p], k.Index)
	}
	return groups
}
