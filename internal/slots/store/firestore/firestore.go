package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	"creatorclub/pkg/model"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	resourcesCollection = "resources"
	daysCollection      = "days"
	slotsCollection     = "slots"
)

// slotDoc is stored at resources/{resourceId}/days/{dateKey}/slots/{slotIndex}.
type slotDoc struct {
	ResourceID string     `firestore:"resource_id"`
	DateKey    string     `firestore:"date_key"`
	SlotIndex  int        `firestore:"slot_index"`
	Status     string     `firestore:"status"`
	LockedBy   string     `firestore:"locked_by"`
	LockedAt   time.Time  `firestore:"locked_at"`
	ExpiresAt  time.Time  `firestore:"expires_at"`
	BookedAt   *time.Time `firestore:"booked_at"`
}

func (d slotDoc) record() *model.SlotRecord {
	rec := &model.SlotRecord{
		ResourceID: d.ResourceID,
		DateKey:    d.DateKey,
		SlotIndex:  d.SlotIndex,
		Status:     model.SlotStatus(d.Status),
		LockedBy:   d.LockedBy,
		LockedAt:   d.LockedAt.UTC(),
		ExpiresAt:  d.ExpiresAt.UTC(),
	}
	if d.BookedAt != nil {
		t := d.BookedAt.UTC()
		rec.BookedAt = &t
	}
	return rec
}

func toDoc(rec *model.SlotRecord) slotDoc {
	return slotDoc{
		ResourceID: rec.ResourceID,
		DateKey:    rec.DateKey,
		SlotIndex:  rec.SlotIndex,
		Status:     string(rec.Status),
		LockedBy:   rec.LockedBy,
		LockedAt:   rec.LockedAt,
		ExpiresAt:  rec.ExpiresAt,
		BookedAt:   rec.BookedAt,
	}
}

// Store keeps slots in Cloud Firestore. RunTransaction retries contended transactions
// itself; the attempt limit is set so exhaustion is bounded.
type Store struct {
	client      *firestore.Client
	maxAttempts int
}

func New(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client, maxAttempts: store.DefaultMaxAttempts}, nil
}

var _ store.Store = (*Store)(nil)

func (s *Store) dayRef(resourceID, dateKey string) *firestore.CollectionRef {
	return s.client.Collection(resourcesCollection).Doc(resourceID).Collection(daysCollection).Doc(dateKey).Collection(slotsCollection)
}

func (s *Store) slotRef(key model.SlotKey) *firestore.DocumentRef {
	return s.dayRef(key.ResourceID, key.DateKey).Doc(strconv.Itoa(key.Index))
}

func (s *Store) Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	snap, err := s.slotRef(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, slotserrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}

	var doc slotDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse slot %s: %w", key, err)
	}
	return doc.record(), nil
}

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{store: s, tx: tx})
	}, firestore.MaxAttempts(s.maxAttempts))

	// Aborted after the last attempt means contention never cleared.
	if err != nil && status.Code(err) == codes.Aborted && !errors.Is(err, slotserrors.ErrConflict) {
		return fmt.Errorf("%w after %d attempts: %v", slotserrors.ErrConflict, s.maxAttempts, err)
	}
	return err
}

func (s *Store) ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
	snaps, err := s.dayRef(resourceID, dateKey).OrderBy("slot_index", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	out := make([]*model.SlotRecord, 0, len(snaps))
	for _, snap := range snaps {
		var doc slotDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse slot %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.record())
	}
	return out, nil
}

// Ping issues a minimal read; Firestore has no dedicated health call.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(resourcesCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

type firestoreTx struct {
	store *Store
	tx    *firestore.Transaction
}

// GetMany must run before any PutMany: Firestore rejects reads after writes in a transaction.
func (t *firestoreTx) GetMany(ctx context.Context, keys []model.SlotKey) (map[model.SlotKey]*model.SlotRecord, error) {
	if err := store.ValidateKeys(keys); err != nil {
		return nil, err
	}
	out := make(map[model.SlotKey]*model.SlotRecord, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	refs := make([]*firestore.DocumentRef, len(keys))
	for i, k := range keys {
		refs[i] = t.store.slotRef(k)
	}

	snaps, err := t.tx.GetAll(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}
	for i, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var doc slotDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse slot %s: %w", keys[i], err)
		}
		rec := doc.record()
		out[rec.Key()] = rec
	}
	return out, nil
}

func (t *firestoreTx) PutMany(ctx context.Context, records []*model.SlotRecord) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}
	for _, rec := range records {
		if err := t.tx.Set(t.store.slotRef(rec.Key()), toDoc(rec)); err != nil {
			return fmt.Errorf("failed to write slot %s: %w", rec.Key(), err)
		}
	}
	return nil
}
