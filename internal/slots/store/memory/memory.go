package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	"creatorclub/pkg/model"
)

var errStaleRead = errors.New("record changed since it was read")

type entry struct {
	record  model.SlotRecord
	version uint64
}

// Store is an in-process slot store with optimistic concurrency: a transaction remembers
// the version of every key it read and commits only if none of them moved.
type Store struct {
	mu          sync.Mutex
	data        map[model.SlotKey]entry
	clock       uint64
	maxAttempts int
}

type Option func(*Store)

func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		s.maxAttempts = n
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		data:        make(map[model.SlotKey]entry),
		maxAttempts: store.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, slotserrors.ErrNotFound
	}
	rec := e.record
	return &rec, nil
}

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	return store.Retry(ctx, s.maxAttempts, func() error {
		tx := &memTx{
			s:      s,
			reads:  make(map[model.SlotKey]uint64),
			writes: make(map[model.SlotKey]model.SlotRecord),
		}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return s.commit(tx)
	})
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, version := range tx.reads {
		if s.data[key].version != version {
			return store.Conflict(errStaleRead)
		}
	}

	for key, rec := range tx.writes {
		s.clock++
		s.data[key] = entry{record: rec, version: s.clock}
	}
	return nil
}

func (s *Store) ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.SlotRecord
	for key, e := range s.data {
		if key.ResourceID == resourceID && key.DateKey == dateKey {
			rec := e.record
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotIndex < out[j].SlotIndex })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

type memTx struct {
	s      *Store
	reads  map[model.SlotKey]uint64
	writes map[model.SlotKey]model.SlotRecord
}

func (tx *memTx) GetMany(ctx context.Context, keys []model.SlotKey) (map[model.SlotKey]*model.SlotRecord, error) {
	if err := store.ValidateKeys(keys); err != nil {
		return nil, err
	}

	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()

	out := make(map[model.SlotKey]*model.SlotRecord, len(keys))
	for _, key := range keys {
		if rec, ok := tx.writes[key]; ok {
			out[key] = &rec
			continue
		}

		e, ok := tx.s.data[key]
		if _, seen := tx.reads[key]; !seen {
			tx.reads[key] = e.version
		} else if tx.reads[key] != e.version {
			// Another transaction committed between two reads of this one.
			return nil, store.Conflict(errStaleRead)
		}
		if ok {
			rec := e.record
			out[key] = &rec
		}
	}
	return out, nil
}

func (tx *memTx) PutMany(ctx context.Context, records []*model.SlotRecord) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}
	for _, rec := range records {
		tx.writes[rec.Key()] = *rec
	}
	return nil
}
