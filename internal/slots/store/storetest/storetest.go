// Package storetest is the behavioural suite every slot store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	"creatorclub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Factory func(t *testing.T) store.Store

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func key(index int) model.SlotKey {
	return model.SlotKey{ResourceID: "room-9", DateKey: "20250601", Index: index}
}

func locked(k model.SlotKey, holder string) *model.SlotRecord {
	return &model.SlotRecord{
		ResourceID: k.ResourceID,
		DateKey:    k.DateKey,
		SlotIndex:  k.Index,
		Status:     model.SlotLocked,
		LockedBy:   holder,
		LockedAt:   base,
		ExpiresAt:  base.Add(10 * time.Minute),
	}
}

func put(t *testing.T, s store.Store, records ...*model.SlotRecord) {
	t.Helper()
	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.PutMany(ctx, records)
	})
	require.NoError(t, err)
}

// Run executes the full suite against stores produced by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("PutThenGet", func(t *testing.T) { testPutThenGet(t, newStore(t)) })
	t.Run("GetManyOmitsAbsent", func(t *testing.T) { testGetManyOmitsAbsent(t, newStore(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("FnErrorRollsBack", func(t *testing.T) { testFnErrorRollsBack(t, newStore(t)) })
	t.Run("ListDay", func(t *testing.T) { testListDay(t, newStore(t)) })
	t.Run("InvalidKey", func(t *testing.T) { testInvalidKey(t, newStore(t)) })
	t.Run("ConcurrentClaim", func(t *testing.T) { testConcurrentClaim(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), key(0))
	require.ErrorIs(t, err, slotserrors.ErrNotFound)
}

func testPutThenGet(t *testing.T, s store.Store) {
	rec := locked(key(3), "u1")
	bookedAt := base.Add(2 * time.Minute)
	rec.Status = model.SlotBooked
	rec.BookedAt = &bookedAt
	put(t, s, rec)

	got, err := s.Get(context.Background(), key(3))
	require.NoError(t, err)
	assert.Equal(t, model.SlotBooked, got.Status)
	assert.Equal(t, "u1", got.LockedBy)
	assert.True(t, got.LockedAt.Equal(rec.LockedAt), "locked_at %v != %v", got.LockedAt, rec.LockedAt)
	assert.True(t, got.ExpiresAt.Equal(rec.ExpiresAt), "expires_at %v != %v", got.ExpiresAt, rec.ExpiresAt)
	require.NotNil(t, got.BookedAt)
	assert.True(t, got.BookedAt.Equal(bookedAt))
	assert.Equal(t, key(3), got.Key())
}

func testGetManyOmitsAbsent(t *testing.T, s store.Store) {
	put(t, s, locked(key(1), "u1"), locked(key(3), "u2"))

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		got, err := tx.GetMany(ctx, []model.SlotKey{key(1), key(2), key(3)})
		if err != nil {
			return err
		}
		assert.Len(t, got, 2)
		assert.Equal(t, "u1", got[key(1)].LockedBy)
		assert.Equal(t, "u2", got[key(3)].LockedBy)
		assert.NotContains(t, got, key(2))
		return nil
	})
	require.NoError(t, err)
}

func testOverwrite(t *testing.T, s store.Store) {
	put(t, s, locked(key(5), "u1"))
	put(t, s, locked(key(5), "u2"))

	got, err := s.Get(context.Background(), key(5))
	require.NoError(t, err)
	assert.Equal(t, "u2", got.LockedBy)
	assert.Nil(t, got.BookedAt)
}

func testFnErrorRollsBack(t *testing.T, s store.Store) {
	boom := errors.New("validation failed")
	calls := 0

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		calls++
		if err := tx.PutMany(ctx, []*model.SlotRecord{locked(key(1), "u1"), locked(key(2), "u1")}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "errors from fn must not be retried")

	for _, i := range []int{1, 2} {
		_, err := s.Get(context.Background(), key(i))
		assert.ErrorIs(t, err, slotserrors.ErrNotFound, "slot %d written despite rollback", i)
	}
}

func testListDay(t *testing.T, s store.Store) {
	other := model.SlotKey{ResourceID: "room-1", DateKey: "20250601", Index: 0}
	nextDay := model.SlotKey{ResourceID: "room-9", DateKey: "20250602", Index: 0}
	put(t, s, locked(key(7), "u1"), locked(key(2), "u1"), locked(key(4), "u2"), locked(other, "u3"), locked(nextDay, "u3"))

	records, err := s.ListDay(context.Background(), "room-9", "20250601")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int{2, 4, 7}, []int{records[0].SlotIndex, records[1].SlotIndex, records[2].SlotIndex})

	empty, err := s.ListDay(context.Background(), "room-404", "20250601")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testInvalidKey(t *testing.T, s store.Store) {
	bad := model.SlotKey{ResourceID: "room/9", DateKey: "20250601", Index: 0}

	_, err := s.Get(context.Background(), bad)
	assert.ErrorIs(t, err, slotserrors.ErrInvalidKey)

	err = s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.PutMany(ctx, []*model.SlotRecord{locked(bad, "u1")})
	})
	assert.ErrorIs(t, err, slotserrors.ErrInvalidKey)
}

// testConcurrentClaim races several writers on one absent key: exactly one may create it.
func testConcurrentClaim(t *testing.T, s store.Store) {
	const writers = 8
	errTaken := errors.New("taken")

	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		holder := fmt.Sprintf("u%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
				got, err := tx.GetMany(ctx, []model.SlotKey{key(0)})
				if err != nil {
					return err
				}
				if _, ok := got[key(0)]; ok {
					return errTaken
				}
				return tx.PutMany(ctx, []*model.SlotRecord{locked(key(0), holder)})
			})
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, errTaken), errors.Is(err, slotserrors.ErrConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
}
