package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	"creatorclub/internal/slots/store/memory"
	"creatorclub/internal/slots/validator"
	"creatorclub/pkg/config"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/logger"
	"creatorclub/pkg/model"
)

const (
	resource = "room-9"
	day      = "20250601"
)

// ────────────────────────────────────────────────
// Test fixtures
// ────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockPublisher struct {
	mu      sync.Mutex
	events  []*model.SlotsBookedEvent
	publish func(ctx context.Context, event *model.SlotsBookedEvent) error
}

func (m *mockPublisher) PublishSlotsBooked(ctx context.Context, event *model.SlotsBookedEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publish != nil {
		return m.publish(ctx, event)
	}
	return nil
}

type mockAuditor struct {
	records []AuditRecord
	err     error
}

func (m *mockAuditor) Audit(ctx context.Context, record AuditRecord) error {
	m.records = append(m.records, record)
	return m.err
}

type mockStore struct {
	getFunc     func(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error)
	runInTxFunc func(ctx context.Context, fn store.TxFunc) error
	listDayFunc func(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error)
}

func (m *mockStore) Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return nil, slotserrors.ErrNotFound
}

func (m *mockStore) RunInTx(ctx context.Context, fn store.TxFunc) error {
	if m.runInTxFunc != nil {
		return m.runInTxFunc(ctx, fn)
	}
	return nil
}

func (m *mockStore) ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
	if m.listDayFunc != nil {
		return m.listDayFunc(ctx, resourceID, dateKey)
	}
	return nil, nil
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }

func (m *mockStore) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Log:                logger.Discard(),
		DefaultHoldMinutes: 10,
		MaxHoldMinutes:     120,
		MaxRangeSize:       8,
	}
}

type fixture struct {
	svc   SlotService
	store *memory.Store
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	cfg := testConfig()
	clock := newFakeClock()
	st := memory.New()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &fixture{
		svc:   NewSlotService(st, validator.NewSlotValidator(cfg.Log), cfg, opts...),
		store: st,
		clock: clock,
	}
}

func intPtr(i int) *int { return &i }

func (f *fixture) lock(holder string, index int) (*model.LockResult, error) {
	return f.svc.Lock(context.Background(), &model.LockRequest{
		ResourceID: resource, DateKey: day, SlotIndex: intPtr(index), HolderID: holder,
	})
}

func (f *fixture) lockRange(holder string, indices ...int) (*model.LockResult, error) {
	return f.svc.LockRange(context.Background(), &model.LockRangeRequest{
		ResourceID: resource, DateKey: day, SlotIndices: indices, HolderID: holder,
	})
}

func (f *fixture) confirm(index int) error {
	_, err := f.svc.Confirm(context.Background(), &model.ConfirmRequest{
		ResourceID: resource, DateKey: day, SlotIndex: intPtr(index),
	})
	return err
}

func (f *fixture) confirmRange(indices ...int) error {
	_, err := f.svc.ConfirmRange(context.Background(), &model.ConfirmRangeRequest{
		ResourceID: resource, DateKey: day, SlotIndices: indices,
	})
	return err
}

func (f *fixture) record(t *testing.T, index int) *model.SlotRecord {
	t.Helper()
	rec, err := f.store.Get(context.Background(), model.SlotKey{ResourceID: resource, DateKey: day, Index: index})
	if errors.Is(err, slotserrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("get slot %d: %v", index, err)
	}
	return rec
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func assertSlotError(t *testing.T, err error, code string, index int) {
	t.Helper()
	assertCode(t, err, code)
	got, ok := apperrors.SlotIndex(err)
	if !ok || got != index {
		t.Fatalf("expected slot index %d, got %d (present=%v)", index, got, ok)
	}
}

// ────────────────────────────────────────────────
// Lock
// ────────────────────────────────────────────────

func TestLock(t *testing.T) {
	t.Run("absent slot is locked with the default hold", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.lock("u1", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := f.clock.Now().Add(10 * time.Minute)
		if !res.OK || !res.ExpiresAt.Equal(want) {
			t.Errorf("got %+v, want ok with expiry %v", res, want)
		}
		rec := f.record(t, 3)
		if rec.Status != model.SlotLocked || rec.LockedBy != "u1" || !rec.LockedAt.Equal(f.clock.Now()) {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("other holder before expiry fails", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.lock("u1", 3); err != nil {
			t.Fatal(err)
		}
		f.clock.Advance(9 * time.Minute)
		_, err := f.lock("u2", 3)
		assertSlotError(t, err, apperrors.CodeAlreadyLocked, 3)
		if got := f.record(t, 3).LockedBy; got != "u1" {
			t.Errorf("lock owner changed to %q", got)
		}
	})

	t.Run("same holder refreshes expiry", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.lock("u1", 3)
		f.clock.Advance(5 * time.Minute)
		second, err := f.lock("u1", 3)
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if !second.ExpiresAt.After(first.ExpiresAt) {
			t.Errorf("expiry not extended: %v -> %v", first.ExpiresAt, second.ExpiresAt)
		}
	})

	t.Run("any holder locks after expiry", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.lock("u1", 3); err != nil {
			t.Fatal(err)
		}
		f.clock.Advance(11 * time.Minute)
		if _, err := f.lock("u2", 3); err != nil {
			t.Fatalf("lock after expiry failed: %v", err)
		}
		if got := f.record(t, 3).LockedBy; got != "u2" {
			t.Errorf("expected u2 to own the slot, got %q", got)
		}
	})

	t.Run("lock expires exactly at expires_at", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.lock("u1", 3); err != nil {
			t.Fatal(err)
		}
		f.clock.Advance(10 * time.Minute)
		if _, err := f.lock("u2", 3); err != nil {
			t.Fatalf("lock at the expiry instant failed: %v", err)
		}
	})

	t.Run("booked slot fails", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u1", 3)
		if err := f.confirm(3); err != nil {
			t.Fatal(err)
		}
		f.clock.Advance(time.Hour)
		_, err := f.lock("u1", 3)
		assertSlotError(t, err, apperrors.CodeAlreadyBooked, 3)
	})

	t.Run("custom hold", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Lock(context.Background(), &model.LockRequest{
			ResourceID: resource, DateKey: day, SlotIndex: intPtr(0), HoldMinutes: 30, HolderID: "u1",
		})
		if err != nil {
			t.Fatal(err)
		}
		if want := f.clock.Now().Add(30 * time.Minute); !res.ExpiresAt.Equal(want) {
			t.Errorf("expires_at = %v, want %v", res.ExpiresAt, want)
		}
	})
}

func TestLock_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *model.LockRequest
		code string
	}{
		{
			name: "missing holder",
			req:  &model.LockRequest{ResourceID: resource, DateKey: day, SlotIndex: intPtr(0)},
			code: apperrors.CodeUnauthenticated,
		},
		{
			name: "blank holder",
			req:  &model.LockRequest{ResourceID: resource, DateKey: day, SlotIndex: intPtr(0), HolderID: " \t"},
			code: apperrors.CodeUnauthenticated,
		},
		{
			name: "missing resource",
			req:  &model.LockRequest{DateKey: day, SlotIndex: intPtr(0), HolderID: "u1"},
			code: apperrors.CodeInvalidArgument,
		},
		{
			name: "negative index",
			req:  &model.LockRequest{ResourceID: resource, DateKey: day, SlotIndex: intPtr(-1), HolderID: "u1"},
			code: apperrors.CodeInvalidArgument,
		},
		{
			name: "hold above maximum",
			req:  &model.LockRequest{ResourceID: resource, DateKey: day, SlotIndex: intPtr(0), HoldMinutes: 121, HolderID: "u1"},
			code: apperrors.CodeInvalidArgument,
		},
		{
			name: "slash in date key",
			req:  &model.LockRequest{ResourceID: resource, DateKey: "2025/06/01", SlotIndex: intPtr(0), HolderID: "u1"},
			code: apperrors.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Lock(context.Background(), tt.req)
			assertCode(t, err, tt.code)
		})
	}
}

func TestLock_IdentifiersComparedAsGiven(t *testing.T) {
	t.Run("holders differing in inner whitespace contend", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.lock("alice  smith", 1); err != nil {
			t.Fatal(err)
		}

		_, err := f.lock("alice smith", 1)
		assertSlotError(t, err, apperrors.CodeAlreadyLocked, 1)
		if got := f.record(t, 1).LockedBy; got != "alice  smith" {
			t.Errorf("locked_by = %q, want the first holder unchanged", got)
		}
	})

	t.Run("control character in resource id is rejected", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.lock("u1", 1); err != nil {
			t.Fatal(err)
		}

		_, err := f.svc.Lock(context.Background(), &model.LockRequest{
			ResourceID: "room\x00-9", DateKey: day, SlotIndex: intPtr(1), HolderID: "u2",
		})
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})

	t.Run("control character in range date key is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.LockRange(context.Background(), &model.LockRangeRequest{
			ResourceID: resource, DateKey: "2025\x070601", SlotIndices: []int{0, 1}, HolderID: "u1",
		})
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})
}

// ────────────────────────────────────────────────
// LockRange
// ────────────────────────────────────────────────

func TestLockRange(t *testing.T) {
	t.Run("booked index fails the whole range without side effects", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u0", 4)
		if err := f.confirm(4); err != nil {
			t.Fatal(err)
		}

		_, err := f.lockRange("u1", 3, 4, 5)
		assertSlotError(t, err, apperrors.CodeSlotAlreadyBooked, 4)
		if f.record(t, 3) != nil || f.record(t, 5) != nil {
			t.Error("range lock left a partial write")
		}
	})

	t.Run("overlapping range from another holder fails on the shared index", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.lockRange("u1", 2, 1)
		if err != nil {
			t.Fatal(err)
		}
		if fmt.Sprint(res.Slots) != "[1 2]" {
			t.Errorf("slots = %v, want [1 2]", res.Slots)
		}

		_, err = f.lockRange("u2", 2, 3)
		assertSlotError(t, err, apperrors.CodeSlotAlreadyLocked, 2)
		if f.record(t, 3) != nil {
			t.Error("index 3 must stay free")
		}
	})

	t.Run("first failing index is reported", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u0", 7)
		f.lock("u0", 5)
		if err := f.confirm(7); err != nil {
			t.Fatal(err)
		}

		_, err := f.lockRange("u1", 7, 6, 5)
		assertSlotError(t, err, apperrors.CodeSlotAlreadyLocked, 5)
	})

	t.Run("indices are deduplicated and sorted", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.lockRange("u1", 5, 3, 5, 4, 3)
		if err != nil {
			t.Fatal(err)
		}
		if fmt.Sprint(res.Slots) != "[3 4 5]" {
			t.Errorf("slots = %v, want [3 4 5]", res.Slots)
		}
	})

	t.Run("own and expired locks are taken over", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u1", 1)
		f.lock("u2", 2)
		f.clock.Advance(10 * time.Minute)
		f.lock("u1", 3)

		res, err := f.lockRange("u1", 1, 2, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, i := range []int{1, 2, 3} {
			rec := f.record(t, i)
			if rec.LockedBy != "u1" || !rec.ExpiresAt.Equal(res.ExpiresAt) {
				t.Errorf("slot %d: %+v", i, rec)
			}
		}
	})

	t.Run("range above the configured size", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lockRange("u1", 0, 1, 2, 3, 4, 5, 6, 7, 8)
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})

	t.Run("empty range", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lockRange("u1")
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})

	t.Run("missing holder", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lockRange("", 1)
		assertCode(t, err, apperrors.CodeUnauthenticated)
	})
}

func TestLockRange_ConcurrentOverlap(t *testing.T) {
	f := newFixture(t)
	const contenders = 16

	var wg sync.WaitGroup
	errs := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		holder := fmt.Sprintf("u%d", i)
		start := i % 3
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lockRange(holder, start, start+1, 2)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	winners := 0
	for err := range errs {
		switch {
		case err == nil:
			winners++
		case apperrors.HasCode(err, apperrors.CodeSlotAlreadyLocked), apperrors.HasCode(err, apperrors.CodeInternal):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner on shared index 2, got %d", winners)
	}

	owner := f.record(t, 2).LockedBy
	for i := 0; i <= 3; i++ {
		if rec := f.record(t, i); rec != nil && rec.LockedBy != owner {
			t.Errorf("slot %d held by %q, expected only %q to hold slots", i, rec.LockedBy, owner)
		}
	}
}

// ────────────────────────────────────────────────
// Confirm
// ────────────────────────────────────────────────

func TestConfirm(t *testing.T) {
	t.Run("unlocked slot fails", func(t *testing.T) {
		f := newFixture(t)
		assertSlotError(t, f.confirm(6), apperrors.CodeNotLocked, 6)
		if f.record(t, 6) != nil {
			t.Error("confirmation must not create a record")
		}
	})

	t.Run("idempotent and preserves lockedBy", func(t *testing.T) {
		pub := &mockPublisher{}
		f := newFixture(t, WithPublisher(pub))
		f.lock("u1", 6)
		f.clock.Advance(time.Minute)

		if err := f.confirm(6); err != nil {
			t.Fatal(err)
		}
		first := *f.record(t, 6)

		f.clock.Advance(time.Minute)
		if err := f.confirm(6); err != nil {
			t.Fatalf("second confirmation failed: %v", err)
		}
		second := *f.record(t, 6)

		if first.Status != model.SlotBooked || first.LockedBy != "u1" {
			t.Errorf("unexpected record after confirm: %+v", first)
		}
		if !second.BookedAt.Equal(*first.BookedAt) || second.LockedBy != first.LockedBy {
			t.Errorf("second confirmation rewrote the record: %+v vs %+v", first, second)
		}
		if len(pub.events) != 1 {
			t.Errorf("expected one slots.booked event, got %d", len(pub.events))
		}
	})

	t.Run("expired lock is still booked", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u1", 6)
		f.clock.Advance(time.Hour)
		if err := f.confirm(6); err != nil {
			t.Fatal(err)
		}
		if f.record(t, 6).Status != model.SlotBooked {
			t.Error("expected slot to be booked")
		}
	})

	t.Run("publish failure keeps the booking", func(t *testing.T) {
		pub := &mockPublisher{publish: func(ctx context.Context, event *model.SlotsBookedEvent) error {
			return errors.New("broker down")
		}}
		f := newFixture(t, WithPublisher(pub))
		f.lock("u1", 6)
		if err := f.confirm(6); err != nil {
			t.Fatalf("confirmation must not fail on publish errors: %v", err)
		}
		if f.record(t, 6).Status != model.SlotBooked {
			t.Error("booking rolled back")
		}
	})
}

func TestConfirmRange(t *testing.T) {
	t.Run("absent index fails the batch", func(t *testing.T) {
		f := newFixture(t)
		f.lockRange("u1", 1, 3)

		assertSlotError(t, f.confirmRange(3, 2, 1), apperrors.CodeNotLocked, 2)
		for _, i := range []int{1, 3} {
			if f.record(t, i).Status != model.SlotLocked {
				t.Errorf("slot %d booked despite failed batch", i)
			}
		}
	})

	t.Run("partially booked batch books the rest", func(t *testing.T) {
		pub := &mockPublisher{}
		f := newFixture(t, WithPublisher(pub))
		f.lockRange("u1", 1, 2, 3)
		if err := f.confirm(2); err != nil {
			t.Fatal(err)
		}

		if err := f.confirmRange(1, 2, 3); err != nil {
			t.Fatal(err)
		}
		for _, i := range []int{1, 2, 3} {
			if f.record(t, i).Status != model.SlotBooked {
				t.Errorf("slot %d not booked", i)
			}
		}
		if len(pub.events) != 2 || fmt.Sprint(pub.events[1].SlotIndices) != "[1 3]" {
			t.Errorf("unexpected events: %+v", pub.events)
		}
	})
}

// ────────────────────────────────────────────────
// Release
// ────────────────────────────────────────────────

func TestRelease(t *testing.T) {
	release := func(f *fixture, holder string, indices ...int) error {
		return f.svc.Release(context.Background(), &model.ReleaseRequest{
			ResourceID: resource, DateKey: day, SlotIndices: indices, HolderID: holder,
		})
	}

	t.Run("own lock becomes immediately free", func(t *testing.T) {
		f := newFixture(t)
		f.lockRange("u1", 1, 2)
		if err := release(f, "u1", 1, 2, 9); err != nil {
			t.Fatal(err)
		}
		if _, err := f.lockRange("u2", 1, 2); err != nil {
			t.Fatalf("released slots not free: %v", err)
		}
		if rec := f.record(t, 1); rec.LockedBy != "u2" {
			t.Errorf("unexpected owner %q", rec.LockedBy)
		}
	})

	t.Run("other holder's lock fails", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u1", 1)
		assertSlotError(t, release(f, "u2", 1), apperrors.CodeSlotAlreadyLocked, 1)
	})

	t.Run("booked slot fails", func(t *testing.T) {
		f := newFixture(t)
		f.lock("u1", 1)
		f.confirm(1)
		assertSlotError(t, release(f, "u1", 1), apperrors.CodeSlotAlreadyBooked, 1)
	})

	t.Run("missing holder", func(t *testing.T) {
		f := newFixture(t)
		assertCode(t, release(f, "", 1), apperrors.CodeUnauthenticated)
	})
}

// ────────────────────────────────────────────────
// GetDay
// ────────────────────────────────────────────────

func TestGetDay(t *testing.T) {
	auditor := &mockAuditor{}
	f := newFixture(t, WithAuditor(auditor))
	f.lock("u1", 0)
	f.lock("u1", 1)
	f.confirm(1)
	f.clock.Advance(5 * time.Minute)
	f.lock("u2", 2)
	f.clock.Advance(6 * time.Minute)

	views, err := f.svc.GetDay(context.Background(), resource, day, Caller{ID: "admin-1", Role: RoleModerator})
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}
	want := []model.SlotStatus{model.SlotFree, model.SlotBooked, model.SlotLocked}
	for i, v := range views {
		if v.SlotIndex != i || v.Status != want[i] {
			t.Errorf("view %d = %+v, want status %s", i, v, want[i])
		}
	}
	if views[0].LockedBy != "" || views[0].ExpiresAt != nil {
		t.Errorf("expired lock leaked holder details: %+v", views[0])
	}

	if len(auditor.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(auditor.records))
	}
	rec := auditor.records[0]
	if rec.Action != actionGetDay || rec.AdminUID != "admin-1" || rec.Params["resource_id"] != resource {
		t.Errorf("unexpected audit record: %+v", rec)
	}
}

func TestGetDay_Access(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		code   string
	}{
		{name: "anonymous", caller: Caller{}, code: apperrors.CodeUnauthenticated},
		{name: "no role", caller: Caller{ID: "u1"}, code: apperrors.CodeForbidden},
		{name: "finance", caller: Caller{ID: "u1", Role: "finance"}, code: apperrors.CodeForbidden},
		{name: "moderator", caller: Caller{ID: "u1", Role: RoleModerator}},
		{name: "superadmin", caller: Caller{ID: "u1", Role: RoleSuperadmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := &mockAuditor{}
			f := newFixture(t, WithAuditor(auditor))
			_, err := f.svc.GetDay(context.Background(), resource, day, tt.caller)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertCode(t, err, tt.code)
			if len(auditor.records) != 0 {
				t.Error("denied reads must not be audited")
			}
		})
	}
}

func TestGetDay_AuditFailureDoesNotFailRead(t *testing.T) {
	f := newFixture(t, WithAuditor(&mockAuditor{err: errors.New("audit sink down")}))
	if _, err := f.svc.GetDay(context.Background(), resource, day, Caller{ID: "a", Role: RoleSuperadmin}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ────────────────────────────────────────────────
// Store failures
// ────────────────────────────────────────────────

func TestStoreFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "conflict exhausted", err: fmt.Errorf("%w after 5 attempts", slotserrors.ErrConflict), code: apperrors.CodeInternal},
		{name: "backend fault", err: errors.New("connection reset"), code: apperrors.CodeInternal},
		{name: "invalid key", err: fmt.Errorf("%w: resource id", slotserrors.ErrInvalidKey), code: apperrors.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			st := &mockStore{
				runInTxFunc: func(ctx context.Context, fn store.TxFunc) error { return tt.err },
				listDayFunc: func(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
					return nil, tt.err
				},
			}
			svc := NewSlotService(st, validator.NewSlotValidator(cfg.Log), cfg)

			_, err := svc.Lock(context.Background(), &model.LockRequest{
				ResourceID: resource, DateKey: day, SlotIndex: intPtr(0), HolderID: "u1",
			})
			assertCode(t, err, tt.code)

			_, err = svc.ConfirmRange(context.Background(), &model.ConfirmRangeRequest{
				ResourceID: resource, DateKey: day, SlotIndices: []int{0, 1},
			})
			assertCode(t, err, tt.code)

			_, err = svc.GetDay(context.Background(), resource, day, Caller{ID: "a", Role: RoleSuperadmin})
			assertCode(t, err, tt.code)

			if tt.code == apperrors.CodeInternal && !errors.Is(err, tt.err) {
				t.Errorf("internal error must wrap the cause, got %v", err)
			}
		})
	}
}

// ────────────────────────────────────────────────
// End-to-end scenario
// ────────────────────────────────────────────────

func TestScenario_RangeContentionThenBooking(t *testing.T) {
	f := newFixture(t)

	if _, err := f.lockRange("u1", 0, 1, 2); err != nil {
		t.Fatalf("u1 lock: %v", err)
	}

	f.clock.Advance(time.Minute)
	_, err := f.lockRange("u2", 2, 3)
	assertSlotError(t, err, apperrors.CodeSlotAlreadyLocked, 2)

	if err := f.confirmRange(0, 1, 2); err != nil {
		t.Fatalf("u1 confirm: %v", err)
	}

	// Booking is terminal: even past the original hold the slot stays taken.
	f.clock.Advance(time.Hour)
	_, err = f.lockRange("u2", 2, 3)
	assertSlotError(t, err, apperrors.CodeSlotAlreadyBooked, 2)

	if rec := f.record(t, 2); rec.LockedBy != "u1" || rec.Status != model.SlotBooked {
		t.Errorf("unexpected final record: %+v", rec)
	}
	if f.record(t, 3) != nil {
		t.Error("slot 3 must remain free")
	}
}
