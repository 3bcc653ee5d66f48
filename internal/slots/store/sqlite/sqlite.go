package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	sqlitedb "creatorclub/pkg/db/sqlite"
	"creatorclub/pkg/model"
)

const selectColumns = "resource_id, date_key, slot_index, status, locked_by, locked_at_ms, expires_at_ms, booked_at_ms"

// Store keeps slots in SQLite. Every transaction runs on the single writer goroutine,
// so a read-then-write never interleaves with another and no conflict retry is needed.
type Store struct {
	db     *sql.DB
	writer *sqlitedb.Worker
}

func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		writer: sqlitedb.NewWorker(db),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM slots WHERE resource_id = ? AND date_key = ? AND slot_index = ?;",
		key.ResourceID, key.DateKey, key.Index,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, slotserrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return rec, nil
}

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &sqliteTx{tx: tx})
	})
}

func (s *Store) ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM slots WHERE resource_id = ? AND date_key = ? ORDER BY slot_index;",
		resourceID, dateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []*model.SlotRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.writer.Close()
	return s.db.Close()
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetMany(ctx context.Context, keys []model.SlotKey) (map[model.SlotKey]*model.SlotRecord, error) {
	if err := store.ValidateKeys(keys); err != nil {
		return nil, err
	}
	out := make(map[model.SlotKey]*model.SlotRecord, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	// The partition filter uses the primary key prefix; indices are matched in one IN list.
	// Keys spanning several partitions are grouped so each group is a single query.
	for partition, indices := range store.GroupByPartition(keys) {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(indices)), ",")
		args := make([]any, 0, len(indices)+2)
		args = append(args, partition.ResourceID, partition.DateKey)
		for _, i := range indices {
			args = append(args, i)
		}

		rows, err := t.tx.QueryContext(ctx,
			"SELECT "+selectColumns+" FROM slots WHERE resource_id = ? AND date_key = ? AND slot_index IN ("+placeholders+");",
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("read slots: %w", err)
		}
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan slot: %w", err)
			}
			out[rec.Key()] = rec
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("read slots: %w", err)
		}
	}
	return out, nil
}

func (t *sqliteTx) PutMany(ctx context.Context, records []*model.SlotRecord) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}

	stmt, err := t.tx.PrepareContext(ctx, `
INSERT INTO slots (resource_id, date_key, slot_index, status, locked_by, locked_at_ms, expires_at_ms, booked_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (resource_id, date_key, slot_index) DO UPDATE SET
  status = excluded.status,
  locked_by = excluded.locked_by,
  locked_at_ms = excluded.locked_at_ms,
  expires_at_ms = excluded.expires_at_ms,
  booked_at_ms = excluded.booked_at_ms;`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var bookedAt sql.NullInt64
		if rec.BookedAt != nil {
			bookedAt = sql.NullInt64{Int64: rec.BookedAt.UnixMilli(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ResourceID, rec.DateKey, rec.SlotIndex, string(rec.Status), rec.LockedBy,
			rec.LockedAt.UnixMilli(), rec.ExpiresAt.UnixMilli(), bookedAt,
		); err != nil {
			return fmt.Errorf("upsert slot %s: %w", rec.Key(), err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*model.SlotRecord, error) {
	var (
		rec                 model.SlotRecord
		status              string
		lockedAt, expiresAt int64
		bookedAt            sql.NullInt64
	)
	if err := row.Scan(&rec.ResourceID, &rec.DateKey, &rec.SlotIndex, &status, &rec.LockedBy, &lockedAt, &expiresAt, &bookedAt); err != nil {
		return nil, err
	}

	rec.Status = model.SlotStatus(status)
	rec.LockedAt = time.UnixMilli(lockedAt).UTC()
	rec.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	if bookedAt.Valid {
		t := time.UnixMilli(bookedAt.Int64).UTC()
		rec.BookedAt = &t
	}
	return &rec, nil
}
