package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	"creatorclub/pkg/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
	uniqueViolation      = "23505"
)

type slotRow struct {
	ResourceID string     `gorm:"primaryKey;column:resource_id;size:128"`
	DateKey    string     `gorm:"primaryKey;column:date_key;size:32"`
	SlotIndex  int        `gorm:"primaryKey;column:slot_index;autoIncrement:false"`
	Status     string     `gorm:"column:status;size:16;not null"`
	LockedBy   string     `gorm:"column:locked_by;not null;default:''"`
	LockedAt   time.Time  `gorm:"column:locked_at;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	BookedAt   *time.Time `gorm:"column:booked_at"`
}

func (slotRow) TableName() string {
	return "slots"
}

func toRow(rec *model.SlotRecord) slotRow {
	return slotRow{
		ResourceID: rec.ResourceID,
		DateKey:    rec.DateKey,
		SlotIndex:  rec.SlotIndex,
		Status:     string(rec.Status),
		LockedBy:   rec.LockedBy,
		LockedAt:   rec.LockedAt.UTC(),
		ExpiresAt:  rec.ExpiresAt.UTC(),
		BookedAt:   rec.BookedAt,
	}
}

func (r slotRow) record() *model.SlotRecord {
	rec := &model.SlotRecord{
		ResourceID: r.ResourceID,
		DateKey:    r.DateKey,
		SlotIndex:  r.SlotIndex,
		Status:     model.SlotStatus(r.Status),
		LockedBy:   r.LockedBy,
		LockedAt:   r.LockedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
	}
	if r.BookedAt != nil {
		t := r.BookedAt.UTC()
		rec.BookedAt = &t
	}
	return rec
}

// Store keeps slots in PostgreSQL. Transactions run SERIALIZABLE and read with FOR UPDATE;
// serialization failures and lost insert races are retried a bounded number of times.
type Store struct {
	db          *gorm.DB
	maxAttempts int
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, maxAttempts: store.DefaultMaxAttempts}
}

var _ store.Store = (*Store)(nil)

// Migrate creates or updates the slots table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&slotRow{}); err != nil {
		return fmt.Errorf("failed to migrate slots table: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	var row slotRow
	err := s.db.WithContext(ctx).
		Where("resource_id = ? AND date_key = ? AND slot_index = ?", key.ResourceID, key.DateKey, key.Index).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, slotserrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	return row.record(), nil
}

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	return store.Retry(ctx, s.maxAttempts, func() error {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, &pgTx{db: tx})
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if isRetryable(err) && !store.IsConflict(err) {
			return store.Conflict(err)
		}
		return err
	})
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case serializationFailure, deadlockDetected, uniqueViolation:
			return true
		}
	}
	return false
}

func (s *Store) ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
	var rows []slotRow
	err := s.db.WithContext(ctx).
		Where("resource_id = ? AND date_key = ?", resourceID, dateKey).
		Order("slot_index").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	out := make([]*model.SlotRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) GetMany(ctx context.Context, keys []model.SlotKey) (map[model.SlotKey]*model.SlotRecord, error) {
	if err := store.ValidateKeys(keys); err != nil {
		return nil, err
	}
	out := make(map[model.SlotKey]*model.SlotRecord, len(keys))

	for partition, indices := range store.GroupByPartition(keys) {
		var rows []slotRow
		err := t.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("resource_id = ? AND date_key = ? AND slot_index IN ?", partition.ResourceID, partition.DateKey, indices).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read slots: %w", err)
		}
		for _, row := range rows {
			rec := row.record()
			out[rec.Key()] = rec
		}
	}
	return out, nil
}

func (t *pgTx) PutMany(ctx context.Context, records []*model.SlotRecord) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([]slotRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}

	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to write slots: %w", err)
	}
	return nil
}
