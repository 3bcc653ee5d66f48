package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	mongotx "creatorclub/pkg/db/mongo"
	"creatorclub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

const (
	CollectionName = "Slots"

	writeConflictCode = 112
)

type slotDocument struct {
	ID               string `bson:"_id"`
	model.SlotRecord `bson:",inline"`
}

type Store struct {
	client      *mongo.Client
	collection  *mongo.Collection
	txManager   mongotx.TransactionManager
	timeout     time.Duration
	maxAttempts int
}

func New(client *mongo.Client, databaseName string, timeout time.Duration) *Store {
	return &Store{
		client:      client,
		collection:  client.Database(databaseName).Collection(CollectionName),
		txManager:   mongotx.NewTransactionManager(client),
		timeout:     timeout,
		maxAttempts: store.DefaultMaxAttempts,
	}
}

var _ store.Store = (*Store)(nil)

// withTimeout bounds standalone calls. Inside a transaction the SessionContext is returned
// unchanged, wrapping it would detach the operation from the session.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < s.timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Get(ctx context.Context, key model.SlotKey) (*model.SlotRecord, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc slotDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key.ID()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, slotserrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find slot %s: %w", key, err)
	}
	return &doc.SlotRecord, nil
}

// RunInTx layers a bounded retry over the driver's own transaction retry, so a storm of
// write conflicts ends in ErrConflict instead of running until the driver's time limit.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	return store.Retry(ctx, s.maxAttempts, func() error {
		err := s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			return fn(sessCtx, &mongoTx{collection: s.collection})
		})
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

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(driver.TransientTransactionError) {
		return true
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}

	// Two upserts racing to create the same _id.
	return mongo.IsDuplicateKeyError(err)
}

func (s *Store) ListDay(ctx context.Context, resourceID, dateKey string) ([]*model.SlotRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"resource_id": resourceID, "date_key": dateKey}
	opts := options.Find().SetSort(bson.D{{Key: "slot_index", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []slotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}

	out := make([]*model.SlotRecord, 0, len(docs))
	for i := range docs {
		out = append(out, &docs[i].SlotRecord)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close is a no-op: the client belongs to config.Client and is disconnected on shutdown.
func (s *Store) Close() error {
	return nil
}

type mongoTx struct {
	collection *mongo.Collection
}

func (t *mongoTx) GetMany(ctx context.Context, keys []model.SlotKey) (map[model.SlotKey]*model.SlotRecord, error) {
	if err := store.ValidateKeys(keys); err != nil {
		return nil, err
	}
	out := make(map[model.SlotKey]*model.SlotRecord, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.ID()
	}

	cursor, err := t.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc slotDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode slot: %w", err)
		}
		rec := doc.SlotRecord
		out[rec.Key()] = &rec
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}
	return out, nil
}

func (t *mongoTx) PutMany(ctx context.Context, records []*model.SlotRecord) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		id := rec.Key().ID()
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(slotDocument{ID: id, SlotRecord: *rec}).
			SetUpsert(true))
	}

	if _, err := t.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to write slots: %w", err)
	}
	return nil
}
