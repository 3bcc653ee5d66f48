// Package backend opens the Slot Store selected by SLOT_STORE.
package backend

import (
	"context"
	"fmt"

	"creatorclub/internal/slots/store"
	firestorestore "creatorclub/internal/slots/store/firestore"
	"creatorclub/internal/slots/store/memory"
	mongostore "creatorclub/internal/slots/store/mongo"
	postgresstore "creatorclub/internal/slots/store/postgres"
	sqlitestore "creatorclub/internal/slots/store/sqlite"
	"creatorclub/pkg/config"
	pgdb "creatorclub/pkg/db/postgres"
	sqlitedb "creatorclub/pkg/db/sqlite"
)

func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.SlotStore {
	case config.StoreMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		return mongostore.New(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.MongoConnTimeout), nil

	case config.StoreSQLite:
		db, err := sqlitedb.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlitestore.New(db), nil

	case config.StorePostgres:
		db, err := pgdb.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgresstore.New(db), nil

	case config.StoreFirestore:
		return firestorestore.New(ctx, cfg.FirestoreProjectID)

	case config.StoreMemory:
		cfg.Log.Warn("Using in-memory slot store, state is lost on restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown slot store %q", cfg.SlotStore)
	}
}
