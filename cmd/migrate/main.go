package main

import (
	"context"
	"fmt"
	"time"

	mongoMigration "creatorclub/internal/migrations/mongo"
	postgresstore "creatorclub/internal/slots/store/postgres"
	"creatorclub/pkg/config"
	pgdb "creatorclub/pkg/db/postgres"
	sqlitedb "creatorclub/pkg/db/sqlite"
)

const JobName = "slots-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.Log.Info("Starting migration job", "store", cfg.SlotStore)

	err := migrate(ctx, cfg)
	cfg.GracefulShutdown()
	if err != nil {
		cfg.Log.Fatal("Migration failed", "store", cfg.SlotStore, "error", err)
	}
	cfg.Log.Info("Migration completed successfully", "store", cfg.SlotStore)
}

func migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.SlotStore {
	case config.StoreMongo:
		cfg.SetMongo()
		return mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)

	case config.StoreSQLite:
		// Open applies the embedded migrations.
		db, err := sqlitedb.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		return db.Close()

	case config.StorePostgres:
		db, err := pgdb.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		return postgresstore.Migrate(ctx, db)

	case config.StoreFirestore, config.StoreMemory:
		cfg.Log.Info("Store is schemaless, nothing to migrate")
		return nil

	default:
		return fmt.Errorf("unknown slot store %q", cfg.SlotStore)
	}
}
