package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"creatorclub/internal/migrations/mongo/validators"
	"creatorclub/internal/slots/audit"
	slotstore "creatorclub/internal/slots/store/mongo"
	"creatorclub/pkg/logger"
)

var SlotsIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "resource_id", Value: 1},
			{Key: "date_key", Value: 1},
			{Key: "slot_index", Value: 1},
		},
		Options: options.Index().SetName("slot_identity").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("status_expiry"),
	},
}

var AuditLogsIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("created_at_desc"),
	},
	{
		Keys:    bson.D{{Key: "admin_uid", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("admin_created_at"),
	},
}

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		slotstore.CollectionName: {
			Indexes:   SlotsIndexes,
			Validator: validators.SlotValidator,
		},
		audit.CollectionName: {
			Indexes:   AuditLogsIndexes,
			Validator: validators.AuditLogValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, databaseName string, log *logger.Logger) error {
	db := client.Database(databaseName)
	log.Info("Running Mongo migrations", "database", databaseName)

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
