// Package audit persists privileged-read records for the admin dashboard.
package audit

import (
	"context"
	"fmt"
	"time"

	"creatorclub/internal/slots/service"

	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "admin_audit_logs"

type auditDocument struct {
	Action    string         `bson:"action"`
	AdminUID  *string        `bson:"admin_uid"`
	Params    map[string]any `bson:"params"`
	CreatedAt time.Time      `bson:"created_at"`
}

func toDocument(record service.AuditRecord) auditDocument {
	doc := auditDocument{
		Action:    record.Action,
		Params:    record.Params,
		CreatedAt: record.At.UTC(),
	}
	if record.AdminUID != "" {
		uid := record.AdminUID
		doc.AdminUID = &uid
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return doc
}

// MongoAuditor appends one document per record to the admin_audit_logs collection.
type MongoAuditor struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoAuditor(client *mongo.Client, databaseName string, timeout time.Duration) *MongoAuditor {
	return &MongoAuditor{
		collection: client.Database(databaseName).Collection(CollectionName),
		timeout:    timeout,
	}
}

var _ service.Auditor = (*MongoAuditor)(nil)

func (a *MongoAuditor) Audit(ctx context.Context, record service.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, err := a.collection.InsertOne(ctx, toDocument(record)); err != nil {
		return fmt.Errorf("failed to write audit record %s: %w", record.Action, err)
	}
	return nil
}
