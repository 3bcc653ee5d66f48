package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"creatorclub/internal/slots/store"
	"creatorclub/internal/slots/store/storetest"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

const connectionTimeout = 10 * time.Second

// TEST_MONGO_URI must point at a replica set; standalone servers reject transactions.
func connect(t *testing.T) *mongo.Client {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	})
	return client
}

func TestMongoStore(t *testing.T) {
	client := connect(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		dbName := fmt.Sprintf("slots_test_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano())
		if len(dbName) > 60 {
			dbName = dbName[len(dbName)-60:]
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		defer cancel()
		// Collections cannot be created implicitly inside a transaction on older servers.
		if err := client.Database(dbName).CreateCollection(ctx, CollectionName); err != nil {
			t.Fatalf("failed to create collection: %v", err)
		}
		t.Cleanup(func() { _ = client.Database(dbName).Drop(context.Background()) })

		return New(client, dbName, connectionTimeout)
	})
}

type labeledErr struct{ labels []string }

func (e labeledErr) Error() string { return "labeled" }

func (e labeledErr) HasErrorLabel(label string) bool {
	for _, l := range e.labels {
		if l == label {
			return true
		}
	}
	return false
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "transient transaction label", err: fmt.Errorf("commit: %w", labeledErr{labels: []string{driver.TransientTransactionError}}), want: true},
		{name: "labelled command error", err: mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}, want: true},
		{name: "other label", err: labeledErr{labels: []string{"NetworkError"}}, want: false},
		{name: "write conflict", err: mongo.CommandError{Code: writeConflictCode, Message: "WriteConflict"}, want: true},
		{name: "other command error", err: mongo.CommandError{Code: 2, Message: "BadValue"}, want: false},
		{name: "duplicate key", err: mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
