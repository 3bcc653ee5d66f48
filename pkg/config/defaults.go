package config

import "time"

const (
	StoreMongo     = "mongo"
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultSlotStore = StoreMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "creatorclub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSQLitePath = "slots.db"

	DefaultHoldMinutes    = 10
	DefaultMaxHoldMinutes = 120
	DefaultMaxRangeSize   = 96 // 24h of 15-minute slots

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 10 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024 // 64KB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
