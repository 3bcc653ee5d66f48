package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSlotStore = "SLOT_STORE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvSQLitePath         = "SQLITE_PATH"
	EnvPostgresDSN        = "POSTGRES_DSN"
	EnvFirestoreProjectID = "FIRESTORE_PROJECT_ID"

	EnvJWTSecret            = "JWT_SECRET"
	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"

	EnvDefaultHoldMinutes = "DEFAULT_HOLD_MINUTES"
	EnvMaxHoldMinutes     = "MAX_HOLD_MINUTES"
	EnvMaxRangeSize       = "MAX_RANGE_SIZE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
