package config

const (
	EnvPrefix = "TABLEPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:tablepos.db?_foreign_keys=on"
)

const (
	EnvAppEnv      = "TABLEPOS_APP_ENV"
	EnvPort        = "TABLEPOS_APP_PORT"
	EnvLogLevel    = "TABLEPOS_LOG_LEVEL"
	EnvLogFormat   = "TABLEPOS_LOG_FORMAT"
	EnvAppTimezone = "TABLEPOS_APP_TIMEZONE"

	EnvOrdersMaxTable = "TABLEPOS_ORDERS_MAX_TABLE"

	EnvDBDSN         = "TABLEPOS_DB_DSN"
	EnvDBDriver      = "TABLEPOS_DB_DRIVER"
	EnvDBHost        = "TABLEPOS_DB_HOST"
	EnvDBPort        = "TABLEPOS_DB_PORT"
	EnvDBUser        = "TABLEPOS_DB_USER"
	EnvDBPassword    = "TABLEPOS_DB_PASSWORD"
	EnvDBName        = "TABLEPOS_DB_NAME"
	EnvDBLockTimeout = "TABLEPOS_DB_LOCK_TIMEOUT"
	EnvDBSlowQuery   = "TABLEPOS_DB_SLOW_QUERY"

	EnvRedisURL       = "TABLEPOS_REDIS_URL"
	EnvIdempotencyTTL = "TABLEPOS_IDEMPOTENCY_TTL"

	EnvJWTSecret  = "TABLEPOS_JWT_SECRET"
	EnvJWTIssuer  = "TABLEPOS_JWT_ISSUER"
	EnvJWTExpMins = "TABLEPOS_JWT_EXPIRATION_MINUTES"
	EnvJWTLeeway  = "TABLEPOS_JWT_LEEWAY"

	EnvUseSQLite   = "TABLEPOS_USE_SQLITE"
	EnvAutoMigrate = "TABLEPOS_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
