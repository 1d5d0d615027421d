package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Metrics      MetricsConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TABLEPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"TABLEPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TABLEPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TABLEPOS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"TABLEPOS_LOG_FORMAT" default:"json"`
	Timezone     string `envconfig:"TABLEPOS_APP_TIMEZONE" default:"UTC"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone business days are computed in.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvAppTimezone, name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"TABLEPOS_DB_DSN"`
	Driver string `envconfig:"TABLEPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABLEPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLEPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLEPOS_DB_USER"`
	LegacyPassword string `envconfig:"TABLEPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLEPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLEPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLEPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLEPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLEPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLEPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// LockTimeout bounds row-lock waits inside a transaction.
	LockTimeout time.Duration `envconfig:"TABLEPOS_DB_LOCK_TIMEOUT" default:"3s"`
	// Queries slower than this are logged at warn. Zero disables the check.
	SlowQuery time.Duration `envconfig:"TABLEPOS_DB_SLOW_QUERY" default:"250ms"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLEPOS_REDIS_URL"`
	Address      string        `envconfig:"TABLEPOS_REDIS_ADDR"`
	Password     string        `envconfig:"TABLEPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLEPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLEPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLEPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLEPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLEPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLEPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
	// IdempotencyTTL is how long replayable responses are kept.
	IdempotencyTTL time.Duration `envconfig:"TABLEPOS_IDEMPOTENCY_TTL" default:"24h"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"TABLEPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TABLEPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TABLEPOS_JWT_EXPIRATION_MINUTES" default:"720"`
	// Leeway absorbs clock drift between the identity provider and the API.
	Leeway time.Duration `envconfig:"TABLEPOS_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TABLEPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TABLEPOS_AUTO_MIGRATE" default:"false"`
}

// TableNumberCeiling mirrors orders_table_number_check in the orders migration.
const TableNumberCeiling = 9

type OrdersConfig struct {
	MaxLinesPerOrder int `envconfig:"TABLEPOS_ORDERS_MAX_LINES" default:"100"`
	MaxTableNumber   int `envconfig:"TABLEPOS_ORDERS_MAX_TABLE" default:"9"`
}

func (o OrdersConfig) validate() error {
	if o.MaxTableNumber < 1 || o.MaxTableNumber > TableNumberCeiling {
		return fmt.Errorf("invalid %s %d: must be between 1 and %d", EnvOrdersMaxTable, o.MaxTableNumber, TableNumberCeiling)
	}
	return nil
}

// HTTPConfig covers the browser-facing policy of the API.
type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"TABLEPOS_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	WriteRateWindow time.Duration `envconfig:"TABLEPOS_WRITE_RATE_WINDOW" default:"1m"`
	WriteRateLimit  int           `envconfig:"TABLEPOS_WRITE_RATE_LIMIT" default:"120"`
	ShutdownTimeout time.Duration `envconfig:"TABLEPOS_SHUTDOWN_TIMEOUT" default:"15s"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"TABLEPOS_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"TABLEPOS_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
