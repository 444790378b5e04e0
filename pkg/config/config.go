package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable the service reads.
const EnvPrefix = "VENDIBASE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Canonical env var names, exported for tests and tooling.
const (
	EnvAppEnv   = "VENDIBASE_APP_ENV"
	EnvPort     = "VENDIBASE_APP_PORT"
	EnvDBDSN    = "VENDIBASE_DB_DSN"
	EnvDBHost   = "VENDIBASE_DB_HOST"
	EnvDBUser   = "VENDIBASE_DB_USER"
	EnvDBName   = "VENDIBASE_DB_NAME"
	EnvRedisURL = "VENDIBASE_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Costing      CostingConfig
	Reports      ReportsConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDIBASE_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDIBASE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDIBASE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDIBASE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENDIBASE_DB_DSN"`
	Driver string `envconfig:"VENDIBASE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDIBASE_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDIBASE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDIBASE_DB_USER"`
	LegacyPassword string `envconfig:"VENDIBASE_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDIBASE_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDIBASE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDIBASE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDIBASE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDIBASE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDIBASE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDIBASE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDIBASE_REDIS_ADDR"`
	Password     string        `envconfig:"VENDIBASE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDIBASE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDIBASE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDIBASE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDIBASE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDIBASE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDIBASE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDIBASE_AUTO_MIGRATE" default:"false"`
}

// CostingConfig tunes the landed-cost computation.
type CostingConfig struct {
	// Precision is the number of decimal places kept on internal unit costs.
	Precision int32 `envconfig:"VENDIBASE_COSTING_PRECISION" default:"4"`
}

// ReportsConfig controls the read-side valuation cache.
type ReportsConfig struct {
	ValuationCacheTTL time.Duration `envconfig:"VENDIBASE_REPORTS_VALUATION_CACHE_TTL" default:"5m"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"VENDIBASE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"VENDIBASE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"VENDIBASE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Channel        string        `envconfig:"VENDIBASE_OUTBOX_CHANNEL" default:"vendibase.events"`
	Retention      time.Duration `envconfig:"VENDIBASE_OUTBOX_RETENTION" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
