package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PIZZERIA_DB_DSN"
	EnvDBHost = "PIZZERIA_DB_HOST"
	EnvDBUser = "PIZZERIA_DB_USER"
	EnvDBName = "PIZZERIA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Zones    ZonesConfig
	Fiscal   FiscalConfig
	Sync     SyncConfig
	Flags    FeatureFlagsConfig
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
	Env          string `envconfig:"PIZZERIA_APP_ENV" required:"true"`
	Port         string `envconfig:"PIZZERIA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PIZZERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIZZERIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PIZZERIA_DB_DSN"`
	Driver string `envconfig:"PIZZERIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIZZERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"PIZZERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIZZERIA_DB_USER"`
	LegacyPassword string `envconfig:"PIZZERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIZZERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIZZERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIZZERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIZZERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIZZERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIZZERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIZZERIA_REDIS_URL"`
	Address      string        `envconfig:"PIZZERIA_REDIS_ADDR"`
	Password     string        `envconfig:"PIZZERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIZZERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIZZERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIZZERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIZZERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIZZERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIZZERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PIZZERIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PIZZERIA_JWT_ISSUER" default:"pizzeria-backend"`
	ExpirationMinutes int    `envconfig:"PIZZERIA_JWT_EXPIRATION_MINUTES" default:"720"`
	SessionTTLMinutes int    `envconfig:"PIZZERIA_SESSION_TTL_MINUTES" default:"1440"`
}

// SessionTTL returns the session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIZZERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIZZERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIZZERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIZZERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIZZERIA_ARGON_KEY_LEN" default:"32"`
}

// ZonesConfig points at the delivery-zone pricing service.
type ZonesConfig struct {
	BaseURL        string        `envconfig:"PIZZERIA_ZONES_BASE_URL"`
	APIKey         string        `envconfig:"PIZZERIA_ZONES_API_KEY"`
	Timeout        time.Duration `envconfig:"PIZZERIA_ZONES_TIMEOUT" default:"5s"`
	DefaultFee     int           `envconfig:"PIZZERIA_ZONES_DEFAULT_FEE_CENTS" default:"20000"`
	DefaultETAMins int           `envconfig:"PIZZERIA_ZONES_DEFAULT_ETA_MINUTES" default:"45"`
}

// FiscalConfig points at the fiscal authority endpoint.
type FiscalConfig struct {
	BaseURL string        `envconfig:"PIZZERIA_FISCAL_BASE_URL"`
	Token   string        `envconfig:"PIZZERIA_FISCAL_TOKEN"`
	Timeout time.Duration `envconfig:"PIZZERIA_FISCAL_TIMEOUT" default:"10s"`
}

// SyncConfig drives the out-of-band integration retry worker.
type SyncConfig struct {
	Interval    time.Duration `envconfig:"PIZZERIA_SYNC_INTERVAL" default:"1m"`
	BatchSize   int           `envconfig:"PIZZERIA_SYNC_BATCH_SIZE" default:"50"`
	MaxAttempts int           `envconfig:"PIZZERIA_SYNC_MAX_ATTEMPTS" default:"10"`
	LockTTL     time.Duration `envconfig:"PIZZERIA_SYNC_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PIZZERIA_AUTO_MIGRATE" default:"false"`
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
