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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Retention    RetentionConfig
	GCP          GCPConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"CARESCHED_APP_ENV" required:"true"`
	Port         string `envconfig:"CARESCHED_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARESCHED_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARESCHED_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARESCHED_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"CARESCHED_DB_DSN"`

	LegacyHost     string `envconfig:"CARESCHED_DB_HOST"`
	LegacyPort     int    `envconfig:"CARESCHED_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARESCHED_DB_USER"`
	LegacyPassword string `envconfig:"CARESCHED_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARESCHED_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARESCHED_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARESCHED_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARESCHED_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARESCHED_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARESCHED_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARESCHED_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARESCHED_REDIS_ADDR"`
	Password     string        `envconfig:"CARESCHED_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARESCHED_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARESCHED_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARESCHED_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARESCHED_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARESCHED_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARESCHED_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds what the API needs to verify tokens minted by the external
// identity provider. The backend never issues tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"CARESCHED_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CARESCHED_JWT_ISSUER" required:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CARESCHED_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"CARESCHED_PUBSUB_DOMAIN_TOPIC" default:"caresched-domain-events"`
	DomainSubscription string `envconfig:"CARESCHED_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CARESCHED_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"CARESCHED_OUTBOX_PUBLISH_POLL_INTERVAL" default:"500ms"`
	MaxAttempts    int           `envconfig:"CARESCHED_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"CARESCHED_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CARESCHED_CRON_INTERVAL" default:"24h"`
}

// RetentionConfig bounds how long notification rows live before the sweeper
// removes them, regardless of read state.
type RetentionConfig struct {
	NotificationDays int `envconfig:"CARESCHED_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CARESCHED_AUTO_MIGRATE" default:"false"`
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
