package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Razorpay RazorpayConfig
	Sweep    SweepConfig
	Eventing EventingConfig
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
	Env          string `envconfig:"KADAI_APP_ENV" required:"true"`
	Port         string `envconfig:"KADAI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KADAI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KADAI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KADAI_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KADAI_DB_DSN"`
	Driver string `envconfig:"KADAI_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KADAI_DB_HOST"`
	Port     int    `envconfig:"KADAI_DB_PORT" default:"5432"`
	User     string `envconfig:"KADAI_DB_USER"`
	Password string `envconfig:"KADAI_DB_PASSWORD"`
	Name     string `envconfig:"KADAI_DB_NAME"`
	SSLMode  string `envconfig:"KADAI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KADAI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KADAI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KADAI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KADAI_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"KADAI_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KADAI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KADAI_REDIS_ADDR"`
	Password     string        `envconfig:"KADAI_REDIS_PASSWORD"`
	DB           int           `envconfig:"KADAI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KADAI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KADAI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KADAI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KADAI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KADAI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RazorpayConfig carries the gateway credentials and webhook signing secret.
type RazorpayConfig struct {
	KeyID         string        `envconfig:"KADAI_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"KADAI_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"KADAI_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"KADAI_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout       time.Duration `envconfig:"KADAI_RAZORPAY_TIMEOUT" default:"10s"`
}

// SweepConfig controls the pending order expiry sweep.
type SweepConfig struct {
	Token    string        `envconfig:"KADAI_SWEEP_TOKEN"`
	Window   time.Duration `envconfig:"KADAI_SWEEP_WINDOW" default:"24h"`
	Interval time.Duration `envconfig:"KADAI_SWEEP_INTERVAL" default:"1h"`
	Batch    int           `envconfig:"KADAI_SWEEP_BATCH" default:"500"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"KADAI_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
