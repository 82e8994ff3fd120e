package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/pricing"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Store   StoreConfig
	Lock    LockConfig
	Pricing PricingConfig
}

// Loadは環境変数から読み込み、項目間の整合性もチェックする
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	Port            string        `envconfig:"STOREFRONT_PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"STOREFRONT_REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Addrは ":8080" 形式
func (h HTTPConfig) Addr() string {
	if strings.HasPrefix(h.Port, ":") {
		return h.Port
	}
	return ":" + h.Port
}

type StoreConfig struct {
	Backend     string `envconfig:"STOREFRONT_STORE" default:"memory"`
	DatabaseURL string `envconfig:"STOREFRONT_DATABASE_URL"`
	SQLitePath  string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`
	SeedCatalog bool   `envconfig:"STOREFRONT_SEED_CATALOG" default:"true"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type LockConfig struct {
	Backend          string        `envconfig:"STOREFRONT_LOCK" default:"local"`
	RedisURL         string        `envconfig:"STOREFRONT_REDIS_URL"`
	RedisDialTimeout time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	TTL              time.Duration `envconfig:"STOREFRONT_LOCK_TTL" default:"10s"`
}

type PricingConfig struct {
	TaxRate decimal.Decimal `envconfig:"STOREFRONT_TAX_RATE" default:"0.10"`
}

// Validateは項目をまたぐルールを確認する
func (c Config) Validate() error {
	switch strings.ToLower(c.Store.Backend) {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDatabaseURL, EnvStore, StorePostgres)
		}
	default:
		return fmt.Errorf("%s must be one of memory, postgres, sqlite: got %q", EnvStore, c.Store.Backend)
	}

	switch strings.ToLower(c.Lock.Backend) {
	case LockLocal:
	case LockRedis:
		if c.Lock.RedisURL == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvRedisURL, EnvLock, LockRedis)
		}
	default:
		return fmt.Errorf("%s must be local or redis: got %q", EnvLock, c.Lock.Backend)
	}

	if err := pricing.ValidateTaxRate(c.Pricing.TaxRate); err != nil {
		return fmt.Errorf("%s: %w", EnvTaxRate, err)
	}
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New(EnvRequestTimeout + " must be positive")
	}
	return nil
}
