package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	OpenAI       OpenAIConfig
	Intake       IntakeConfig
	Resolver     ResolverConfig
	GCS          GCSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POINGEST_APP_ENV" required:"true"`
	Port         string `envconfig:"POINGEST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"POINGEST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POINGEST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"POINGEST_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"POINGEST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POINGEST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POINGEST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POINGEST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POINGEST_REDIS_URL"`
	Address      string        `envconfig:"POINGEST_REDIS_ADDR"`
	Password     string        `envconfig:"POINGEST_REDIS_PASSWORD"`
	DB           int           `envconfig:"POINGEST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POINGEST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POINGEST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POINGEST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POINGEST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POINGEST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopifyConfig carries Admin API credentials for the shop this instance
// serves. The parse request's shop_domain must match ShopDomain.
type ShopifyConfig struct {
	ShopDomain  string        `envconfig:"POINGEST_SHOPIFY_SHOP_DOMAIN" required:"true"`
	AccessToken string        `envconfig:"POINGEST_SHOPIFY_ACCESS_TOKEN" required:"true"`
	APIVersion  string        `envconfig:"POINGEST_SHOPIFY_API_VERSION" default:"2025-01"`
	Timeout     time.Duration `envconfig:"POINGEST_SHOPIFY_TIMEOUT" default:"15s"`
	MaxRetries  int           `envconfig:"POINGEST_SHOPIFY_MAX_RETRIES" default:"3"`
}

type OpenAIConfig struct {
	APIKey          string        `envconfig:"POINGEST_OPENAI_API_KEY"`
	Model           string        `envconfig:"POINGEST_OPENAI_MODEL" default:"gpt-4o"`
	Timeout         time.Duration `envconfig:"POINGEST_OPENAI_TIMEOUT" default:"90s"`
	MaxOutputTokens int64         `envconfig:"POINGEST_OPENAI_MAX_OUTPUT_TOKENS" default:"8192"`
}

type IntakeConfig struct {
	MaxFileSizeBytes int64 `envconfig:"POINGEST_INTAKE_MAX_FILE_SIZE_BYTES" default:"10485760"`
}

type ResolverConfig struct {
	Concurrency     int           `envconfig:"POINGEST_RESOLVER_CONCURRENCY" default:"8"`
	VariantCacheTTL time.Duration `envconfig:"POINGEST_RESOLVER_VARIANT_CACHE_TTL" default:"10m"`
}

type GCSConfig struct {
	BucketName      string `envconfig:"POINGEST_GCS_BUCKET"`
	CredentialsFile string `envconfig:"POINGEST_GCS_CREDENTIALS_FILE"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"POINGEST_AUTO_MIGRATE" default:"false"`
}
