package main

import (
	"errors"
	"time"

	"github.com/ybieul/saas-barbearia/libs/config"
)

type appConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"booking-service"`
	Port        string `env:"PORT" envDefault:"8083"`
	GRPCPort    string `env:"GRPC_PORT" envDefault:"9083"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"false"`

	// DefaultTimezone replaces a tenant zone that is missing or unknown.
	DefaultTimezone string        `env:"DEFAULT_TIMEZONE" envDefault:"America/Sao_Paulo"`
	TenantCacheTTL  time.Duration `env:"TENANT_CACHE_TTL" envDefault:"10m"`
	TenantCacheSize int           `env:"TENANT_CACHE_SIZE" envDefault:"1024"`

	SlotStep        time.Duration `env:"SLOT_STEP" envDefault:"30m"`
	LoadConcurrency int           `env:"LOAD_CONCURRENCY" envDefault:"4"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"5s"`

	KafkaBrokers      string        `env:"KAFKA_BROKERS"`
	KafkaWriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"5s"`

	RedisAddr         string        `env:"REDIS_ADDR"`
	RateLimit         int           `env:"PUBLIC_RATE_LIMIT" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"PUBLIC_RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitFailOpen bool          `env:"PUBLIC_RATE_LIMIT_FAIL_OPEN" envDefault:"true"`

	JWTSecret   string        `env:"JWT_HMAC_SECRET"`
	JWKSURL     string        `env:"JWT_JWKS_URL"`
	JWTIssuer   string        `env:"JWT_ISSUER"`
	JWTAudience string        `env:"JWT_AUDIENCE"`
	JWKSTTL     time.Duration `env:"JWT_JWKS_TTL" envDefault:"10m"`

	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	BodyLimit      int64         `env:"HTTP_BODY_LIMIT_BYTES" envDefault:"1048576"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Parse(&cfg); err != nil {
		return cfg, err
	}
	if _, err := config.Location(cfg.DefaultTimezone); err != nil {
		return cfg, err
	}
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		return cfg, errors.New("one of JWT_HMAC_SECRET or JWT_JWKS_URL is required")
	}
	return cfg, nil
}
