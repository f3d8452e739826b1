package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	Delivery     DeliveryConfig
	Cache        CacheConfig
	CORS         CORSConfig
	Idempotency  IdempotencyConfig
	Telemetry    TelemetryConfig
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
	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Delivery.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAKERY_APP_ENV" required:"true"`
	Port         string `envconfig:"BAKERY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAKERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAKERY_LOG_WARN_STACK" default:"false"`
	// Diagnostics appends the underlying error text to user facing failure
	// messages. Always on in dev.
	Diagnostics bool `envconfig:"BAKERY_APP_DIAGNOSTICS" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, AppEnvLocal)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

func (a AppConfig) DiagnosticsEnabled() bool {
	return a.Diagnostics || a.IsDev()
}

type DBConfig struct {
	DSN string `envconfig:"BAKERY_DB_DSN"`

	LegacyHost     string `envconfig:"BAKERY_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKERY_DB_USER"`
	LegacyPassword string `envconfig:"BAKERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKERY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAKERY_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"BAKERY_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"BAKERY_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAKERY_REDIS_ADDR"`
	Password     string        `envconfig:"BAKERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAKERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAKERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKERY_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"BAKERY_REDIS_NAMESPACE" default:"bk"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BAKERY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BAKERY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BAKERY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BAKERY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAKERY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAKERY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAKERY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAKERY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAKERY_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds the fixed-window policies. The order and login
// defaults are an external contract and should only be tuned for tests.
type RateLimitConfig struct {
	Backend       string        `envconfig:"BAKERY_RATE_LIMIT_BACKEND" default:"memory"`
	OrderMax      int           `envconfig:"BAKERY_RATE_LIMIT_ORDER_MAX" default:"10"`
	OrderWindow   time.Duration `envconfig:"BAKERY_RATE_LIMIT_ORDER_WINDOW" default:"1h"`
	LoginMax      int           `envconfig:"BAKERY_RATE_LIMIT_LOGIN_MAX" default:"5"`
	LoginWindow   time.Duration `envconfig:"BAKERY_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	GeneralMax    int           `envconfig:"BAKERY_RATE_LIMIT_GENERAL_MAX" default:"100"`
	GeneralWindow time.Duration `envconfig:"BAKERY_RATE_LIMIT_GENERAL_WINDOW" default:"1m"`
	SweepInterval time.Duration `envconfig:"BAKERY_RATE_LIMIT_SWEEP_INTERVAL" default:"1m"`
}

func (r RateLimitConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(r.Backend)) {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvRateLimitBackend, RateLimitBackendMemory, RateLimitBackendRedis, r.Backend)
	}
	if r.OrderMax <= 0 || r.LoginMax <= 0 || r.GeneralMax <= 0 {
		return fmt.Errorf("rate limit maximums must be positive")
	}
	if r.OrderWindow <= 0 || r.LoginWindow <= 0 || r.GeneralWindow <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	return nil
}

// UsesRedis reports whether rate limit counters live in redis.
func (r RateLimitConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(r.Backend), RateLimitBackendRedis)
}

type DeliveryConfig struct {
	Timezone string `envconfig:"BAKERY_DELIVERY_TIMEZONE" default:"Asia/Jerusalem"`
}

// Location resolves the configured delivery timezone.
func (d DeliveryConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvDeliveryTimezone, err)
	}
	return loc, nil
}

type CacheConfig struct {
	OrderHistoryTTL time.Duration `envconfig:"BAKERY_CACHE_ORDER_HISTORY_TTL" default:"5m"`
}

type CORSConfig struct {
	Origins []string `envconfig:"BAKERY_CORS_ORIGINS" default:"http://localhost:3000"`
}

type IdempotencyConfig struct {
	OrderCreateTTL time.Duration `envconfig:"BAKERY_IDEMPOTENCY_ORDER_CREATE_TTL" default:"24h"`
	OrderCancelTTL time.Duration `envconfig:"BAKERY_IDEMPOTENCY_ORDER_CANCEL_TTL" default:"168h"`
}

type TelemetryConfig struct {
	SentryDSN        string  `envconfig:"BAKERY_SENTRY_DSN"`
	SentryEnv        string  `envconfig:"BAKERY_SENTRY_ENVIRONMENT"`
	TracesSampleRate float64 `envconfig:"BAKERY_SENTRY_TRACES_SAMPLE_RATE" default:"0"`
}

func (t TelemetryConfig) Enabled() bool {
	return strings.TrimSpace(t.SentryDSN) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAKERY_AUTO_MIGRATE" default:"false"`
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
