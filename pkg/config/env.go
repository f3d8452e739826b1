package config

const (
	EnvPrefix = "BAKERY"

	AppEnvDev   = "dev"
	AppEnvProd  = "prod"
	AppEnvLocal = "local"

	EnvAppEnv = "BAKERY_APP_ENV"
	EnvPort   = "BAKERY_APP_PORT"

	EnvDBDSN      = "BAKERY_DB_DSN"
	EnvDBHost     = "BAKERY_DB_HOST"
	EnvDBUser     = "BAKERY_DB_USER"
	EnvDBPassword = "BAKERY_DB_PASSWORD"
	EnvDBName     = "BAKERY_DB_NAME"

	EnvRedisURL = "BAKERY_REDIS_URL"

	EnvJWTSecret              = "BAKERY_JWT_SECRET"
	EnvJWTIssuer              = "BAKERY_JWT_ISSUER"
	EnvJWTExpMins             = "BAKERY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BAKERY_REFRESH_TOKEN_TTL_MINUTES"

	EnvRateLimitBackend     = "BAKERY_RATE_LIMIT_BACKEND"
	EnvRateLimitOrderMax    = "BAKERY_RATE_LIMIT_ORDER_MAX"
	EnvRateLimitLoginWindow = "BAKERY_RATE_LIMIT_LOGIN_WINDOW"

	EnvDeliveryTimezone = "BAKERY_DELIVERY_TIMEZONE"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
