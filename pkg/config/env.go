package config

// EnvPrefix is passed to envconfig; every tag below also works as a bare
// variable name through envconfig's alternate-key lookup.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat    = "STOREFRONT_LOG_FORMAT"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"
	EnvCORSOrigins  = "STOREFRONT_CORS_ORIGINS"

	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBDriver   = "STOREFRONT_DB_DRIVER"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvDBSSLMode  = "STOREFRONT_DB_SSLMODE"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret            = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer            = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpirationMinutes = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "STOREFRONT_USE_SQLITE"
	EnvAutoMigrate = "STOREFRONT_AUTO_MIGRATE"

	EnvCatalogCacheTTL = "STOREFRONT_CATALOG_CACHE_TTL"

	EnvLowStockThreshold = "STOREFRONT_LOW_STOCK_THRESHOLD"
	EnvStockPolicy       = "STOREFRONT_STOCK_POLICY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
