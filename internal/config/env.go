package config

const (
	EnvPrefix = "STOREFRONT"

	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_PORT"
	EnvStore          = "STOREFRONT_STORE"
	EnvDatabaseURL    = "STOREFRONT_DATABASE_URL"
	EnvLock           = "STOREFRONT_LOCK"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvTaxRate        = "STOREFRONT_TAX_RATE"
	EnvRequestTimeout = "STOREFRONT_REQUEST_TIMEOUT"
	EnvSeedCatalog    = "STOREFRONT_SEED_CATALOG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	LockLocal = "local"
	LockRedis = "redis"
)
