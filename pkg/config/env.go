package config

const (
	EnvPrefix = "AUTOSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:autoshop.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv   = "AUTOSHOP_APP_ENV"
	EnvPort     = "AUTOSHOP_APP_PORT"
	EnvLogLevel = "AUTOSHOP_LOG_LEVEL"

	EnvDBDSN    = "AUTOSHOP_DB_DSN"
	EnvDBDriver = "AUTOSHOP_DB_DRIVER"
	EnvDBHost   = "AUTOSHOP_DB_HOST"
	EnvDBUser   = "AUTOSHOP_DB_USER"
	EnvDBName   = "AUTOSHOP_DB_NAME"

	EnvRedisURL = "AUTOSHOP_REDIS_URL"

	EnvJWTSecret  = "AUTOSHOP_JWT_SECRET"
	EnvJWTIssuer  = "AUTOSHOP_JWT_ISSUER"
	EnvJWTExpMins = "AUTOSHOP_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite        = "AUTOSHOP_USE_SQLITE"
	EnvNotifyRecipients = "AUTOSHOP_NOTIFY_RECIPIENTS"
	EnvDefaultMinStock  = "AUTOSHOP_INVENTORY_DEFAULT_MIN_STOCK"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
