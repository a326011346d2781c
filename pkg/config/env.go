package config

// EnvPrefix is empty because every field names its full variable.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DBDriverMongo    = "mongo"

	IdentityProviderFirebase = "firebase"
	IdentityProviderLocal    = "local"
)

const (
	EnvAppEnv    = "FOODLINK_APP_ENV"
	EnvPort      = "FOODLINK_APP_PORT"
	EnvLogLevel  = "FOODLINK_LOG_LEVEL"
	EnvLogFormat = "FOODLINK_LOG_FORMAT"

	EnvPlatformPort = "PORT"
	EnvInstanceID   = "FOODLINK_INSTANCE_ID"
	EnvDyno         = "DYNO"

	EnvDBDSN    = "FOODLINK_DB_DSN"
	EnvDBDriver = "FOODLINK_DB_DRIVER"
	EnvDBHost   = "FOODLINK_DB_HOST"
	EnvDBUser   = "FOODLINK_DB_USER"
	EnvDBName   = "FOODLINK_DB_NAME"

	EnvMongoURI      = "FOODLINK_MONGO_URI"
	EnvMongoDatabase = "FOODLINK_MONGO_DATABASE"

	EnvRedisURL = "FOODLINK_REDIS_URL"

	EnvIdentityProvider    = "FOODLINK_IDENTITY_PROVIDER"
	EnvFirebaseProjectID   = "FOODLINK_FIREBASE_PROJECT_ID"
	EnvIdentityLocalSecret = "FOODLINK_IDENTITY_LOCAL_SECRET"
	EnvIdentityDefaultRole = "FOODLINK_IDENTITY_DEFAULT_ROLE"

	EnvCORSOrigin = "FOODLINK_CORS_ORIGIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
