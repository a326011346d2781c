package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Idempotency  IdempotencyConfig
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
	if err := cfg.Identity.validate(); err != nil {
		return nil, err
	}
	if cfg.DB.UsesMongo() && cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvMongoURI, EnvDBDriver, DBDriverMongo)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"FOODLINK_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"FOODLINK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FOODLINK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FOODLINK_LOG_WARN_STACK" default:"false"`

	// Set by the hosting platform rather than by FoodLink deployments.
	PlatformPort string `envconfig:"PORT"`
	InstanceID   string `envconfig:"FOODLINK_INSTANCE_ID"`
	Dyno         string `envconfig:"DYNO"`
}

// ListenAddr prefers the platform-assigned PORT over FOODLINK_APP_PORT.
func (a AppConfig) ListenAddr() string {
	if port := strings.TrimSpace(a.PlatformPort); port != "" {
		return ":" + port
	}
	return ":" + a.Port
}

// ConsoleLogs reports whether logs should be human readable instead of JSON.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

// Instance names this process in logs: FOODLINK_INSTANCE_ID, then the dyno,
// then the hostname.
func (a AppConfig) Instance() string {
	for _, id := range []string{a.InstanceID, a.Dyno} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"FOODLINK_DB_DSN"`
	Driver string `envconfig:"FOODLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODLINK_DB_USER"`
	LegacyPassword string `envconfig:"FOODLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// NormalizedDriver lowercases the configured driver, defaulting to postgres.
func (db DBConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	if driver == "" {
		return DBDriverPostgres
	}
	return driver
}

// UsesMongo reports whether donations and profiles live in MongoDB.
func (db DBConfig) UsesMongo() bool {
	return db.NormalizedDriver() == DBDriverMongo
}

type MongoConfig struct {
	URI            string        `envconfig:"FOODLINK_MONGO_URI"`
	Database       string        `envconfig:"FOODLINK_MONGO_DATABASE" default:"foodlink"`
	ConnectTimeout time.Duration `envconfig:"FOODLINK_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// RedisConfig is optional; idempotency and rate limiting are disabled without it.
type RedisConfig struct {
	URL          string        `envconfig:"FOODLINK_REDIS_URL"`
	Address      string        `envconfig:"FOODLINK_REDIS_ADDR"`
	Password     string        `envconfig:"FOODLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type IdentityConfig struct {
	Provider          string        `envconfig:"FOODLINK_IDENTITY_PROVIDER" default:"firebase"`
	FirebaseProjectID string        `envconfig:"FOODLINK_FIREBASE_PROJECT_ID"`
	JWKSURL           string        `envconfig:"FOODLINK_IDENTITY_JWKS_URL" default:"https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"`
	JWKSRefresh       time.Duration `envconfig:"FOODLINK_IDENTITY_JWKS_REFRESH" default:"1h"`
	LocalSecret       string        `envconfig:"FOODLINK_IDENTITY_LOCAL_SECRET"`
	LocalIssuer       string        `envconfig:"FOODLINK_IDENTITY_LOCAL_ISSUER" default:"foodlink-local"`
	LocalTTLMinutes   int           `envconfig:"FOODLINK_IDENTITY_LOCAL_TTL_MINUTES" default:"60"`
	DefaultRole       string        `envconfig:"FOODLINK_IDENTITY_DEFAULT_ROLE" default:"donor"`
}

// NormalizedProvider lowercases the configured provider name.
func (i IdentityConfig) NormalizedProvider() string {
	return strings.ToLower(strings.TrimSpace(i.Provider))
}

// LocalTTL returns the lifetime of locally minted identity tokens.
func (i IdentityConfig) LocalTTL() time.Duration {
	if i.LocalTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(i.LocalTTLMinutes) * time.Minute
}

func (i IdentityConfig) validate() error {
	switch i.NormalizedProvider() {
	case IdentityProviderFirebase:
		if i.FirebaseProjectID == "" {
			return fmt.Errorf("%s is required for the firebase identity provider", EnvFirebaseProjectID)
		}
	case IdentityProviderLocal:
		if i.LocalSecret == "" {
			return fmt.Errorf("%s is required for the local identity provider", EnvIdentityLocalSecret)
		}
	default:
		return fmt.Errorf("unsupported identity provider %q", i.Provider)
	}
	return nil
}

type CORSConfig struct {
	RawOrigins string `envconfig:"FOODLINK_CORS_ORIGIN" default:"http://localhost:3000,http://localhost:8080"`
}

// Origins splits the comma-separated allowlist.
func (c CORSConfig) Origins() []string {
	parts := strings.Split(c.RawOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

type RateLimitConfig struct {
	MutationWindow time.Duration `envconfig:"FOODLINK_RATE_LIMIT_MUTATION_WINDOW" default:"1m"`
	MutationLimit  int           `envconfig:"FOODLINK_RATE_LIMIT_MUTATION_LIMIT" default:"30"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"FOODLINK_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FOODLINK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	driver := db.NormalizedDriver()
	switch driver {
	case DBDriverMongo:
		return nil
	case DBDriverSQLite:
		if db.DSN == "" {
			db.DSN = "file:foodlink.db?cache=shared"
		}
		return nil
	case DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}

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
