package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Inventory     InventoryConfig
	Notifications NotificationsConfig
	Metrics       MetricsConfig
	Maintenance   MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// validate catches values envconfig accepts but the services cannot run with.
// Every problem is reported, not just the first.
func (c *Config) validate() error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.JWT.TTL() > 0, "%s must be positive", EnvJWTExpMins)
	check(c.Inventory.DefaultMinStock >= 0, "%s must not be negative", EnvDefaultMinStock)
	check(strings.TrimSpace(c.Inventory.OrderNumberPrefix) != "", "AUTOSHOP_ORDER_NUMBER_PREFIX must not be blank")
	check(c.Maintenance.Interval > 0, "AUTOSHOP_MAINTENANCE_INTERVAL must be positive")
	check(c.DB.IsSQLite() || strings.EqualFold(c.DB.Driver, DBDriverPostgres), "%s %q is not supported", EnvDBDriver, c.DB.Driver)
	check(!c.Metrics.Enabled || strings.HasPrefix(c.Metrics.Path, "/"), "AUTOSHOP_METRICS_PATH must start with /")
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"AUTOSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AUTOSHOP_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"AUTOSHOP_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"AUTOSHOP_LOG_WARN_STACK" default:"false"`

	AllowedOrigins []string `envconfig:"AUTOSHOP_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOSHOP_DB_DSN"`
	Driver string `envconfig:"AUTOSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTOSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOSHOP_DB_USER"`
	LegacyPassword string `envconfig:"AUTOSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"AUTOSHOP_DB_SLOW_QUERY_THRESHOLD" default:"300ms"`
}

// IsSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AUTOSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AUTOSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AUTOSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AUTOSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TTL returns the configured access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AUTOSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AUTOSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AUTOSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AUTOSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AUTOSHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"AUTOSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"AUTOSHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"AUTOSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AUTOSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AUTOSHOP_AUTO_MIGRATE" default:"false"`
}

type InventoryConfig struct {
	DefaultMinStock   int    `envconfig:"AUTOSHOP_INVENTORY_DEFAULT_MIN_STOCK" default:"5"`
	OrderNumberPrefix string `envconfig:"AUTOSHOP_ORDER_NUMBER_PREFIX" default:"OS"`
}

type NotificationsConfig struct {
	// Recipients receive low-stock messages; delivery is best-effort.
	Recipients []string `envconfig:"AUTOSHOP_NOTIFY_RECIPIENTS"`
	FromEmail  string   `envconfig:"AUTOSHOP_NOTIFY_FROM_EMAIL" default:"stock@autoshop.local"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"AUTOSHOP_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"AUTOSHOP_METRICS_PATH" default:"/metrics"`
}

type MaintenanceConfig struct {
	Interval              time.Duration `envconfig:"AUTOSHOP_MAINTENANCE_INTERVAL" default:"6h"`
	NotificationRetention time.Duration `envconfig:"AUTOSHOP_NOTIFICATION_RETENTION" default:"720h"`
	ReconcileBatchSize    int           `envconfig:"AUTOSHOP_RECONCILE_BATCH_SIZE" default:"200"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
