package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Gateway       GatewayConfig
	SMS           SMSConfig
	Mail          MailConfig
	Billing       BillingConfig
	Portal        PortalConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOTSPOTBILL_APP_ENV" required:"true"`
	Port         string `envconfig:"HOTSPOTBILL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOTSPOTBILL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOTSPOTBILL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HOTSPOTBILL_DB_DSN"`
	Driver string `envconfig:"HOTSPOTBILL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOTSPOTBILL_DB_HOST"`
	LegacyPort     int    `envconfig:"HOTSPOTBILL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOTSPOTBILL_DB_USER"`
	LegacyPassword string `envconfig:"HOTSPOTBILL_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOTSPOTBILL_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOTSPOTBILL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOTSPOTBILL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOTSPOTBILL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOTSPOTBILL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOTSPOTBILL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOTSPOTBILL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOTSPOTBILL_REDIS_ADDR"`
	Password     string        `envconfig:"HOTSPOTBILL_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOTSPOTBILL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOTSPOTBILL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOTSPOTBILL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOTSPOTBILL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOTSPOTBILL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOTSPOTBILL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HOTSPOTBILL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HOTSPOTBILL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HOTSPOTBILL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenDays  int    `envconfig:"HOTSPOTBILL_JWT_REFRESH_TOKEN_DAYS" default:"14"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh session lifetime.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenDays <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HOTSPOTBILL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HOTSPOTBILL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HOTSPOTBILL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HOTSPOTBILL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HOTSPOTBILL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"HOTSPOTBILL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"HOTSPOTBILL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"HOTSPOTBILL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// GatewayConfig points at the mobile-money provider.
type GatewayConfig struct {
	BaseURL        string        `envconfig:"HOTSPOTBILL_GATEWAY_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"HOTSPOTBILL_GATEWAY_API_KEY" required:"true"`
	Currency       string        `envconfig:"HOTSPOTBILL_GATEWAY_CURRENCY" default:"UGX"`
	Timeout        time.Duration `envconfig:"HOTSPOTBILL_GATEWAY_TIMEOUT" default:"30s"`
	StatusRetryMax time.Duration `envconfig:"HOTSPOTBILL_GATEWAY_STATUS_RETRY_MAX" default:"8s"`
}

// SMSConfig points at the SMS provider.
type SMSConfig struct {
	BaseURL  string        `envconfig:"HOTSPOTBILL_SMS_BASE_URL" required:"true"`
	Username string        `envconfig:"HOTSPOTBILL_SMS_USERNAME" required:"true"`
	Password string        `envconfig:"HOTSPOTBILL_SMS_PASSWORD" required:"true"`
	Sender   string        `envconfig:"HOTSPOTBILL_SMS_SENDER" default:"HOTSPOT"`
	Timeout  time.Duration `envconfig:"HOTSPOTBILL_SMS_TIMEOUT" default:"20s"`
}

// MailConfig points at the transactional mail API.
type MailConfig struct {
	BaseURL string        `envconfig:"HOTSPOTBILL_MAIL_BASE_URL"`
	APIKey  string        `envconfig:"HOTSPOTBILL_MAIL_API_KEY"`
	From    string        `envconfig:"HOTSPOTBILL_MAIL_FROM"`
	Timeout time.Duration `envconfig:"HOTSPOTBILL_MAIL_TIMEOUT" default:"15s"`
}

// BillingConfig carries platform billing knobs.
type BillingConfig struct {
	SMSCostPerVoucher   int64         `envconfig:"HOTSPOTBILL_BILLING_SMS_COST" default:"35"`
	LowBalanceThreshold int64         `envconfig:"HOTSPOTBILL_BILLING_LOW_BALANCE_THRESHOLD" default:"500"`
	OTPTTL              time.Duration `envconfig:"HOTSPOTBILL_BILLING_OTP_TTL" default:"10m"`
}

// PortalConfig controls captive-portal session grants.
type PortalConfig struct {
	SessionTTL time.Duration `envconfig:"HOTSPOTBILL_PORTAL_SESSION_TTL" default:"24h"`
}

// CronConfig controls the background reconciliation worker.
type CronConfig struct {
	Interval        time.Duration `envconfig:"HOTSPOTBILL_CRON_INTERVAL" default:"5m"`
	PendingSweepAge time.Duration `envconfig:"HOTSPOTBILL_CRON_PENDING_SWEEP_AGE" default:"15m"`
	LockTTL         time.Duration `envconfig:"HOTSPOTBILL_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HOTSPOTBILL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HOTSPOTBILL_AUTO_MIGRATE" default:"false"`
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
