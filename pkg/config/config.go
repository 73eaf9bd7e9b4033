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
	Media         MediaConfig
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
	Env          string `envconfig:"MARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKET_DB_DSN"`
	Driver string `envconfig:"MARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKET_DB_USER"`
	LegacyPassword string `envconfig:"MARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKET_REDIS_ADDR"`
	Password     string        `envconfig:"MARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig configures session token signing. Tokens carry no expiry: a minted
// token stays valid until the secret rotates, which mirrors the legacy system
// this service replaces and is a known weakness.
type JWTConfig struct {
	Secret string `envconfig:"MARKET_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MARKET_JWT_ISSUER" required:"true"`
}

type PasswordConfig struct {
	PBKDF2Iterations int `envconfig:"MARKET_PBKDF2_ITERATIONS" default:"1000"`
	PBKDF2SaltLen    int `envconfig:"MARKET_PBKDF2_SALT_LEN" default:"32"`
	PBKDF2KeyLen     int `envconfig:"MARKET_PBKDF2_KEY_LEN" default:"64"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARKET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit int           `envconfig:"MARKET_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MARKET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentity   int           `envconfig:"MARKET_AUTH_RATE_LIMIT_REGISTER_IDENTITY_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type MediaConfig struct {
	UploadDir   string `envconfig:"MARKET_MEDIA_UPLOAD_DIR" default:"uploads/images"`
	MaxUploadMB int    `envconfig:"MARKET_MEDIA_MAX_UPLOAD_MB" default:"6"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKET_AUTO_MIGRATE" default:"false"`
}

// MaxUploadBytes returns the upload cap in bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 6 << 20
	}
	return int64(m.MaxUploadMB) << 20
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
