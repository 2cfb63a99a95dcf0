package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MARKETCOVE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARKETCOVE_DB_DSN"
	EnvDBHost = "MARKETCOVE_DB_HOST"
	EnvDBUser = "MARKETCOVE_DB_USER"
	EnvDBName = "MARKETCOVE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"MARKETCOVE_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETCOVE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETCOVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETCOVE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETCOVE_DB_DSN"`
	Driver string `envconfig:"MARKETCOVE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETCOVE_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETCOVE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETCOVE_DB_USER"`
	LegacyPassword string `envconfig:"MARKETCOVE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETCOVE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETCOVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETCOVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETCOVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETCOVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETCOVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETCOVE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETCOVE_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETCOVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETCOVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETCOVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETCOVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETCOVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETCOVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETCOVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret              string `envconfig:"MARKETCOVE_JWT_SECRET" required:"true"`
	Issuer              string `envconfig:"MARKETCOVE_JWT_ISSUER" required:"true"`
	ExpirationMinutes   int    `envconfig:"MARKETCOVE_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenMinutes int    `envconfig:"MARKETCOVE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime (default 24h).
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime (default 7d).
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKETCOVE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKETCOVE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKETCOVE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKETCOVE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKETCOVE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARKETCOVE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MARKETCOVE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MARKETCOVE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MARKETCOVE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MARKETCOVE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MARKETCOVE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETCOVE_AUTO_MIGRATE" default:"false"`
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
