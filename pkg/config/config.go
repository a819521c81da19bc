package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// AppConfig contains HTTP server configuration
type AppConfig struct {
	Host string `env:"APP_HOST" env-default:"localhost"`
	Port uint16 `env:"APP_PORT" env-default:"8081"`
}

func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DatabaseConfig contains PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `env:"AUTH_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTH_PG_PORT" env-default:"5432"`
	Database string `env:"AUTH_PG_DATABASE" env-default:"trak_auth"`
	User     string `env:"AUTH_PG_USER" env-default:"trak"`
	Password string `env:"AUTH_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"AUTH_PG_SCHEMA" env-default:"public"`
}

// DatabaseURL builds a postgres connection string for pgx
func (d DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// EmailConfig contains SMTP configuration for security notifications
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     int    `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:"noreply@trak.app"`
	Password string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@trak.app"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// RateLimitConfig throttles the credential endpoints per client IP
type RateLimitConfig struct {
	Enabled    bool    `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Capacity   int     `env:"RATE_LIMIT_CAPACITY" env-default:"10"`
	RefillRate float64 `env:"RATE_LIMIT_REFILL_RATE" env-default:"0.2"`
	BucketTTLM int     `env:"RATE_LIMIT_BUCKET_TTL_MINUTES" env-default:"60"`
}

// PersistenceConfig selects the account repository backing store
type PersistenceConfig struct {
	Type    string `env:"PERSISTENCE_TYPE" env-default:"inmem"`
	DataDir string `env:"PERSISTENCE_DATA_DIR" env-default:"./data"`
}

// Config is the root configuration for the auth service
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Jwt         JwtConfig
	Email       EmailConfig
	RateLimit   RateLimitConfig
	Persistence PersistenceConfig
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment config: %w", err)
	}
	return cfg, nil
}
