package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Notify NotifyConfig
	Sweep  SweepConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"thryft"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`

	// AutoMigrate applies the embedded schema at startup. All statements are idempotent.
	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// DSN returns the PostgreSQL connection string.
// Pool sizing is only appended when set, so a zero-value DBConfig yields a plain DSN.
func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, sslMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf("&pool_max_conns=%d", c.MaxConns)
	}
	if c.MinConns > 0 {
		dsn += fmt.Sprintf("&pool_min_conns=%d", c.MinConns)
	}
	return dsn
}

// LogConfig holds logging configuration.
// When File is set, JSON logs are written to a rotating file instead of stdout.
type LogConfig struct {
	Level         string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty        bool   `envconfig:"LOG_PRETTY" default:"false"`
	File          string `envconfig:"LOG_FILE"`
	FileMaxSizeMB int    `envconfig:"LOG_FILE_MAX_SIZE_MB" default:"100"`
	FileMaxBackup int    `envconfig:"LOG_FILE_MAX_BACKUPS" default:"5"`
	FileMaxAgeDay int    `envconfig:"LOG_FILE_MAX_AGE_DAYS" default:"14"`
}

// RedisConfig holds the realtime channel configuration.
// An empty Addr disables realtime publishing.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" default:"change-me"` // CHANGE IN PRODUCTION
}

// NotifyConfig sizes the asynchronous notification dispatcher.
type NotifyConfig struct {
	Workers     int           `envconfig:"NOTIFY_WORKERS" default:"4"`
	QueueSize   int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"1024"`
	TaskTimeout time.Duration `envconfig:"NOTIFY_TASK_TIMEOUT" default:"10s"`
}

// SweepConfig controls the claim expiry and usage reconciliation job.
type SweepConfig struct {
	Enabled  bool          `envconfig:"SWEEP_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Sweep.Enabled && cfg.Sweep.Interval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.Sweep.Interval)
	}
	return &cfg, nil
}
