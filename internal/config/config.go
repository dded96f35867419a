package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string         `env:"ENV" env-required:"true" yaml:"env"`
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Sync     SyncConfig     `yaml:"sync"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// LogConfig overrides the logging defaults of the environment.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
	File  string `env:"LOG_FILE" yaml:"file"`
}

// APIConfig points at the Momentum backend REST API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL" env-required:"true" yaml:"base_url"`
	Timeout time.Duration `env:"API_TIMEOUT" env-default:"15s" yaml:"timeout"`
}

type RealtimeConfig struct {
	URL               string        `env:"REALTIME_URL" env-required:"true" yaml:"url"`
	HandshakeTimeout  time.Duration `env:"REALTIME_HANDSHAKE_TIMEOUT" env-default:"10s" yaml:"handshake_timeout"`
	ReconnectDelay    time.Duration `env:"REALTIME_RECONNECT_DELAY" env-default:"1s" yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `env:"REALTIME_MAX_RECONNECT_DELAY" env-default:"30s" yaml:"max_reconnect_delay"`
}

type SyncConfig struct {
	PendingTimeout time.Duration `env:"SYNC_PENDING_TIMEOUT" env-default:"30s" yaml:"pending_timeout"`
	SweepInterval  time.Duration `env:"SYNC_SWEEP_INTERVAL" env-default:"5s" yaml:"sweep_interval"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"sqlite" yaml:"driver"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" yaml:"host"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432" yaml:"port"`
	Username       string        `env:"POSTGRES_USERNAME" yaml:"username"`
	Password       string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database       string        `env:"POSTGRES_DATABASE" yaml:"database"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable" yaml:"ssl_mode"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s" yaml:"connect_timeout"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s" yaml:"ping_timeout"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" env-default:"~/.momentum/state.db" yaml:"path"`
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"127.0.0.1" yaml:"host"`
	Port            string        `env:"HTTP_PORT" env-default:"4317" yaml:"port"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s" yaml:"shutdown_timeout"`

	// argon2id hash of the key local clients must present; empty disables it
	APIKeyHash string `env:"HTTP_API_KEY_HASH" yaml:"api_key_hash"`
}
