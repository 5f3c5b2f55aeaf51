package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Store     StoreConfig
	Cache     CacheConfig
	Session   SessionConfig
	Sync      SyncConfig
	Price     PriceConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"3001"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30m"` // inventory syncs are long
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"skinvault"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:""` // json or text; empty picks by environment
}

// StoreConfig holds relational store settings.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	Path string `envconfig:"STORE_PATH" default:"./data/skinvault.db"`
	// DatabaseURL wins over the discrete settings below when set.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	Host        string `envconfig:"STORE_HOST" default:"localhost"`
	Port        int    `envconfig:"STORE_PORT" default:"5432"`
	Name        string `envconfig:"STORE_NAME" default:"skinvault"`
	User        string `envconfig:"STORE_USER" default:"postgres"`
	Password    string `envconfig:"STORE_PASS" default:""`
	SSLMode     string `envconfig:"STORE_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"STORE_MAX_CONNS" default:"4"`
}

// CacheConfig holds run status cache and lock settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"168h"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"REDIS_KEY_PREFIX" default:"skinvault"`
}

// SessionConfig selects how the upstream inventory session is reached.
type SessionConfig struct {
	Type        string        `envconfig:"SESSION_TYPE" default:"http"` // http or file
	BridgeURL   string        `envconfig:"SESSION_BRIDGE_URL" default:"http://localhost:4100"`
	SnapshotDir string        `envconfig:"SESSION_SNAPSHOT_DIR" default:"./data/snapshot"`
	Timeout     time.Duration `envconfig:"SESSION_TIMEOUT" default:"30s"`
}

// SyncConfig holds inventory pipeline tuning.
type SyncConfig struct {
	InventoryTimeout    time.Duration `envconfig:"INVENTORY_TIMEOUT" default:"60s"`
	InventoryPoll       time.Duration `envconfig:"INVENTORY_POLL" default:"500ms"`
	ContainerThrottle   time.Duration `envconfig:"CONTAINER_THROTTLE" default:"900ms"`
	ContainerRetries    int           `envconfig:"CONTAINER_RETRIES" default:"2"`
	ContainerRetryDelay time.Duration `envconfig:"CONTAINER_RETRY_DELAY" default:"1200ms"`
	ContainerLimit      int           `envconfig:"CONTAINER_LIMIT" default:"0"`
	BatchSize           int           `envconfig:"UPSERT_BATCH_SIZE" default:"500"`
	RetireOnEmpty       bool          `envconfig:"RETIRE_ON_EMPTY" default:"true"`
	LockTTL             time.Duration `envconfig:"SYNC_LOCK_TTL" default:"30m"`
}

// PriceConfig holds price source settings.
type PriceConfig struct {
	SourceURL string        `envconfig:"PRICE_SOURCE_URL" default:"https://api.skinport.com"`
	Currency  string        `envconfig:"PRICE_CURRENCY" default:"EUR"`
	Tradable  bool          `envconfig:"PRICE_TRADABLE" default:"true"`
	Timeout   time.Duration `envconfig:"PRICE_TIMEOUT" default:"60s"`
}

// AuthConfig holds API key settings for trigger routes.
type AuthConfig struct {
	APIKeys []string `envconfig:"API_KEYS" default:""`
}

// RateLimitConfig bounds how often pipelines can be triggered over HTTP.
type RateLimitConfig struct {
	TriggerRPS   float64 `envconfig:"TRIGGER_RPS" default:"0.2"`
	TriggerBurst int     `envconfig:"TRIGGER_BURST" default:"1"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		s.User, s.Password, s.Host, s.Port, s.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Validate checks combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Type) {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported STORE_TYPE %q", c.Store.Type)
	}
	switch strings.ToLower(c.Session.Type) {
	case "http", "file":
	default:
		return fmt.Errorf("unsupported SESSION_TYPE %q", c.Session.Type)
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("UPSERT_BATCH_SIZE must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Sync.ContainerRetries < 0 {
		return fmt.Errorf("CONTAINER_RETRIES must not be negative, got %d", c.Sync.ContainerRetries)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
