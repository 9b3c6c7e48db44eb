package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before file and environment overlays
const (
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 8080
	DefaultDBPort              = 3306
	DefaultDBMaxOpenConns      = 10
	DefaultDBMaxIdleConns      = 5
	DefaultDBConnMaxLifetime   = 5 * time.Minute
	DefaultRequestTimeout      = 30 * time.Second
	DefaultShutdownGrace       = 10 * time.Second
	DefaultLogRetentionDays    = 30
	DefaultInactiveWebsiteDays = 45
	DefaultRateLimitMax        = 300
	DefaultRateLimitWindow     = 60 * time.Second
	DefaultRateLimitCache      = 10000
	DefaultBatchSize           = 1000
	DefaultBatchSizeMin        = 100
	DefaultBatchSizeRecovery   = 500
	DefaultBatchInterval       = 60 * time.Second
	DefaultUpstreamTimeout     = 30 * time.Second
)

// DB holds database connection settings
type DB struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Server holds HTTP listener settings
type Server struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

// Addr returns the host:port listen address
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RateLimit holds the pre-auth limiter settings
type RateLimit struct {
	Enabled   bool          `yaml:"enabled"`
	Max       int           `yaml:"max"`
	Window    time.Duration `yaml:"window"`
	CacheSize int           `yaml:"cache_size"`
	Allowlist []string      `yaml:"allowlist"`
}

// Upstream holds hierarchical forwarding settings
type Upstream struct {
	Enabled           bool          `yaml:"enabled"`
	Server            string        `yaml:"server"`
	APIKey            string        `yaml:"api_key"`
	BatchSize         int           `yaml:"batch_size"`
	BatchSizeMin      int           `yaml:"batch_size_min"`
	BatchSizeRecovery int           `yaml:"batch_size_recovery"`
	BatchInterval     time.Duration `yaml:"batch_interval"`
	Timeout           time.Duration `yaml:"timeout"`
	Compression       bool          `yaml:"compression"`
	SourceInstance    string        `yaml:"source_instance"`
}

// Retention holds housekeeping thresholds
type Retention struct {
	LogDays             int `yaml:"log_days"`
	InactiveWebsiteDays int `yaml:"inactive_website_days"`
}

// Log holds logging settings
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the process-wide immutable configuration snapshot.
// Load builds it once at startup; nothing mutates it afterwards.
type Config struct {
	DB                  DB        `yaml:"db"`
	Server              Server    `yaml:"server"`
	RateLimit           RateLimit `yaml:"rate_limit"`
	Upstream            Upstream  `yaml:"upstream"`
	Retention           Retention `yaml:"retention"`
	Log                 Log       `yaml:"log"`
	AutoMigrateDisabled bool      `yaml:"auto_migrate_disabled"`
}

// Load builds the configuration snapshot. Precedence: environment over the
// optional YAML file over defaults. Fails fast on missing DB credentials.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		DB: DB{
			Port:            DefaultDBPort,
			MaxOpenConns:    DefaultDBMaxOpenConns,
			MaxIdleConns:    DefaultDBMaxIdleConns,
			ConnMaxLifetime: DefaultDBConnMaxLifetime,
		},
		Server: Server{
			Host:           DefaultHost,
			Port:           DefaultPort,
			RequestTimeout: DefaultRequestTimeout,
			ShutdownGrace:  DefaultShutdownGrace,
		},
		RateLimit: RateLimit{
			Enabled:   true,
			Max:       DefaultRateLimitMax,
			Window:    DefaultRateLimitWindow,
			CacheSize: DefaultRateLimitCache,
		},
		Upstream: Upstream{
			BatchSize:         DefaultBatchSize,
			BatchSizeMin:      DefaultBatchSizeMin,
			BatchSizeRecovery: DefaultBatchSizeRecovery,
			BatchInterval:     DefaultBatchInterval,
			Timeout:           DefaultUpstreamTimeout,
			Compression:       true,
			SourceInstance:    hostname,
		},
		Retention: Retention{
			LogDays:             DefaultLogRetentionDays,
			InactiveWebsiteDays: DefaultInactiveWebsiteDays,
		},
		Log: Log{
			Level: "info",
		},
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	envString("DB_HOST", &c.DB.Host)
	envInt("DB_PORT", &c.DB.Port)
	envString("DB_USER", &c.DB.User)
	envString("DB_PASSWORD", &c.DB.Password)
	envString("DB_NAME", &c.DB.Name)
	envInt("DB_MAX_OPEN_CONNS", &c.DB.MaxOpenConns)
	envInt("DB_MAX_IDLE_CONNS", &c.DB.MaxIdleConns)

	envString("HOST", &c.Server.Host)
	envInt("PORT", &c.Server.Port)

	envInt("LOG_RETENTION_DAYS", &c.Retention.LogDays)
	envInt("INACTIVE_WEBSITE_DAYS", &c.Retention.InactiveWebsiteDays)

	envBool("AUTO_RUN_MIGRATIONS_DISABLED", &c.AutoMigrateDisabled)

	envBool("RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	envInt("RATE_LIMIT_MAX", &c.RateLimit.Max)
	envDuration("RATE_LIMIT_WINDOW", &c.RateLimit.Window)
	envInt("RATE_LIMIT_CACHE", &c.RateLimit.CacheSize)
	envList("RATE_LIMIT_ALLOWLIST", &c.RateLimit.Allowlist)

	envBool("UPSTREAM_ENABLED", &c.Upstream.Enabled)
	envString("UPSTREAM_SERVER", &c.Upstream.Server)
	envString("UPSTREAM_API_KEY", &c.Upstream.APIKey)
	envInt("UPSTREAM_BATCH_SIZE", &c.Upstream.BatchSize)
	envInt("UPSTREAM_BATCH_SIZE_MIN", &c.Upstream.BatchSizeMin)
	envInt("UPSTREAM_BATCH_SIZE_RECOVERY", &c.Upstream.BatchSizeRecovery)
	envDuration("UPSTREAM_BATCH_INTERVAL", &c.Upstream.BatchInterval)
	envDuration("UPSTREAM_TIMEOUT", &c.Upstream.Timeout)
	envBool("UPSTREAM_COMPRESSION", &c.Upstream.Compression)
	envString("UPSTREAM_SOURCE_INSTANCE", &c.Upstream.SourceInstance)

	envString("LOG_LEVEL", &c.Log.Level)
	envBool("LOG_JSON", &c.Log.JSON)
}

// Validate checks required values and cross-field constraints
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.DB.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.DB.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		return fmt.Errorf("invalid DB_PORT: %d", c.DB.Port)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Server.Port)
	}
	if c.Retention.LogDays <= 0 {
		return fmt.Errorf("LOG_RETENTION_DAYS must be positive")
	}
	if c.Retention.InactiveWebsiteDays <= 0 {
		return fmt.Errorf("INACTIVE_WEBSITE_DAYS must be positive")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.CacheSize <= 0 {
			return fmt.Errorf("rate limit settings invalid: max=%d window=%s cache=%d",
				c.RateLimit.Max, c.RateLimit.Window, c.RateLimit.CacheSize)
		}
	}
	if c.Upstream.Enabled {
		if c.Upstream.Server == "" {
			return fmt.Errorf("UPSTREAM_SERVER is required when upstream is enabled")
		}
		if c.Upstream.APIKey == "" {
			return fmt.Errorf("UPSTREAM_API_KEY is required when upstream is enabled")
		}
		if c.Upstream.BatchSizeMin <= 0 || c.Upstream.BatchSize < c.Upstream.BatchSizeMin {
			return fmt.Errorf("upstream batch sizes invalid: min=%d target=%d",
				c.Upstream.BatchSizeMin, c.Upstream.BatchSize)
		}
		if c.Upstream.BatchSizeRecovery <= 0 {
			return fmt.Errorf("UPSTREAM_BATCH_SIZE_RECOVERY must be positive")
		}
	}
	return nil
}

// Environment overlay helpers. Unset or empty variables leave the target
// untouched; unparseable values are ignored the same way.

func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*target = true
		case "0", "false", "no", "off":
			*target = false
		}
	}
}

// envDuration accepts a bare integer (seconds) or a Go duration string
func envDuration(key string, target *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*target = time.Duration(n) * time.Second
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*target = d
	}
}

func envList(key string, target *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*target = out
	}
}
