// Package config loads service configuration from an optional .env file, an
// optional YAML file named by GMH_CONFIG_FILE and GMH_* environment variables,
// in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Lockout  LockoutConfig  `yaml:"lockout"`
	Tracing  TracingConfig  `yaml:"tracing"`

	// Bootstrap seeds one registrant into the memory store.
	Bootstrap BootstrapConfig `yaml:"bootstrap"`

	// Development relaxes startup checks and switches logs to text.
	Development bool `yaml:"development"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the registry store and sizes the Postgres pool.
type DatabaseConfig struct {
	Store           string        `yaml:"store"`
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	TxTimeout       time.Duration `yaml:"tx_timeout"`
}

// RedisConfig configures the optional Redis used for login lockout counters.
// An empty URL keeps the counters in memory.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LockoutConfig struct {
	AttemptsPerWindow int           `yaml:"attempts_per_window"`
	Window            time.Duration `yaml:"window"`
}

// TracingConfig selects the span exporter: none, stdout or otlp.
type TracingConfig struct {
	Exporter     string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// BootstrapConfig is ignored unless the memory store is selected and GroupID
// is set.
type BootstrapConfig struct {
	GroupID  string `yaml:"group_id"`
	Prefix   string `yaml:"prefix"`
	IsLTP    bool   `yaml:"is_ltp"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Enabled reports whether a bootstrap registrant is configured.
func (b BootstrapConfig) Enabled() bool {
	return b.GroupID != ""
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Log:    LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{
			Store:           StorePostgres,
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
			TxTimeout:       5 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Lockout: LockoutConfig{AttemptsPerWindow: 5, Window: 15 * time.Minute},
		Tracing: TracingConfig{Exporter: "none", ServiceName: "gmh-registration-service"},
	}
}

// Load builds the configuration. A missing .env file is not an error; a
// GMH_CONFIG_FILE that cannot be read or parsed is.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path, ok := getEnvStr("GMH_CONFIG_FILE"); ok {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnvOverrides()
	if cfg.Development && os.Getenv("GMH_LOG_FORMAT") == "" {
		cfg.Log.Format = "text"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Store {
	case StorePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database url is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Database.Store))
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter))
	}
	if c.Lockout.AttemptsPerWindow < 0 {
		errs = append(errs, errors.New("lockout attempts must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("GMH_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("GMH_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	if v, ok := getEnvStr("GMH_LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := getEnvStr("GMH_LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}

	if v, ok := getEnvStr("GMH_STORE"); ok {
		c.Database.Store = strings.ToLower(v)
	}
	if v, ok := getEnvStr("GMH_DATABASE_URL"); ok {
		c.Database.URL = v
	}
	if v, ok := getEnvInt("GMH_DB_MAX_OPEN_CONNS"); ok {
		c.Database.MaxOpenConns = v
	}
	if v, ok := getEnvInt("GMH_DB_MAX_IDLE_CONNS"); ok {
		c.Database.MaxIdleConns = v
	}
	if v, ok := getEnvDur("GMH_DB_CONN_MAX_LIFETIME"); ok {
		c.Database.ConnMaxLifetime = v
	}
	if v, ok := getEnvDur("GMH_TX_TIMEOUT"); ok {
		c.Database.TxTimeout = v
	}

	if v, ok := getEnvStr("GMH_REDIS_URL"); ok {
		c.Redis.URL = v
	}
	if v, ok := getEnvInt("GMH_REDIS_POOL_SIZE"); ok {
		c.Redis.PoolSize = v
	}

	if v, ok := getEnvInt("GMH_LOCKOUT_ATTEMPTS"); ok {
		c.Lockout.AttemptsPerWindow = v
	}
	if v, ok := getEnvDur("GMH_LOCKOUT_WINDOW"); ok {
		c.Lockout.Window = v
	}

	if v, ok := getEnvStr("GMH_TRACING_EXPORTER"); ok {
		c.Tracing.Exporter = strings.ToLower(v)
	}
	if v, ok := getEnvStr("GMH_OTLP_ENDPOINT"); ok {
		c.Tracing.OTLPEndpoint = v
	}

	if v, ok := getEnvStr("GMH_BOOTSTRAP_GROUPID"); ok {
		c.Bootstrap.GroupID = v
	}
	if v, ok := getEnvStr("GMH_BOOTSTRAP_PREFIX"); ok {
		c.Bootstrap.Prefix = v
	}
	if v, ok := getEnvBool("GMH_BOOTSTRAP_LTP"); ok {
		c.Bootstrap.IsLTP = v
	}
	if v, ok := getEnvStr("GMH_BOOTSTRAP_USERNAME"); ok {
		c.Bootstrap.Username = v
	}
	if v, ok := getEnvStr("GMH_BOOTSTRAP_PASSWORD"); ok {
		c.Bootstrap.Password = v
	}

	if v, ok := getEnvBool("GMH_DEVELOPMENT"); ok {
		c.Development = v
	}
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
	}
	return 0, false
}
