package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	id "registrar/pkg/domain"
	strutil "registrar/pkg/platform/strings"
)

// Store drivers accepted in Store.Driver.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the registrar process configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	Desktop   bool   `yaml:"desktop"`
	UserAgent string `yaml:"user_agent"`

	// DesktopMarkers override the user agent tokens that identify a desktop wrapper.
	DesktopMarkers []string       `yaml:"desktop_markers"`
	SelfUserID     string         `yaml:"self_user_id"`
	AdminToken     string         `yaml:"admin_token"`
	Backend        BackendConfig  `yaml:"backend"`
	Store          StoreConfig    `yaml:"store"`
	Redis          RedisConfig    `yaml:"redis"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

// BackendConfig points at the remote identity backend.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`

	// BreakerFailures consecutive failures open the backend circuit for
	// BreakerCooldown.
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// StoreConfig selects the local client store.
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Addr: ":8080",
		Backend: BackendConfig{
			Timeout:         10 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:     DriverSQLite,
			SQLitePath: "registrar.db",
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Load reads an optional .env file, then an optional YAML file named by
// REGISTRAR_CONFIG, then environment variables. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path := os.Getenv("REGISTRAR_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a config from defaults and environment variables only.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "REGISTRAR_ADDR")
	setString(&c.UserAgent, "REGISTRAR_USER_AGENT")
	setString(&c.SelfUserID, "REGISTRAR_SELF_USER_ID")
	setString(&c.AdminToken, "REGISTRAR_ADMIN_TOKEN")
	setString(&c.Backend.URL, "REGISTRAR_BACKEND_URL")
	setString(&c.Backend.Token, "REGISTRAR_BACKEND_TOKEN")
	setString(&c.Store.Driver, "REGISTRAR_STORE_DRIVER")
	setString(&c.Store.SQLitePath, "REGISTRAR_SQLITE_PATH")
	setString(&c.Store.KeyPrefix, "REGISTRAR_KEY_PREFIX")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Postgres.URL, "DATABASE_URL")

	if markers := strutil.SplitList(os.Getenv("REGISTRAR_DESKTOP_MARKERS"), ","); len(markers) > 0 {
		c.DesktopMarkers = markers
	}
	if v := os.Getenv("REGISTRAR_DESKTOP"); v != "" {
		desktop, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REGISTRAR_DESKTOP: %w", err)
		}
		c.Desktop = desktop
	}
	if err := setInt(&c.Backend.BreakerFailures, "REGISTRAR_BACKEND_BREAKER_FAILURES"); err != nil {
		return err
	}
	if err := setInt(&c.Redis.PoolSize, "REDIS_POOL_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Redis.MinIdleConns, "REDIS_MIN_IDLE_CONNS"); err != nil {
		return err
	}
	for name, target := range map[string]*time.Duration{
		"REGISTRAR_BACKEND_TIMEOUT":          &c.Backend.Timeout,
		"REGISTRAR_BACKEND_BREAKER_COOLDOWN": &c.Backend.BreakerCooldown,
		"REDIS_DIAL_TIMEOUT":                 &c.Redis.DialTimeout,
		"REDIS_READ_TIMEOUT":                 &c.Redis.ReadTimeout,
		"REDIS_WRITE_TIMEOUT":                &c.Redis.WriteTimeout,
	} {
		if err := setDuration(target, name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the selected store driver has what it needs.
func (c Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend URL is required (REGISTRAR_BACKEND_URL)")
	}
	if c.SelfUserID != "" {
		if _, err := id.ParseUserID(c.SelfUserID); err != nil {
			return fmt.Errorf("self user ID: %w", err)
		}
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite store requires a path (REGISTRAR_SQLITE_PATH)")
		}
	case DriverRedis:
		if c.Redis.URL == "" {
			return errors.New("redis store requires REDIS_URL")
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres store requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

func setString(target *string, name string) {
	if v := os.Getenv(name); v != "" {
		*target = v
	}
}

func setInt(target *int, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*target = n
	return nil
}

func setDuration(target *time.Duration, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*target = d
	return nil
}
