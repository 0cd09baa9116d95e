package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// Config represents the application configuration.
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Auth        AuthConfig      `toml:"auth"`
	Prices      PricesConfig    `toml:"prices"`
	Feed        FeedConfig      `toml:"feed"`
	Portfolio   PortfolioConfig `toml:"portfolio"`
	Seed        SeedConfig      `toml:"seed"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
// InMemory ignores Path and keeps everything in RAM (tests, demos).
type BadgerConfig struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// AuthConfig contains token signing settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

// GetTokenTTL parses TokenTTL, falling back to one hour.
func (c *AuthConfig) GetTokenTTL() time.Duration {
	return parseDuration(c.TokenTTL, time.Hour)
}

// PricesConfig selects and tunes the upstream price source.
type PricesConfig struct {
	Provider string        `toml:"provider"` // "simulated" or "finnhub"
	BaseURL  string        `toml:"base_url"`
	APIKey   string        `toml:"api_key"`
	Timeout  string        `toml:"timeout"`
	CacheTTL string        `toml:"cache_ttl"`
	Breaker  BreakerConfig `toml:"breaker"`
}

// GetTimeout parses Timeout, falling back to 10s.
func (c *PricesConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetCacheTTL parses CacheTTL. Zero disables the quote cache.
func (c *PricesConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 0)
}

// BreakerConfig tunes the circuit breaker in front of the upstream.
type BreakerConfig struct {
	MaxFailures int    `toml:"max_failures"`
	OpenFor     string `toml:"open_for"`
}

// GetOpenFor parses OpenFor, falling back to 30s.
func (c *BreakerConfig) GetOpenFor() time.Duration {
	return parseDuration(c.OpenFor, 30*time.Second)
}

// FeedConfig contains live price feed settings.
type FeedConfig struct {
	Interval string `toml:"interval"`
}

// GetInterval parses Interval, falling back to 5s.
func (c *FeedConfig) GetInterval() time.Duration {
	return parseDuration(c.Interval, 5*time.Second)
}

// PortfolioConfig contains settings for new portfolios.
type PortfolioConfig struct {
	StartingCash string `toml:"starting_cash"`
}

// GetStartingCash parses StartingCash, falling back to 10000.
func (c *PortfolioConfig) GetStartingCash() decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(c.StartingCash))
	if err != nil || v.IsNegative() {
		return decimal.NewFromInt(10000)
	}
	return v
}

// SeedConfig describes the users created by the seed command.
type SeedConfig struct {
	UsersFile string `toml:"users_file"`
	Email     string `toml:"email"`
	Password  string `toml:"password"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// IsDevMode reports whether the environment is "dev" or "development".
func (c *Config) IsDevMode() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "dev" || env == "development"
}

// BaseURL returns the externally reachable base URL of the server.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// Validate returns the list of mandatory settings that are missing or
// invalid. An empty slice means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	if !c.IsDevMode() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		issues = append(issues, "auth.jwt_secret is required outside dev mode (PAPERTRADE_AUTH_JWT_SECRET)")
	}
	if !c.Storage.Badger.InMemory && strings.TrimSpace(c.Storage.Badger.Path) == "" {
		issues = append(issues, "storage.badger.path is required unless storage.badger.in_memory is set")
	}

	switch strings.ToLower(c.Prices.Provider) {
	case "simulated", "":
	case "finnhub":
		if strings.TrimSpace(c.Prices.APIKey) == "" {
			issues = append(issues, "prices.api_key is required for the finnhub provider (PAPERTRADE_PRICES_API_KEY)")
		}
		if strings.TrimSpace(c.Prices.BaseURL) == "" {
			issues = append(issues, "prices.base_url is required for the finnhub provider")
		}
	default:
		issues = append(issues, fmt.Sprintf("prices.provider must be simulated or finnhub (got %q)", c.Prices.Provider))
	}

	if c.Feed.Interval != "" {
		if d, err := time.ParseDuration(c.Feed.Interval); err != nil || d <= 0 {
			issues = append(issues, fmt.Sprintf("feed.interval must be a positive duration (got %q)", c.Feed.Interval))
		}
	}
	if c.Portfolio.StartingCash != "" {
		if v, err := decimal.NewFromString(c.Portfolio.StartingCash); err != nil || v.IsNegative() {
			issues = append(issues, fmt.Sprintf("portfolio.starting_cash must be a non-negative number (got %q)", c.Portfolio.StartingCash))
		}
	}

	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies PAPERTRADE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PAPERTRADE_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("PAPERTRADE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PAPERTRADE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if badgerPath := os.Getenv("PAPERTRADE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("PAPERTRADE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if secret := os.Getenv("PAPERTRADE_AUTH_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if provider := os.Getenv("PAPERTRADE_PRICES_PROVIDER"); provider != "" {
		config.Prices.Provider = provider
	}
	if key := os.Getenv("PAPERTRADE_PRICES_API_KEY"); key != "" {
		config.Prices.APIKey = key
	}
	if interval := os.Getenv("PAPERTRADE_FEED_INTERVAL"); interval != "" {
		config.Feed.Interval = interval
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
