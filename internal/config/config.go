// Package config provides configuration management for the simulation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	zerrors "zonix/internal/errors"
	"zonix/internal/fno"
	"zonix/internal/market"
	"zonix/internal/pricing"
	"zonix/internal/stream"
	"zonix/internal/tape"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ZONIX"

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Tape       TapeConfig       `mapstructure:"tape"`
	FNO        FNOConfig        `mapstructure:"fno"`
	Server     ServerConfig     `mapstructure:"server"`
	Stream     StreamConfig     `mapstructure:"stream"`
	History    HistoryConfig    `mapstructure:"history"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	UI         UIConfig         `mapstructure:"ui"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-"`
}

// SimulationConfig holds the engine parameters.
type SimulationConfig struct {
	MinPrice           float64       `mapstructure:"min_price"`
	MaxPrice           float64       `mapstructure:"max_price"`
	StateScale         float64       `mapstructure:"state_scale"`
	NationwideBaseline float64       `mapstructure:"nationwide_baseline"`
	NationwideScale    float64       `mapstructure:"nationwide_scale"`
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	Seed               int64         `mapstructure:"seed"`
}

// TapeConfig holds ticker tape configuration.
type TapeConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Interval         time.Duration `mapstructure:"interval"`
	MaxChangePercent float64       `mapstructure:"max_change_percent"`
}

// FNOConfig holds derivatives analytics configuration.
type FNOConfig struct {
	SpotQuantum float64     `mapstructure:"spot_quantum"`
	Expiries    int         `mapstructure:"expiries"`
	Cache       string      `mapstructure:"cache"` // memory, redis
	Redis       RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the shared analytics cache settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"`
	RateBurst   int      `mapstructure:"rate_burst"`
}

// StreamConfig holds tick hub configuration.
type StreamConfig struct {
	BufferSize                int `mapstructure:"buffer_size"`
	SubscriberBufferSize      int `mapstructure:"subscriber_buffer_size"`
	SlowConsumerDropThreshold int `mapstructure:"slow_consumer_drop_threshold"`
}

// HistoryConfig holds the optional index archive configuration.
type HistoryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	BatchSize int    `mapstructure:"batch_size"`
	QueueSize int    `mapstructure:"queue_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    string `mapstructure:"file"`
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// CacheMemory and CacheRedis name the analytics cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/zonix"
	}
	return filepath.Join(home, ".config", "zonix")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func setDefaults(v *viper.Viper) {
	sim := market.DefaultConfig()
	v.SetDefault("simulation.min_price", sim.Bounds.Min)
	v.SetDefault("simulation.max_price", sim.Bounds.Max)
	v.SetDefault("simulation.state_scale", sim.StateScale)
	v.SetDefault("simulation.nationwide_baseline", sim.NationwideBaseline)
	v.SetDefault("simulation.nationwide_scale", sim.NationwideScale)
	v.SetDefault("simulation.tick_interval", time.Second)
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("tape.enabled", true)
	v.SetDefault("tape.interval", 2*time.Second)
	v.SetDefault("tape.max_change_percent", tape.DefaultMaxChangePercent)

	v.SetDefault("fno.spot_quantum", fno.DefaultSpotQuantum)
	v.SetDefault("fno.expiries", fno.DefaultExpiries)
	v.SetDefault("fno.cache", CacheMemory)
	v.SetDefault("fno.redis.addr", "localhost:6379")
	v.SetDefault("fno.redis.password", "")
	v.SetDefault("fno.redis.db", 0)
	v.SetDefault("fno.redis.ttl", 10*time.Minute)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)

	hub := stream.DefaultHubConfig()
	v.SetDefault("stream.buffer_size", hub.BufferSize)
	v.SetDefault("stream.subscriber_buffer_size", hub.SubscriberBufferSize)
	v.SetDefault("stream.slow_consumer_drop_threshold", hub.SlowConsumerDropThreshold)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", filepath.Join(DefaultConfigDir(), "history.db"))
	v.SetDefault("history.batch_size", 20)
	v.SetDefault("history.queue_size", 512)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", filepath.Join(DefaultConfigDir(), "logs", "zonix.log"))

	v.SetDefault("ui.color_enabled", true)
}

// Default returns the configuration used when no file or override is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// defaults alone always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads config.toml from configDir, creating a template on first run.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	loadDotEnv(filepath.Join(configDir, ".env"), ".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		path, err := createTemplateConfig(configDir, "config")
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config template: %w", err)
		}
	}

	return decode(v)
}

// LoadFile loads configuration from an explicit file. Unlike Load, a missing
// file is an error.
func LoadFile(path string) (*Config, error) {
	path = ExpandPath(path)
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.History.Path = ExpandPath(cfg.History.Path)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads the first of the given .env files that exist. Variables
// already set in the environment win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func invalid(field string, value interface{}, msg string) error {
	return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, field, value, msg)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Market().Validate(); err != nil {
		return err
	}
	if c.Simulation.TickInterval <= 0 {
		return invalid("simulation.tick_interval", c.Simulation.TickInterval, "must be positive")
	}

	if c.Tape.Enabled && c.Tape.Interval <= 0 {
		return invalid("tape.interval", c.Tape.Interval, "must be positive")
	}
	if c.Tape.MaxChangePercent <= 0 || c.Tape.MaxChangePercent > 100 {
		return invalid("tape.max_change_percent", c.Tape.MaxChangePercent, "must be between 0 and 100")
	}

	if c.FNO.SpotQuantum <= 0 {
		return invalid("fno.spot_quantum", c.FNO.SpotQuantum, "must be positive")
	}
	if c.FNO.Expiries < 1 || c.FNO.Expiries > 12 {
		return invalid("fno.expiries", c.FNO.Expiries, "must be between 1 and 12")
	}
	switch c.FNO.Cache {
	case CacheMemory:
	case CacheRedis:
		if c.FNO.Redis.Addr == "" {
			return invalid("fno.redis.addr", c.FNO.Redis.Addr, "required when fno.cache is redis")
		}
	default:
		return invalid("fno.cache", c.FNO.Cache, "must be 'memory' or 'redis'")
	}

	if c.Server.Addr == "" {
		return invalid("server.addr", c.Server.Addr, "must not be empty")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return invalid("server.rate_limit", c.Server.RateLimit, "rate_limit and rate_burst must be positive")
	}

	if c.History.Enabled && c.History.Path == "" {
		return invalid("history.path", c.History.Path, "required when history is enabled")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return invalid("logging.level", c.Logging.Level, "unknown level")
	}
	return nil
}

// Market returns the engine configuration.
func (c *Config) Market() market.Config {
	return market.Config{
		Bounds:             pricing.Bounds{Min: c.Simulation.MinPrice, Max: c.Simulation.MaxPrice},
		StateScale:         c.Simulation.StateScale,
		NationwideBaseline: c.Simulation.NationwideBaseline,
		NationwideScale:    c.Simulation.NationwideScale,
	}
}

// Analyzer returns the F&O analyzer configuration.
func (c *Config) Analyzer() fno.AnalyzerConfig {
	return fno.AnalyzerConfig{SpotQuantum: c.FNO.SpotQuantum, Expiries: c.FNO.Expiries}
}

// RedisOptions returns the Redis cache options.
func (c *Config) RedisOptions() fno.RedisOptions {
	return fno.RedisOptions{
		Addr:     c.FNO.Redis.Addr,
		Password: c.FNO.Redis.Password,
		DB:       c.FNO.Redis.DB,
		TTL:      c.FNO.Redis.TTL,
	}
}

// Hub returns the tick hub configuration.
func (c *Config) Hub() stream.HubConfig {
	return stream.HubConfig{
		BufferSize:                c.Stream.BufferSize,
		SubscriberBufferSize:      c.Stream.SubscriberBufferSize,
		SlowConsumerDropThreshold: c.Stream.SlowConsumerDropThreshold,
	}
}

// Seed returns the configured seed, or one derived from the clock.
func (c *Config) Seed() int64 {
	if c.Simulation.Seed != 0 {
		return c.Simulation.Seed
	}
	return time.Now().UnixNano()
}
