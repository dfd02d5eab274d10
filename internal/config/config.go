package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Refresh modes
const (
	RefreshManual   = "manual"   // Only the initial load and POST /api/v1/catalog/refresh
	RefreshInterval = "interval" // Poll the feed every catalog.refresh_interval
	RefreshKafka    = "kafka"    // Refresh when the feed announces new offers
)

// Config holds all configuration for offer-catalog-service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Bets    BetsConfig    `mapstructure:"bets"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FeedConfig holds the upstream offer feed endpoint
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BetsConfig holds the bet-placement endpoint
type BetsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds catalog refresh and display parameters
type CatalogConfig struct {
	RefreshMode       string        `mapstructure:"refresh_mode"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	MaxMalformedRatio float64       `mapstructure:"max_malformed_ratio"` // 0.5 = 50%
	Timezone          string        `mapstructure:"timezone"`            // IANA name used for day boundaries
}

// RedisConfig holds Redis configuration for the snapshot mirror
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Key      string        `mapstructure:"key"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"` // Topic to consume from (offers_updated)
	GroupID string   `mapstructure:"group_id"`
}

// CORSConfig holds the origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("feed.base_url", "http://127.0.0.1:3333")
	v.SetDefault("feed.path", "/offers")
	v.SetDefault("feed.timeout", 10*time.Second)

	v.SetDefault("bets.base_url", "http://127.0.0.1:3333")
	v.SetDefault("bets.path", "/bets")
	v.SetDefault("bets.timeout", 10*time.Second)

	v.SetDefault("catalog.refresh_mode", RefreshManual)
	v.SetDefault("catalog.refresh_interval", 5*time.Minute)
	v.SetDefault("catalog.max_malformed_ratio", 0.5)
	v.SetDefault("catalog.timezone", "America/New_York")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("redis.key", "offer_catalog:snapshot")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "offers_updated")
	v.SetDefault("kafka.group_id", "offer-catalog")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("OFFER_CATALOG")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal to struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks values viper cannot check by type
func (c *Config) Validate() error {
	switch c.Catalog.RefreshMode {
	case RefreshManual, RefreshKafka:
	case RefreshInterval:
		if c.Catalog.RefreshInterval <= 0 {
			return fmt.Errorf("catalog.refresh_interval must be positive in interval mode, got %s", c.Catalog.RefreshInterval)
		}
	default:
		return fmt.Errorf("catalog.refresh_mode %q is not one of manual, interval, kafka", c.Catalog.RefreshMode)
	}

	if c.Catalog.MaxMalformedRatio < 0 || c.Catalog.MaxMalformedRatio > 1 {
		return fmt.Errorf("catalog.max_malformed_ratio must be within [0, 1], got %v", c.Catalog.MaxMalformedRatio)
	}

	if _, err := c.Catalog.Location(); err != nil {
		return err
	}

	if err := validateURL("feed.base_url", c.Feed.BaseURL); err != nil {
		return err
	}
	if err := validateURL("bets.base_url", c.Bets.BaseURL); err != nil {
		return err
	}

	if c.Catalog.RefreshMode == RefreshKafka && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required in kafka mode")
	}

	return nil
}

// Location resolves the configured timezone
func (c *CatalogConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("catalog.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute http(s) URL", name, raw)
	}
	return nil
}
