// Package config loads service settings from the environment, optionally
// seeded from .env files, and the expiry policy from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting the binaries read.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	JWTSecret string
	JWTExpiry time.Duration

	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string

	PolicyFile         string
	Policy             *lifecycle.Policy
	RefreshInterval    time.Duration
	RefreshConcurrency int
	RefreshRateLimit   int

	LogLevel  string
	LogFormat string
}

// Load reads the given .env files, skipping missing ones, then builds the
// config from the environment. Variables already set win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         get("PORT", "8080"),
		MongoURI:     get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      get("MONGO_DB", "fleet"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTClientID: get("MQTT_CLIENT_ID", "fleet-lifecycle"),
		MQTTTopic:    get("MQTT_TOPIC", "fleet/status/refresh"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		PolicyFile:   os.Getenv("STATUS_POLICY_FILE"),
		LogLevel:     get("LOG_LEVEL", "info"),
		LogFormat:    get("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.JWTExpiry, err = duration("JWT_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = duration("REFRESH_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshConcurrency, err = integer("REFRESH_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.RefreshRateLimit, err = integer("REFRESH_RATE_LIMIT", 6); err != nil {
		return nil, err
	}
	if cfg.Policy, err = lifecycle.LoadPolicy(cfg.PolicyFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every binary relies on.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: PORT %q is not a number", ErrInvalidConfig, c.Port)
	}
	if c.MongoDB == "" {
		return fmt.Errorf("%w: MONGO_DB is empty", ErrInvalidConfig)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: REFRESH_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.RefreshConcurrency < 1 {
		return fmt.Errorf("%w: REFRESH_CONCURRENCY must be at least 1", ErrInvalidConfig)
	}
	if c.RefreshRateLimit < 1 {
		return fmt.Errorf("%w: REFRESH_RATE_LIMIT must be at least 1", ErrInvalidConfig)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: LOG_FORMAT must be text or json", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MQTTEnabled reports whether a broker is configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

// SetupLogging applies the level and format to the standard logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// get returns the environment variable for key or def when unset or empty.
func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidConfig, key, v)
	}
	return n, nil
}
