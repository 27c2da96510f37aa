// Package config loads all process settings from environment variables into
// one explicit object constructed at startup. Components never read the
// environment themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds every service setting. Fields a subcommand does not use are
// simply ignored by it; the Require* helpers enforce presence for the
// commands that do.
type Config struct {
	DatabaseURL string

	KafkaBrokers  []string
	KafkaRawTopic string
	KafkaGroupID  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Vendor API serving bulk historical payloads and the device roster.
	UpstreamURL  string
	UpstreamUser string
	UpstreamPass string

	// Downstream consumer receiving forwarded readings.
	DownstreamURL string

	// Telegram bot credentials for report dispatch.
	BotToken  string
	BotAPIURL string

	ForwardTimeout  time.Duration
	FetchTimeout    time.Duration
	DispatchTimeout time.Duration

	DeviceCacheTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. Malformed values are configuration errors and abort startup.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	forwardTimeout, err := parseDuration("FORWARD_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	dispatchTimeout, err := parseDuration("DISPATCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("DEVICE_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers:  splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRawTopic: envOrDefault("KAFKA_RAW_TOPIC", "raw-periodic"),
		KafkaGroupID:  envOrDefault("KAFKA_GROUP_ID", "pbase-listener"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamURL:  envOrDefault("PRINUS_URL", "https://prinus.net/api/sensor"),
		UpstreamUser: os.Getenv("PRINUS_USER"),
		UpstreamPass: os.Getenv("PRINUS_PASS"),

		DownstreamURL: os.Getenv("PWEB_URL"),

		BotToken:  os.Getenv("PRINUSBOT_TOKEN"),
		BotAPIURL: envOrDefault("BOT_API_URL", "https://api.telegram.org"),

		ForwardTimeout:  forwardTimeout,
		FetchTimeout:    fetchTimeout,
		DispatchTimeout: dispatchTimeout,
		DeviceCacheTTL:  cacheTTL,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaRawTopic == "" {
		return nil, errors.New("KAFKA_RAW_TOPIC is required")
	}

	return cfg, nil
}

// RequireDatabase fails when DATABASE_URL is unset. Every command that
// touches readings needs it.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// RequireUpstream fails when the vendor API credentials are incomplete.
func (c *Config) RequireUpstream() error {
	if c.UpstreamURL == "" {
		return errors.New("PRINUS_URL is required")
	}
	if c.UpstreamUser == "" || c.UpstreamPass == "" {
		return errors.New("PRINUS_USER and PRINUS_PASS are required")
	}
	return nil
}

// RequireDownstream fails when no forward endpoint is configured.
func (c *Config) RequireDownstream() error {
	if c.DownstreamURL == "" {
		return errors.New("PWEB_URL is required")
	}
	return nil
}

// RequireBot fails when the report dispatcher has no bot token.
func (c *Config) RequireBot() error {
	if c.BotToken == "" {
		return errors.New("PRINUSBOT_TOKEN is required")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
