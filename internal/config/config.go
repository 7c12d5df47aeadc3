package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Server   ServerConfig
	Backend  BackendConfig
	Poller   PollerConfig
	Slack    SlackConfig
	Dev      bool
}

// DatabaseConfig holds PostgreSQL connection settings for the checkout ledger.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// SessionConfig holds the signing secret shared by wizard and operator
// tokens, and the wizard session lifetime.
type SessionConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
	TTL    time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	StaticDir      string
	RateLimitRPS   int
	RateLimitBurst int
}

// BackendConfig points at the platform backend that owns plans, checkout
// and provisioning.
type BackendConfig struct {
	BaseURL      string
	Timeout      time.Duration
	PlanCacheTTL time.Duration
}

// PollerConfig tunes the provisioning status poller.
type PollerConfig struct {
	Interval            time.Duration
	MaxTransportRetries int
	BackoffInitial      time.Duration
	BackoffMax          time.Duration
}

// SlackConfig holds the ops notification channels. Both are optional.
type SlackConfig struct {
	WebhookURL string
	BotToken   string
	Channel    string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (session secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("PV_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("PV_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("PV_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionTTL, err := getEnvDuration("PV_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("PV_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	// Status streams are long-lived; the write deadline is per frame.
	writeTimeout, err := getEnvDuration("PV_SERVER_WRITE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvInt("PV_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("PV_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backendTimeout, err := getEnvDuration("PV_BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	planCacheTTL, err := getEnvDuration("PV_PLAN_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollInterval, err := getEnvDuration("PV_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollRetries, err := getEnvInt("PV_POLL_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backoffInitial, err := getEnvDuration("PV_POLL_BACKOFF_INITIAL", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	backoffMax, err := getEnvDuration("PV_POLL_BACKOFF_MAX", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dev, err := getEnvBool("PV_DEV", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("PV_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("PV_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("PV_DB_USER", "paginaventa"),
			Password: getEnv("PV_DB_PASSWORD", ""),
			DBName:   getEnv("PV_DB_NAME", "paginaventa_dev"),
			SSLMode:  getEnv("PV_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("PV_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("PV_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Session: SessionConfig{
			Secret: getEnv("PV_SESSION_SECRET", ""),
			TTL:    sessionTTL,
		},
		Server: ServerConfig{
			Addr:           getEnv("PV_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    corsOrigins,
			StaticDir:      getEnv("PV_STATIC_DIR", ""),
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Backend: BackendConfig{
			BaseURL:      strings.TrimRight(getEnv("PV_BACKEND_URL", "http://localhost:3000/api"), "/"),
			Timeout:      backendTimeout,
			PlanCacheTTL: planCacheTTL,
		},
		Poller: PollerConfig{
			Interval:            pollInterval,
			MaxTransportRetries: pollRetries,
			BackoffInitial:      backoffInitial,
			BackoffMax:          backoffMax,
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("PV_SLACK_WEBHOOK_URL", ""),
			BotToken:   getEnv("PV_SLACK_BOT_TOKEN", ""),
			Channel:    getEnv("PV_SLACK_CHANNEL", ""),
		},
		Dev: dev,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// Session secret is required (no insecure default).
	if c.Session.Secret == "" {
		return errors.New("PV_SESSION_SECRET is required")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("PV_SESSION_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" && !c.Dev {
		log.Warn().Msg("PV_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("PV_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("PV_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("PV_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("PV_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("PV_SERVER_WRITE_TIMEOUT must not be negative, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("PV_RATE_LIMIT_RPS must be >= 1, got %d", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < c.Server.RateLimitRPS {
		return fmt.Errorf("PV_RATE_LIMIT_BURST must be >= PV_RATE_LIMIT_RPS, got %d", c.Server.RateLimitBurst)
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PV_BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("PV_BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if c.Backend.PlanCacheTTL < 0 {
		return fmt.Errorf("PV_PLAN_CACHE_TTL must not be negative, got %s", c.Backend.PlanCacheTTL)
	}

	if c.Poller.Interval <= 0 {
		return fmt.Errorf("PV_POLL_INTERVAL must be positive, got %s", c.Poller.Interval)
	}
	if c.Poller.MaxTransportRetries < 0 {
		return fmt.Errorf("PV_POLL_MAX_RETRIES must be >= 0, got %d", c.Poller.MaxTransportRetries)
	}
	if c.Poller.BackoffInitial <= 0 || c.Poller.BackoffMax < c.Poller.BackoffInitial {
		return fmt.Errorf("PV_POLL_BACKOFF_INITIAL must be positive and <= PV_POLL_BACKOFF_MAX, got %s/%s",
			c.Poller.BackoffInitial, c.Poller.BackoffMax)
	}

	if (c.Slack.BotToken == "") != (c.Slack.Channel == "") {
		return errors.New("PV_SLACK_BOT_TOKEN and PV_SLACK_CHANNEL must be set together")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
