// Package config loads service configuration from defaults, an optional
// YAML file and the environment (a .env file is read first if present).
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

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigin   string        `yaml:"allowedOrigin"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, s.Port)
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Driver           string `yaml:"driver"` // memory | mysql | firestore
	MySQLDSN         string `yaml:"mysqlDsn"`
	FirestoreProject string `yaml:"firestoreProject"`
}

// JWTConfig configures identity tokens.
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// RedisConfig backs the per-caller rate limiter. Empty Addr disables it.
type RedisConfig struct {
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	RequestsPerMin int    `yaml:"requestsPerMinute"`
}

// RabbitMQConfig carries notification events. Empty URL logs events instead.
type RabbitMQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// SendGridConfig is used by the notifier. Empty APIKey logs emails instead.
type SendGridConfig struct {
	APIKey    string `yaml:"apiKey"`
	FromEmail string `yaml:"fromEmail"`
	FromName  string `yaml:"fromName"`
}

// GeminiConfig enables listing copy generation. Empty APIKey disables it.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// TelemetryConfig selects the trace exporter: none or stdout.
type TelemetryConfig struct {
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"serviceName"`
}

// AuctionConfig controls the background auction closer. A zero interval
// disables it.
type AuctionConfig struct {
	CloseInterval time.Duration `yaml:"closeInterval"`
}

// Config is the whole service configuration.
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Auction   AuctionConfig   `yaml:"auction"`
}

// Default returns a configuration that runs locally on the memory store.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigin:   "http://localhost:5173",
		},
		Store: StoreConfig{Driver: "memory"},
		JWT:   JWTConfig{TokenTTL: 72 * time.Hour},
		Redis: RedisConfig{RequestsPerMin: 120},
		RabbitMQ: RabbitMQConfig{
			Queue: "loom.notifications",
		},
		SendGrid: SendGridConfig{
			FromEmail: "no-reply@artisansloom.in",
			FromName:  "The Artisan's Loom",
		},
		Gemini:    GeminiConfig{Model: "gemini-1.5-flash"},
		Telemetry: TelemetryConfig{Exporter: "none", ServiceName: "artisansloom-api"},
	}
}

// Load builds the API server configuration: defaults, then the YAML file
// named by LOOM_CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	return load((*Config).Validate)
}

// LoadNotifier builds the configuration of the notification worker, which
// needs a broker but no token secret.
func LoadNotifier() (*Config, error) {
	return load((*Config).ValidateNotifier)
}

func load(validate func(*Config) error) (*Config, error) {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("LOOM_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize lower-cases the enumerated settings so every consumer can
// compare them verbatim.
func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(c.Telemetry.Exporter))
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("APP_ENV", &c.Env)
	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)
	dur("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	str("CORS_ALLOWED_ORIGIN", &c.Server.AllowedOrigin)

	str("STORE_DRIVER", &c.Store.Driver)
	str("DB_DSN_PRIMARY", &c.Store.MySQLDSN)
	str("FIRESTORE_PROJECT_ID", &c.Store.FirestoreProject)

	str("JWT_SECRET", &c.JWT.Secret)
	dur("JWT_TOKEN_TTL", &c.JWT.TokenTTL)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	num("RATE_LIMIT_PER_MINUTE", &c.Redis.RequestsPerMin)

	str("RABBITMQ_URL", &c.RabbitMQ.URL)
	str("RABBITMQ_QUEUE", &c.RabbitMQ.Queue)

	str("SENDGRID_API_KEY", &c.SendGrid.APIKey)
	str("SENDGRID_FROM_EMAIL", &c.SendGrid.FromEmail)
	str("SENDGRID_FROM_NAME", &c.SendGrid.FromName)

	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("GEMINI_MODEL", &c.Gemini.Model)

	str("OTEL_EXPORTER", &c.Telemetry.Exporter)
	str("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)

	dur("AUCTION_CLOSE_INTERVAL", &c.Auction.CloseInterval)

	return errors.Join(errs...)
}

// Validate checks that the API server's selected components have what
// they need.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}

	switch c.Store.Driver {
	case "memory":
	case "mysql":
		if c.Store.MySQLDSN == "" {
			errs = append(errs, errors.New("DB_DSN_PRIMARY is required for the mysql store"))
		}
	case "firestore":
		if c.Store.FirestoreProject == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Telemetry.Exporter {
	case "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter))
	}

	if c.Auction.CloseInterval < 0 {
		errs = append(errs, errors.New("AUCTION_CLOSE_INTERVAL must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateNotifier checks the settings the notification worker reads.
func (c *Config) ValidateNotifier() error {
	var errs []error
	if c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL is required for the notifier"))
	}
	if c.RabbitMQ.Queue == "" {
		errs = append(errs, errors.New("RABBITMQ_QUEUE must not be empty"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
