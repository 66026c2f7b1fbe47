// Package config loads service settings from an optional YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	AI       AIConfig       `yaml:"ai"`
	Queue    QueueConfig    `yaml:"queue"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port          int  `yaml:"port"`
	SecureCookies bool `yaml:"secure_cookies"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SecretsConfig holds the shared secrets; they are usually only set through the environment.
type SecretsConfig struct {
	Worker   string `yaml:"worker"`
	Paystack string `yaml:"paystack"`
	Session  string `yaml:"session"`
}

type AIConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type QueueConfig struct {
	AMQPURL  string `yaml:"amqp_url"` // empty = in-process queue
	AICheck  string `yaml:"ai_check"` // queue name for AI-check jobs
	Prefetch int    `yaml:"prefetch"`
}

type RedisConfig struct {
	URL     string        `yaml:"url"` // empty = webhook lock disabled
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load reads .env (if present), then the YAML file named by path or CONFIG_FILE,
// then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Secrets.Worker, "WORKER_SECRET")
	setString(&c.Secrets.Paystack, "PAYSTACK_SECRET_KEY")
	setString(&c.Secrets.Session, "SESSION_SECRET")
	setString(&c.AI.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.AI.BaseURL, "ANTHROPIC_BASE_URL")
	setString(&c.AI.Model, "ANTHROPIC_MODEL")
	setString(&c.Queue.AMQPURL, "AMQP_URL")
	setString(&c.Queue.AICheck, "AI_CHECK_QUEUE")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		c.Server.Port = port
	}
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AI_TIMEOUT: %w", err)
		}
		c.AI.Timeout = d
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED: %w", err)
		}
		c.Metrics.Enabled = enabled
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Queue.AICheck == "" {
		c.Queue.AICheck = "proposal_ai_checks"
	}
	if c.Queue.Prefetch <= 0 {
		c.Queue.Prefetch = 4
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 30 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database URL required (DATABASE_URL)")
	}
	if c.Secrets.Worker == "" {
		return errors.New("WORKER_SECRET required")
	}
	if c.Secrets.Paystack == "" {
		return errors.New("PAYSTACK_SECRET_KEY required")
	}
	if len(c.Secrets.Session) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	return nil
}

// ValidateWorker checks the settings the AI-check worker needs.
func (c *Config) ValidateWorker() error {
	if c.Database.URL == "" {
		return errors.New("database URL required (DATABASE_URL)")
	}
	if c.Queue.AMQPURL == "" {
		return errors.New("AMQP_URL required for the worker")
	}
	if c.AI.APIKey == "" {
		return errors.New("ANTHROPIC_API_KEY required")
	}
	return nil
}
