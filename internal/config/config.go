package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DBConfig holds the postgres connection settings.
type DBConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns URL when set, otherwise builds one from the parts.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// SendConfig points at the endpoint that delivers a single email.
type SendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type AssistConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type DispatchConfig struct {
	BatchSize  int           `yaml:"batch_size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
	Async      bool          `yaml:"async"`
}

type MQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Send     SendConfig     `yaml:"send"`
	Assist   AssistConfig   `yaml:"assist"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	MQ       MQConfig       `yaml:"mq"`
	Sentry   SentryConfig   `yaml:"sentry"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "outreach",
			SSLMode: "disable",
		},
		Log:  LogConfig{Level: "info", Format: "text"},
		Send: SendConfig{Timeout: 15 * time.Second},
		Assist: AssistConfig{
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Dispatch: DispatchConfig{
			BatchSize:  5,
			BatchDelay: time.Second,
		},
		MQ: MQConfig{Queue: "campaign_dispatch"},
	}
}

// Load builds the config from defaults, the optional YAML file named by
// CONFIG_FILE, and environment overrides, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Dispatch.BatchSize < 1 {
		return fmt.Errorf("dispatch batch size must be positive, got %d", c.Dispatch.BatchSize)
	}
	if c.Dispatch.BatchDelay < 0 {
		return fmt.Errorf("dispatch batch delay must not be negative, got %s", c.Dispatch.BatchDelay)
	}
	return nil
}

func overrideFromEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")

	setString(&cfg.DB.URL, "DATABASE_URL")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.DB.SSLMode, "DB_SSLMODE")
	if err := setInt(&cfg.DB.Port, "DB_PORT"); err != nil {
		return err
	}

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.Send.URL, "SEND_ENDPOINT_URL")
	setString(&cfg.Send.Token, "SEND_ENDPOINT_TOKEN")

	setString(&cfg.Assist.URL, "ASSIST_ENDPOINT_URL")
	setString(&cfg.Assist.APIKey, "ASSIST_API_KEY")
	setString(&cfg.Assist.Model, "ASSIST_MODEL")

	if err := setInt(&cfg.Dispatch.BatchSize, "DISPATCH_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Dispatch.BatchDelay, "DISPATCH_BATCH_DELAY"); err != nil {
		return err
	}
	if err := setBool(&cfg.Dispatch.Async, "DISPATCH_ASYNC"); err != nil {
		return err
	}

	setString(&cfg.MQ.URL, "AMQP_URL")
	setString(&cfg.MQ.Queue, "AMQP_QUEUE")

	setString(&cfg.Sentry.DSN, "SENTRY_DSN")
	setString(&cfg.Sentry.Environment, "SENTRY_ENVIRONMENT")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
