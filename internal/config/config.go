// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix scopes environment overrides, e.g. REALTY_DATABASE_URL.
const EnvPrefix = "REALTY"

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres | memory
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns" split_words:"true"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl" split_words:"true"`
}

type S3Config struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	AccessKeyID    string `yaml:"access_key_id" split_words:"true"`
	SecretKey      string `yaml:"secret_key" split_words:"true"`
	BaseURL        string `yaml:"base_url" split_words:"true"`
	ForcePathStyle bool   `yaml:"force_path_style" split_words:"true"`
}

type StorageConfig struct {
	Driver       string   `yaml:"driver"` // local | s3
	LocalDir     string   `yaml:"local_dir" split_words:"true"`
	LocalBaseURL string   `yaml:"local_base_url" split_words:"true"`
	S3           S3Config `yaml:"s3"`
	MaxFileBytes int64    `yaml:"max_file_bytes" split_words:"true"`
	MaxFiles     int      `yaml:"max_files" split_words:"true"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret" split_words:"true"`
	AdminAPIKey string `yaml:"admin_api_key" split_words:"true"`
}

type AssistantConfig struct {
	RateLimit     int           `yaml:"rate_limit" split_words:"true"`
	RateWindow    time.Duration `yaml:"rate_window" split_words:"true"`
	TelegramToken string        `yaml:"telegram_token" split_words:"true"`
	BotWorkers    int           `yaml:"bot_workers" split_words:"true"`
}

type SchedulerConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval" split_words:"true"`
	WarnWindow     time.Duration `yaml:"warn_window" split_words:"true"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Assistant AssistantConfig `yaml:"assistant"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-" ignored:"true"`
}

// LoadConfig parses -config and -dev, reads the YAML file and applies
// REALTY_* environment overrides on top.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and defaults, then validates.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "uploads/properties"
	}
	if cfg.Storage.LocalBaseURL == "" {
		cfg.Storage.LocalBaseURL = "/uploads/properties/"
	}
	if cfg.Storage.MaxFileBytes <= 0 {
		cfg.Storage.MaxFileBytes = 5 << 20
	}
	if cfg.Storage.MaxFiles <= 0 {
		cfg.Storage.MaxFiles = 10
	}
	if cfg.Assistant.RateLimit <= 0 {
		cfg.Assistant.RateLimit = 30
	}
	if cfg.Assistant.RateWindow <= 0 {
		cfg.Assistant.RateWindow = time.Minute
	}
	if cfg.Assistant.BotWorkers <= 0 {
		cfg.Assistant.BotWorkers = 4
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Scheduler.WarnWindow <= 0 {
		cfg.Scheduler.WarnWindow = 72 * time.Hour
	}
}

// Minimal validation
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.Database.Driver) {
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", cfg.Database.Driver)
	}
	if cfg.Redis.Enabled && cfg.Redis.URL == "" {
		return errors.New("redis.url is required when redis is enabled")
	}
	switch strings.ToLower(cfg.Storage.Driver) {
	case "local":
	case "s3":
		if cfg.Storage.S3.Bucket == "" || cfg.Storage.S3.Region == "" {
			return errors.New("storage.s3.bucket and storage.s3.region are required")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
