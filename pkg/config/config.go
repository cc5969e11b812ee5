package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "change-this-secret-in-production"

// ServerConfig is read from an optional YAML file and then overridden by the
// environment.
type ServerConfig struct {
	HTTPPort    string `yaml:"http_port"`
	GRPCPort    string `yaml:"grpc_port"`
	EnableGRPC  bool   `yaml:"enable_grpc"`
	DBPath      string `yaml:"db_path"`
	JWTSecret   string `yaml:"jwt_secret"`
	AdminKey    string `yaml:"admin_key"`
	FrontendURL string `yaml:"frontend_url"`
	PublicURL   string `yaml:"public_url"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Locale       string `yaml:"locale"`
	DefaultImage string `yaml:"default_image"`

	AMQPURL   string `yaml:"amqp_url"`
	AMQPQueue string `yaml:"amqp_queue"`

	ReconcileSchedule string `yaml:"reconcile_schedule"`

	EnableDiscovery bool   `yaml:"enable_discovery"`
	DiscoveryAddr   string `yaml:"discovery_addr"`

	RateLimit        float64       `yaml:"rate_limit"`
	RateBurst        int           `yaml:"rate_burst"`
	DownloadCooldown time.Duration `yaml:"download_cooldown"`
}

func Defaults() *ServerConfig {
	return &ServerConfig{
		HTTPPort:          "8080",
		GRPCPort:          "9092",
		EnableGRPC:        true,
		DBPath:            "./data/appser.db",
		FrontendURL:       "http://localhost:3000",
		PublicURL:         "http://localhost:8080",
		LogLevel:          "info",
		LogFormat:         "text",
		Locale:            "es-ES",
		AMQPQueue:         "appser.events",
		ReconcileSchedule: "",
		DiscoveryAddr:     "255.255.255.255:9099",
		RateLimit:         5,
		RateBurst:         10,
		DownloadCooldown:  time.Second,
	}
}

// Load reads .env (if present), then the YAML file named by APPSER_CONFIG
// (if set), then the environment.
func Load() (*ServerConfig, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("APPSER_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *ServerConfig) applyEnv() {
	c.HTTPPort = getEnvOrDefault("HTTP_PORT", c.HTTPPort)
	c.GRPCPort = getEnvOrDefault("GRPC_PORT", c.GRPCPort)
	c.EnableGRPC = getEnvBool("ENABLE_GRPC", c.EnableGRPC)
	c.DBPath = getEnvOrDefault("DB_PATH", c.DBPath)
	c.JWTSecret = getEnvOrDefault("JWT_SECRET", c.JWTSecret)
	c.AdminKey = getEnvOrDefault("ADMIN_KEY", c.AdminKey)
	c.FrontendURL = getEnvOrDefault("FRONTEND_URL", c.FrontendURL)
	c.PublicURL = getEnvOrDefault("PUBLIC_URL", c.PublicURL)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.Locale = getEnvOrDefault("LOCALE", c.Locale)
	c.DefaultImage = getEnvOrDefault("DEFAULT_IMAGE", c.DefaultImage)
	c.AMQPURL = getEnvOrDefault("AMQP_URL", c.AMQPURL)
	c.AMQPQueue = getEnvOrDefault("AMQP_QUEUE", c.AMQPQueue)
	c.ReconcileSchedule = getEnvOrDefault("RECONCILE_SCHEDULE", c.ReconcileSchedule)
	c.EnableDiscovery = getEnvBool("ENABLE_DISCOVERY", c.EnableDiscovery)
	c.DiscoveryAddr = getEnvOrDefault("DISCOVERY_ADDR", c.DiscoveryAddr)
	c.RateBurst = GetEnvInt("RATE_BURST", c.RateBurst)
	if v := GetEnvInt("RATE_LIMIT", 0); v > 0 {
		c.RateLimit = float64(v)
	}
	if v := os.Getenv("DOWNLOAD_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DownloadCooldown = d
		}
	}
}

// UsingDefaultSecret reports whether no JWT secret was configured. The
// default is applied so the server still starts in development.
func (c *ServerConfig) UsingDefaultSecret() bool {
	if c.JWTSecret == "" {
		c.JWTSecret = defaultJWTSecret
		return true
	}
	return c.JWTSecret == defaultJWTSecret
}

func (c *ServerConfig) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("http port is required")
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("rate limit must not be negative")
	}
	if c.DownloadCooldown < 0 {
		return errors.New("download cooldown must not be negative")
	}
	return nil
}
