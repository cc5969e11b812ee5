package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HomeEnv overrides the configuration directory, ~/.appser by default.
const HomeEnv = "APPSER_HOME"

type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		HTTPPort int    `yaml:"http_port"`
		Scheme   string `yaml:"scheme"`
	} `yaml:"server"`
	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`
	Votes struct {
		Path string `yaml:"path"`
	} `yaml:"votes"`
	Display struct {
		Locale string `yaml:"locale"`
	} `yaml:"display"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

var GlobalConfig *Config

var ErrNotInitialized = errors.New("configuration not initialized")

func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".appser"), nil
}

func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	GlobalConfig = &config
	return &config, nil
}

func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an admin token.
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Init writes a default configuration, replacing any existing one.
func Init() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{}
	config.Server.Host = "localhost"
	config.Server.HTTPPort = 8080
	config.Server.Scheme = "http"
	config.Votes.Path = filepath.Join(configDir, "votes.yaml")
	config.Display.Locale = "es-ES"
	config.Logging.Level = "info"

	return config, Save(config)
}

func (c *Config) applyDefaults() {
	if c.Server.Scheme == "" {
		c.Server.Scheme = "http"
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Votes.Path == "" {
		if dir, err := GetConfigDir(); err == nil {
			c.Votes.Path = filepath.Join(dir, "votes.yaml")
		}
	}
	if c.Display.Locale == "" {
		c.Display.Locale = "es-ES"
	}
}

func (c *Config) ServerURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Server.Scheme, c.Server.Host, c.Server.HTTPPort)
}

func UpdateAdminToken(token string) error {
	config, err := Load()
	if err != nil {
		return err
	}
	config.Admin.Token = token
	return Save(config)
}

func ClearAdminToken() error {
	return UpdateAdminToken("")
}

func GetServerURL() (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}
	return config.ServerURL(), nil
}
