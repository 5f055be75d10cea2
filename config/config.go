// Package config loads ragchat settings from defaults, an optional YAML
// file and RAGCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client and the mock backend.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Locale  string        `mapstructure:"locale"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Mock    MockConfig    `mapstructure:"mock"`
}

// BackendConfig holds chat API settings.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds transcript store settings. An empty path disables
// persistence.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logger settings. The client logs to File because the
// terminal belongs to the UI; an empty File discards logs.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MockConfig holds mock backend settings.
type MockConfig struct {
	Address string        `mapstructure:"address"`
	Delay   time.Duration `mapstructure:"delay"`
}

// EnvPrefix prefixes every environment override, e.g. RAGCHAT_BACKEND_TOKEN.
const EnvPrefix = "RAGCHAT"

// Load loads configuration from file and environment. When configPath is
// empty, ragchat.yaml is looked up in . and ./config; a missing file is not
// an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ragchat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8080/api")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 30*time.Second)

	v.SetDefault("locale", "de")

	v.SetDefault("store.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("mock.address", "127.0.0.1:8080")
	v.SetDefault("mock.delay", 150*time.Millisecond)
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}
)

// Validate checks values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("config: backend.timeout must not be negative, got %s", c.Backend.Timeout)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("config: log.level must be one of %v, got %q", logLevels, c.Log.Level)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("config: log.format must be one of %v, got %q", logFormats, c.Log.Format)
	}
	if c.Mock.Delay < 0 {
		return fmt.Errorf("config: mock.delay must not be negative, got %s", c.Mock.Delay)
	}
	return nil
}
