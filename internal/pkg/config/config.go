package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type PollingConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// DatabaseConfig is optional; payments are kept in memory without it.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 15 * time.Second,
		},
		Polling: PollingConfig{
			Interval:    2 * time.Second,
			MaxAttempts: 30,
		},
	}
}

const leaseMargin = 10 * time.Second

// LeaseTTL bounds the longest a checkout can hold its poll lease: the quote
// and checkout calls, then every attempt waiting a full interval and a full
// request timeout.
func (c *Config) LeaseTTL() time.Duration {
	perAttempt := c.Polling.Interval + c.Backend.RequestTimeout
	return time.Duration(c.Polling.MaxAttempts)*perAttempt + 2*c.Backend.RequestTimeout + leaseMargin
}

var ErrMissingAPIKey = errors.New("backend.api_key is not set")

// Load reads defaults, then the config file (if any), then STOREFRONT_*
// environment variables. An empty path falls back to ~/.storefront/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("storefront")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
		if isMissingFile(path) {
			path = ""
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("viper.ReadInConfig(%s): %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Backend.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is not set")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive, got %s", c.Polling.Interval)
	}
	if c.Polling.MaxAttempts < 1 {
		return fmt.Errorf("polling.max_attempts must be at least 1, got %d", c.Polling.MaxAttempts)
	}
	return nil
}

func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".storefront", "config.yaml")
}

func isMissingFile(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

// setDefaults registers every key so AutomaticEnv can override keys that
// never appear in a config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.api_key", d.Backend.APIKey)
	v.SetDefault("backend.request_timeout", d.Backend.RequestTimeout)
	v.SetDefault("polling.interval", d.Polling.Interval)
	v.SetDefault("polling.max_attempts", d.Polling.MaxAttempts)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("telegram.token", d.Telegram.Token)
	v.SetDefault("telegram.chat_id", d.Telegram.ChatID)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.debug", d.Log.Debug)
}
