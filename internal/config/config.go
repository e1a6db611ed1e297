package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	UI      UIConfig      `mapstructure:"ui"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the catalog server connection
type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"` // Sent as a bearer token
}

// APIConfig tunes the REST client
type APIConfig struct {
	Collection string        `mapstructure:"collection"` // Path segment of the user's collection
	Timeout    time.Duration `mapstructure:"timeout"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	NotificationTTL time.Duration `mapstructure:"notification_ttl"`
	SearchDebounce  time.Duration `mapstructure:"search_debounce"`
	SearchCooldown  time.Duration `mapstructure:"search_cooldown"`
	PageSize        int           `mapstructure:"page_size"`
}

// CacheConfig locates the persisted state database
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Collection: "servies",
			Timeout:    30 * time.Second,
		},
		UI: UIConfig{
			NotificationTTL: 3 * time.Second,
			SearchDebounce:  500 * time.Millisecond,
			SearchCooldown:  3 * time.Second,
			PageSize:        20,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// Load reads the config file at path, or the default location when path
// is empty, and applies SERVIES_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// Save writes cfg to path, or to the default location when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(cfg)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// newViper returns a viper instance whose keys are seeded from cfg, so
// every key can be overridden from the environment.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SERVIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("api.collection", cfg.API.Collection)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("ui.notification_ttl", cfg.UI.NotificationTTL)
	v.SetDefault("ui.search_debounce", cfg.UI.SearchDebounce)
	v.SetDefault("ui.search_cooldown", cfg.UI.SearchCooldown)
	v.SetDefault("ui.page_size", cfg.UI.PageSize)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	return v
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// DefaultConfigDir returns the config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "servies")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "servies")
	}
}

func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "servies", "servies.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "servies", "servies.log")
	}
}

func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "servies", "state")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "servies", "state")
	}
}

// expandHome replaces a leading ~ with the home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
