// Package config handles the XDG configuration directory and config.yaml.
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

const (
	// AppName is the application directory name.
	AppName = "stash"

	// ConfigFile is the optional settings file name (without extension).
	ConfigFile = "config"

	// StateFile is the local storage database holding session and theme.
	StateFile = "state.db"

	// LogFile receives logs while the TUI owns the terminal.
	LogFile = "stash.log"

	// EnvPrefix prefixes environment overrides, e.g. STASH_API_BASE_URL.
	EnvPrefix = "STASH"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	API    APIConfig
	Pages  PagesConfig
	Logger LoggerConfig
}

// APIConfig describes the REST backend.
type APIConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// PagesConfig holds per-screen page sizes and the search debounce.
type PagesConfig struct {
	NotesSize     int
	BookmarksSize int
	TasksSize     int
	Debounce      time.Duration
}

// LoggerConfig mirrors logging.ZapConfig.
type LoggerConfig struct {
	Level        string
	Encoding     string
	ColorEnabled bool
}

// New creates a Config rooted at configDir (or the default directory) and
// loads config.yaml from it when present. Environment variables override
// file values.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName(ConfigFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := fromViper(v, dir)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with built-in defaults and no file lookup.
func Default(dir string) *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v, dir)
}

func fromViper(v *viper.Viper, dir string) *Config {
	return &Config{
		Dir: dir,
		API: APIConfig{
			BaseURL:           strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout:           v.GetDuration("api.timeout"),
			RequestsPerSecond: v.GetFloat64("api.requests_per_second"),
			CacheTTL:          v.GetDuration("api.cache_ttl"),
		},
		Pages: PagesConfig{
			NotesSize:     v.GetInt("pages.notes_size"),
			BookmarksSize: v.GetInt("pages.bookmarks_size"),
			TasksSize:     v.GetInt("pages.tasks_size"),
			Debounce:      v.GetDuration("pages.debounce"),
		},
		Logger: LoggerConfig{
			Level:        v.GetString("logger.level"),
			Encoding:     v.GetString("logger.encoding"),
			ColorEnabled: v.GetBool("logger.color_enabled"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("api.cache_ttl", 5*time.Second)

	v.SetDefault("pages.notes_size", 10)
	v.SetDefault("pages.bookmarks_size", 20)
	v.SetDefault("pages.tasks_size", 20)
	v.SetDefault("pages.debounce", 300*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.color_enabled", true)
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL: %s", c.API.BaseURL)
	}
	if c.API.RequestsPerSecond < 0 {
		return errors.New("api.requests_per_second must not be negative")
	}
	if c.Pages.Debounce < 0 {
		return errors.New("pages.debounce must not be negative")
	}
	for name, n := range map[string]int{
		"pages.notes_size":     c.Pages.NotesSize,
		"pages.bookmarks_size": c.Pages.BookmarksSize,
		"pages.tasks_size":     c.Pages.TasksSize,
	} {
		if n < 1 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// StatePath returns the path to the local storage database.
func (c *Config) StatePath() string {
	return filepath.Join(c.Dir, StateFile)
}

// LogPath returns the path to the TUI log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
