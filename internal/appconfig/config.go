// Package appconfig holds process-wide configuration: local settings loaded
// from defaults, an optional config file and FORMSYNC_* environment
// variables, plus the opaque overrides pushed by the list endpoint.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (FORMSYNC_STORE_NAME, ...).
const EnvPrefix = "FORMSYNC"

// Config wraps a viper instance. Safe for concurrent use.
type Config struct {
	mu        sync.RWMutex
	v         *viper.Viper
	overrides map[string]any
}

// StoreSettings configures a sync Store.
type StoreSettings struct {
	Name         string
	ListAct      string
	ReadAct      string
	IDField      string
	VersionField string
}

// StorageSettings configures the storage bridge.
type StorageSettings struct {
	Backend    string
	SQLitePath string
	FileDir    string
}

// RemoteSettings configures the remote act client.
type RemoteSettings struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// LogSettings configures the process logger.
type LogSettings struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DaemonSettings configures the sync daemon and dashboard.
type DaemonSettings struct {
	RefreshInterval  time.Duration
	DebounceInterval time.Duration
	DashboardPort    int
}

// New returns a Config holding only defaults and environment overrides.
func New() *Config {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v, overrides: make(map[string]any)}
}

// Load returns a Config with the file at path merged over the defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	c := New()
	if path == "" {
		return c, nil
	}

	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()

	v.SetDefault("store.name", "forms")
	v.SetDefault("store.list_act", "")
	v.SetDefault("store.read_act", "")
	v.SetDefault("store.id_field", "id")
	v.SetDefault("store.version_field", "version")

	v.SetDefault("storage.backend", "auto")
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "formsync.db"))
	v.SetDefault("storage.file_dir", filepath.Join(dataDir, "data"))

	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.timeout", 45*time.Second)
	v.SetDefault("remote.headers", map[string]string{})

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("daemon.refresh_interval", 5*time.Minute)
	v.SetDefault("daemon.debounce_interval", 100*time.Millisecond)
	v.SetDefault("daemon.dashboard_port", 8080)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "formsync")
	}
	return ".formsync"
}

// Viper exposes the underlying instance for flag binding.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// Set stores a single value, taking precedence over file and defaults.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

// GetString returns a string setting.
func (c *Config) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(key)
}

// Get returns a raw setting.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.Get(key)
}

// Merge folds remote config overrides into the configuration.
// Remote config carries no version, so every call overwrites.
func (c *Config) Merge(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.v.MergeConfigMap(overrides); err != nil {
		return fmt.Errorf("failed to merge remote config: %w", err)
	}
	for k, v := range overrides {
		c.overrides[k] = v
	}
	return nil
}

// Overrides returns a copy of every remote override merged so far.
func (c *Config) Overrides() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}

// SaveOverrides writes the remote overrides to path as TOML so they survive
// a restart while offline.
func (c *Config) SaveOverrides(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c.Overrides()); err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}
	return nil
}

// LoadOverrides reads a TOML file written by SaveOverrides and merges it.
// A missing file is not an error.
func (c *Config) LoadOverrides(path string) error {
	var overrides map[string]any
	if _, err := toml.DecodeFile(path, &overrides); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read overrides %s: %w", path, err)
	}
	return c.Merge(overrides)
}

// Store returns the sync Store settings.
func (c *Config) Store() StoreSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return StoreSettings{
		Name:         c.v.GetString("store.name"),
		ListAct:      c.v.GetString("store.list_act"),
		ReadAct:      c.v.GetString("store.read_act"),
		IDField:      c.v.GetString("store.id_field"),
		VersionField: c.v.GetString("store.version_field"),
	}
}

// Storage returns the storage bridge settings.
func (c *Config) Storage() StorageSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return StorageSettings{
		Backend:    c.v.GetString("storage.backend"),
		SQLitePath: c.v.GetString("storage.sqlite_path"),
		FileDir:    c.v.GetString("storage.file_dir"),
	}
}

// Remote returns the remote client settings.
func (c *Config) Remote() RemoteSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return RemoteSettings{
		BaseURL: c.v.GetString("remote.base_url"),
		Timeout: c.v.GetDuration("remote.timeout"),
		Headers: c.v.GetStringMapString("remote.headers"),
	}
}

// Log returns the logger settings.
func (c *Config) Log() LogSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LogSettings{
		File:       c.v.GetString("log.file"),
		MaxSizeMB:  c.v.GetInt("log.max_size_mb"),
		MaxBackups: c.v.GetInt("log.max_backups"),
		MaxAgeDays: c.v.GetInt("log.max_age_days"),
		Compress:   c.v.GetBool("log.compress"),
	}
}

// Daemon returns the daemon settings.
func (c *Config) Daemon() DaemonSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return DaemonSettings{
		RefreshInterval:  c.v.GetDuration("daemon.refresh_interval"),
		DebounceInterval: c.v.GetDuration("daemon.debounce_interval"),
		DashboardPort:    c.v.GetInt("daemon.dashboard_port"),
	}
}
