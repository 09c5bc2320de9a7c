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

// SourceType identifies the remote content backend
type SourceType string

const (
	SourceTypeFirestore SourceType = "firestore"
	SourceTypeBundle    SourceType = "bundle"
)

// Config holds all application configuration
type Config struct {
	Remote       RemoteConfig       `mapstructure:"remote"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// RemoteConfig holds remote backend configuration
type RemoteConfig struct {
	Type      SourceType    `mapstructure:"type"`       // "firestore" or "bundle"
	ProjectID string        `mapstructure:"project_id"` // Firebase project
	APIKey    string        `mapstructure:"api_key"`    // Firebase web API key
	AppID     string        `mapstructure:"app_id"`     // Firebase app ID (remote config)
	BundleURL string        `mapstructure:"bundle_url"` // Bundle only
	Timeout   time.Duration `mapstructure:"timeout"`    // Per-request HTTP timeout
}

// SyncConfig tunes the sync coordinator
type SyncConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`            // Upper bound for one pass
	VersionKey       string        `mapstructure:"version_key"`        // Remote config key holding the data version
	MinFetchInterval time.Duration `mapstructure:"min_fetch_interval"` // Remote config refresh throttle
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`      // Remote config fetch timeout
	ImageConcurrency int           `mapstructure:"image_concurrency"`
	ImageRate        float64       `mapstructure:"image_rate"` // Downloads per second, 0 = unlimited
}

// ConnectivityConfig configures the reachability probe
type ConnectivityConfig struct {
	ProbeURL string        `mapstructure:"probe_url"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// MetricsConfig holds the optional Prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // e.g. ":9090", empty disables
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Type:    SourceTypeFirestore,
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			Timeout:          20 * time.Second,
			VersionKey:       "temas_version",
			MinFetchInterval: 10 * time.Second,
			FetchTimeout:     10 * time.Second,
			ImageConcurrency: 4,
			ImageRate:        5,
		},
		Connectivity: ConnectivityConfig{
			ProbeURL: "https://firestore.googleapis.com/",
			Interval: 15 * time.Second,
			Timeout:  5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataPath(),
		},
		Logging: LoggingConfig{
			File:       filepath.Join(defaultDataPath(), "apostol.log"),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "apostol")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "apostol")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "apostol")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "apostol")
	}
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variable overrides, e.g. APOSTOL_REMOTE_PROJECT_ID
	v.SetEnvPrefix("APOSTOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from file and environment.
// An empty configDir uses the OS default location.
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigPath()
	}
	cfg := DefaultConfig()
	v := newViper(configDir)

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range knownKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

var knownKeys = []string{
	"remote.type", "remote.project_id", "remote.api_key", "remote.app_id", "remote.bundle_url", "remote.timeout",
	"sync.timeout", "sync.version_key", "sync.min_fetch_interval", "sync.fetch_timeout", "sync.image_concurrency", "sync.image_rate",
	"connectivity.probe_url", "connectivity.interval", "connectivity.timeout",
	"storage.data_dir",
	"logging.file", "logging.level", "logging.max_size_mb", "logging.max_backups",
	"metrics.addr",
}

// SaveConfig saves the configuration to configDir/config.yaml
func SaveConfig(configDir string, cfg *Config) error {
	if configDir == "" {
		configDir = DefaultConfigPath()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("remote.type", string(cfg.Remote.Type))
	v.Set("remote.project_id", cfg.Remote.ProjectID)
	v.Set("remote.api_key", cfg.Remote.APIKey)
	v.Set("remote.app_id", cfg.Remote.AppID)
	v.Set("remote.bundle_url", cfg.Remote.BundleURL)
	v.Set("remote.timeout", cfg.Remote.Timeout.String())

	v.Set("sync.timeout", cfg.Sync.Timeout.String())
	v.Set("sync.version_key", cfg.Sync.VersionKey)
	v.Set("sync.min_fetch_interval", cfg.Sync.MinFetchInterval.String())
	v.Set("sync.fetch_timeout", cfg.Sync.FetchTimeout.String())
	v.Set("sync.image_concurrency", cfg.Sync.ImageConcurrency)
	v.Set("sync.image_rate", cfg.Sync.ImageRate)

	v.Set("connectivity.probe_url", cfg.Connectivity.ProbeURL)
	v.Set("connectivity.interval", cfg.Connectivity.Interval.String())
	v.Set("connectivity.timeout", cfg.Connectivity.Timeout.String())

	v.Set("storage.data_dir", cfg.Storage.DataDir)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.Set("logging.max_backups", cfg.Logging.MaxBackups)

	v.Set("metrics.addr", cfg.Metrics.Addr)

	configFile := filepath.Join(configDir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports configuration that cannot produce a working remote source
func (c *Config) Validate() error {
	switch c.Remote.Type {
	case SourceTypeFirestore:
		if c.Remote.ProjectID == "" {
			return fmt.Errorf("remote.project_id is required for firestore")
		}
	case SourceTypeBundle:
		if c.Remote.BundleURL == "" {
			return fmt.Errorf("remote.bundle_url is required for bundle")
		}
	default:
		return fmt.Errorf("unknown remote type: %q", c.Remote.Type)
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive")
	}
	return nil
}

// ImagesDir returns the directory image blobs are stored under
func (c *Config) ImagesDir() string {
	return filepath.Join(c.Storage.DataDir, "files")
}

// ClearCache removes all cached data
func (c *Config) ClearCache() error {
	if c.Storage.DataDir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Storage.DataDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
