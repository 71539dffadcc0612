package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Identity backend names accepted in IdentityConfig.Backend.
const (
	IdentityBackendSQLite  = "sqlite"
	IdentityBackendKeyring = "keyring"
)

// StorageConfig locates the durable key/value store.
type StorageConfig struct {
	// Path is the SQLite database file, or ":memory:".
	Path string `mapstructure:"path" yaml:"path"`
}

// IdentityConfig selects where the current user record is kept.
type IdentityConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`
	KeyringDir string `mapstructure:"keyring_dir" yaml:"keyring_dir"`
}

// SimulationConfig holds the artificial latencies of mock operations.
type SimulationConfig struct {
	LoginDelayMs int `mapstructure:"login_delay_ms" yaml:"login_delay_ms"`
	TaskDelayMs  int `mapstructure:"task_delay_ms" yaml:"task_delay_ms"`
}

// LoginDelay returns the login latency as a duration.
func (s SimulationConfig) LoginDelay() time.Duration {
	return time.Duration(s.LoginDelayMs) * time.Millisecond
}

// TaskDelay returns the task operation latency as a duration.
func (s SimulationConfig) TaskDelay() time.Duration {
	return time.Duration(s.TaskDelayMs) * time.Millisecond
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Identity   IdentityConfig   `mapstructure:"identity" yaml:"identity"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskstate/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskstate", "config.yaml")
}

// DefaultDataPath returns the default SQLite database location.
func DefaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "state.db")
	}
	return filepath.Join(home, ".local", "share", "taskstate", "state.db")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{Path: DefaultDataPath()},
		Identity: IdentityConfig{
			Backend:    IdentityBackendSQLite,
			KeyringDir: "~/.config/taskstate/credentials",
		},
		Simulation: SimulationConfig{
			LoginDelayMs: 1000,
			TaskDelayMs:  500,
		},
		Log: LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("identity.backend", d.Identity.Backend)
	v.SetDefault("identity.keyring_dir", d.Identity.KeyringDir)
	v.SetDefault("simulation.login_delay_ms", d.Simulation.LoginDelayMs)
	v.SetDefault("simulation.task_delay_ms", d.Simulation.TaskDelayMs)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus TASKSTATE_* environment
// overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskstate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c *AppConfig) Validate() error {
	switch c.Identity.Backend {
	case IdentityBackendSQLite, IdentityBackendKeyring:
	default:
		return fmt.Errorf("unknown identity backend %q", c.Identity.Backend)
	}
	if c.Simulation.LoginDelayMs < 0 || c.Simulation.TaskDelayMs < 0 {
		return fmt.Errorf("simulation delays must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage.path", cfg.Storage.Path)
	v.Set("identity.backend", cfg.Identity.Backend)
	v.Set("identity.keyring_dir", cfg.Identity.KeyringDir)
	v.Set("simulation.login_delay_ms", cfg.Simulation.LoginDelayMs)
	v.Set("simulation.task_delay_ms", cfg.Simulation.TaskDelayMs)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
