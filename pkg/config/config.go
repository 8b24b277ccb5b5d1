// Package config loads and saves the tempfetch configuration file. The file is YAML
// and every setting has a default, so a missing file is equivalent to an empty one.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/tempfetch/pkg/download"
	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/glorpus-work/tempfetch/pkg/fsutil"
	"github.com/glorpus-work/tempfetch/pkg/hook"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Requires is a version constraint the running binary must satisfy, e.g. ">= 0.1.0".
	Requires string `yaml:"requires,omitempty"`

	// General settings
	Settings Settings `yaml:"settings"`

	// Hooks maps a hook type to an inline Tengo script, or "@path" to load it from a file.
	Hooks map[string]string `yaml:"hooks,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// DownloadDir is where transfers are written. Empty means the system temp directory.
	DownloadDir string `yaml:"download_dir"`

	// Network settings
	HeaderTimeout time.Duration `yaml:"header_timeout"`
	ChunkSize     int           `yaml:"chunk_size"`
	UserAgent     string        `yaml:"user_agent"`

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json

	// Session settings
	LogCapacity       int `yaml:"log_capacity"`
	MaxDeleteAttempts int `yaml:"max_delete_attempts"`
}

// Default configuration values.
const (
	// DefaultLogCapacity is the number of session log lines kept.
	DefaultLogCapacity = 100
	// MaxLogCapacity is the hard cap on log_capacity.
	MaxLogCapacity = 100

	// DefaultMaxDeleteAttempts bounds how often a failed deletion is retried.
	DefaultMaxDeleteAttempts = 3

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			HeaderTimeout:     download.DefaultHeaderTimeout,
			ChunkSize:         download.DefaultChunkSize,
			UserAgent:         download.DefaultUserAgent,
			LogLevel:          "info",
			LogFormat:         "text",
			LogCapacity:       DefaultLogCapacity,
			MaxDeleteAttempts: DefaultMaxDeleteAttempts,
		},
		Hooks: map[string]string{},
	}
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := fsutil.CreateFilePerm(tempPath, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	if err := validateHooks(c.Hooks); err != nil {
		return err
	}
	if c.Requires != "" {
		if _, err := parseConstraint(c.Requires); err != nil {
			return err
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HeaderTimeout < 0 {
		return fmt.Errorf("header_timeout cannot be negative")
	}
	if s.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", s.ChunkSize)
	}
	if s.LogCapacity < 1 || s.LogCapacity > MaxLogCapacity {
		return fmt.Errorf("log_capacity must be between 1 and %d, got %d", MaxLogCapacity, s.LogCapacity)
	}
	if s.MaxDeleteAttempts < 1 {
		return fmt.Errorf("max_delete_attempts must be at least 1, got %d", s.MaxDeleteAttempts)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.LogFormat] {
		return fmt.Errorf("invalid log_format %q: must be text or json", s.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", s.LogLevel)
	}
	return nil
}

func validateHooks(hooks map[string]string) error {
	for name := range hooks {
		if !hook.HookType(name).IsValid() {
			return fmt.Errorf("unknown hook type %q", name)
		}
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, fsutil.ConfigFileName), nil
}

// GetDownloadDir returns the directory transfers are written to.
func (c *Config) GetDownloadDir() string {
	if c.Settings.DownloadDir != "" {
		return c.Settings.DownloadDir
	}
	return fsutil.GetTempDir()
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.HeaderTimeout == 0 {
		c.Settings.HeaderTimeout = defaults.Settings.HeaderTimeout
	}
	if c.Settings.ChunkSize == 0 {
		c.Settings.ChunkSize = defaults.Settings.ChunkSize
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	if c.Settings.LogCapacity == 0 {
		c.Settings.LogCapacity = defaults.Settings.LogCapacity
	}
	if c.Settings.MaxDeleteAttempts == 0 {
		c.Settings.MaxDeleteAttempts = defaults.Settings.MaxDeleteAttempts
	}
	if c.Hooks == nil {
		c.Hooks = map[string]string{}
	}
}
