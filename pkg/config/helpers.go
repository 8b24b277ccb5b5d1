package config

import (
	"fmt"
	"strconv"
	"time"
)

// SetValue sets a configuration value by key
// Supported keys:
//   - download_dir: string - Directory transfers are written to
//   - header_timeout: duration - Time allowed to receive response headers
//   - chunk_size: int - Read buffer size in bytes
//   - user_agent: string - User-Agent header
//   - log_level: string - Logging level (debug, info, warn, error)
//   - log_format: string - Log output format (text, json)
//   - log_capacity: int - Session log lines kept (1-100)
//   - max_delete_attempts: int - Deletion retries before giving up
//
// A value that fails validation is not applied.
func (c *Config) SetValue(key, value string) error {
	prev := c.Settings
	switch key {
	case "download_dir":
		c.Settings.DownloadDir = value
	case "header_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.HeaderTimeout = d
	case "chunk_size", "log_capacity", "max_delete_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		switch key {
		case "chunk_size":
			c.Settings.ChunkSize = n
		case "log_capacity":
			c.Settings.LogCapacity = n
		default:
			c.Settings.MaxDeleteAttempts = n
		}
	case "user_agent":
		c.Settings.UserAgent = value
	case "log_level":
		c.Settings.LogLevel = value
	case "log_format":
		c.Settings.LogFormat = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := c.Validate(); err != nil {
		c.Settings = prev
		return err
	}
	return nil
}

// GetValue returns the value of a setting as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "download_dir":
		return c.Settings.DownloadDir, nil
	case "header_timeout":
		return c.Settings.HeaderTimeout.String(), nil
	case "chunk_size":
		return strconv.Itoa(c.Settings.ChunkSize), nil
	case "user_agent":
		return c.Settings.UserAgent, nil
	case "log_level":
		return c.Settings.LogLevel, nil
	case "log_format":
		return c.Settings.LogFormat, nil
	case "log_capacity":
		return strconv.Itoa(c.Settings.LogCapacity), nil
	case "max_delete_attempts":
		return strconv.Itoa(c.Settings.MaxDeleteAttempts), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}
