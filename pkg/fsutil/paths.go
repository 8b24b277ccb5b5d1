package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "tempfetch"

	// ConfigFileName is the file name of the configuration inside the config directory
	ConfigFileName = "config.yaml"
)

// GetConfigDir returns the platform-specific config directory for the application
// On Linux: ~/.config/tempfetch/
// On macOS: ~/Library/Application Support/tempfetch/
// On Windows: %AppData%\tempfetch\
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetTempDir returns the directory downloads land in when nothing else is configured.
func GetTempDir() string {
	return os.TempDir()
}
