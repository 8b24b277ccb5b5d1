// Package errors defines the sentinel errors shared across tempfetch and the
// wrapping helpers used to attach context to them.
package errors

import "fmt"

// Common error types.
var (
	// Session errors.
	ErrInvalidURL         = fmt.Errorf("invalid URL: only http and https URLs with a host are accepted")
	ErrTransferInProgress = fmt.Errorf("a transfer is already in progress")
	ErrNotDownloading     = fmt.Errorf("no transfer in progress")
	ErrNoArtifact         = fmt.Errorf("no downloaded file to consume")
	ErrDeletionFailed     = fmt.Errorf("failed to delete temporary file")

	// Transfer errors.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrUnexpectedStatus = fmt.Errorf("unexpected status code")
	ErrFilesystem       = fmt.Errorf("filesystem error")
	ErrHandoff          = fmt.Errorf("failed to hand off file")

	// Config errors.
	ErrEmptyConfigPath     = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath   = fmt.Errorf("invalid config file path")
	ErrConfigParse         = fmt.Errorf("failed to parse config")
	ErrConfigValidation    = fmt.Errorf("invalid configuration")
	ErrConfigEncode        = fmt.Errorf("failed to encode config")
	ErrConfigDirectory     = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate    = fmt.Errorf("failed to create config file")
	ErrConfigFileRename    = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists    = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrConfigMarshal       = fmt.Errorf("failed to marshal config to YAML")
	ErrIncompatibleVersion = fmt.Errorf("config requires a different tempfetch version")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
