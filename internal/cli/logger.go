package cli

import (
	"github.com/glorpus-work/tempfetch/internal/logger"
	"github.com/glorpus-work/tempfetch/pkg/config"
)

// initLogger configures the operational logger from the loaded settings.
func initLogger(cfg *config.Config) {
	format := logger.FormatText
	if cfg.Settings.LogFormat == "json" {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)
}
