package cli

import (
	"fmt"
	"sync"

	"github.com/glorpus-work/tempfetch/internal/logger"
	"github.com/glorpus-work/tempfetch/pkg/artifact"
	"github.com/glorpus-work/tempfetch/pkg/config"
	"github.com/glorpus-work/tempfetch/pkg/download"
	"github.com/glorpus-work/tempfetch/pkg/hook"
	"github.com/glorpus-work/tempfetch/pkg/session"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// loadConfig loads the configuration from --config or the default location and
// applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if LogFormat != nil && *LogFormat != "" {
		cfg.Settings.LogFormat = *LogFormat
	}

	if err := cfg.CheckCompatibility(Version); err != nil {
		return nil, err
	}

	initLogger(cfg)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// newSession wires a download session from the configuration.
func newSession(cfg *config.Config, onEvent func(session.Event)) (*session.Session, error) {
	hooks := hook.NewHookManager()
	if err := hook.LoadHooks(hooks, cfg.Hooks); err != nil {
		return nil, fmt.Errorf("failed to load hooks: %w", err)
	}

	engine := download.NewEngine(download.Options{
		HeaderTimeout: cfg.Settings.HeaderTimeout,
		ChunkSize:     cfg.Settings.ChunkSize,
		UserAgent:     cfg.Settings.UserAgent,
	})

	return session.New(session.Options{
		Engine:            engine,
		Artifacts:         artifact.NewManager(),
		Hooks:             hooks,
		DownloadDir:       cfg.GetDownloadDir(),
		LogCapacity:       cfg.Settings.LogCapacity,
		MaxDeleteAttempts: cfg.Settings.MaxDeleteAttempts,
		OnEvent:           onEvent,
	}), nil
}

// eventSink forwards session events to a renderer channel. Events sent after Close
// are dropped, since the session may still emit while it cleans up.
type eventSink struct {
	mu           sync.Mutex
	ch           chan session.Event
	closed       bool
	dropProgress bool
}

func newEventSink(dropProgress bool) *eventSink {
	return &eventSink{ch: make(chan session.Event, eventBuffer), dropProgress: dropProgress}
}

func (s *eventSink) Send(ev session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.dropProgress && ev.Kind == session.EventProgress {
		select {
		case s.ch <- ev:
		default:
		}
		return
	}
	s.ch <- ev
}

func (s *eventSink) Events() <-chan session.Event { return s.ch }

func (s *eventSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
