// Package session owns the state of one interactive download: the transfer in flight,
// the stop flag it polls, the artifact it produced and the user-facing log.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/tempfetch/internal/logger"
	"github.com/glorpus-work/tempfetch/pkg/artifact"
	"github.com/glorpus-work/tempfetch/pkg/download"
	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/glorpus-work/tempfetch/pkg/fsutil"
	"github.com/glorpus-work/tempfetch/pkg/hook"
	"github.com/google/uuid"
)

const (
	// DefaultLogCapacity is the number of log lines kept when Options.LogCapacity is unset.
	// It is also the upper bound.
	DefaultLogCapacity = 100
	// DefaultMaxDeleteAttempts is used when Options.MaxDeleteAttempts is unset.
	DefaultMaxDeleteAttempts = 3
)

// Status lines shown to the user.
const (
	StatusStarting  = "Starting download..."
	StatusCompleted = "Download completed successfully!"
	StatusStopped   = "Download stopped."
)

// Options configures a Session.
type Options struct {
	Engine            Transferer
	Artifacts         artifact.Store
	Hooks             hook.HookManager
	DownloadDir       string
	LogCapacity       int
	MaxDeleteAttempts int
	// OnEvent is called synchronously after each transition, never with the session lock held.
	OnEvent func(Event)
}

// State is a point-in-time copy of the session, safe to render.
type State struct {
	ID              string
	URL             string
	Downloading     bool
	StopRequested   bool
	Progress        float64
	ProgressKnown   bool
	Status          string
	LastError       string
	Artifact        *artifact.Handle
	PendingDeletion bool
	DeleteAttempts  int
	DeletionFailed  bool
	// Leftovers are replaced artifacts whose deletion failed; CollectGarbage retries them.
	Leftovers []string
	Logs      []string
}

// Session is the state machine driving one download at a time.
type Session struct {
	id        string
	engine    Transferer
	artifacts artifact.Store
	hooks     hook.HookManager
	dir       string
	maxDelete int
	onEvent   func(Event)
	log       *slog.Logger

	stop atomic.Bool

	mu        sync.Mutex
	state     State
	logs      *LogBuffer
	leftovers map[string]int
}

// New creates an idle session.
func New(opts Options) *Session {
	if opts.Engine == nil {
		opts.Engine = download.NewEngine(download.Options{})
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewManager()
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = fsutil.GetTempDir()
	}
	if opts.LogCapacity < 1 || opts.LogCapacity > DefaultLogCapacity {
		opts.LogCapacity = DefaultLogCapacity
	}
	if opts.MaxDeleteAttempts < 1 {
		opts.MaxDeleteAttempts = DefaultMaxDeleteAttempts
	}

	id := uuid.NewString()
	return &Session{
		id:        id,
		engine:    opts.Engine,
		artifacts: opts.Artifacts,
		hooks:     opts.Hooks,
		dir:       opts.DownloadDir,
		maxDelete: opts.MaxDeleteAttempts,
		onEvent:   opts.OnEvent,
		log:       logger.With(logger.Fields{"session": id}),
		state:     State{ID: id},
		logs:      NewLogBuffer(opts.LogCapacity),
		leftovers: make(map[string]int),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start runs a transfer of rawURL and records its outcome. It blocks until the transfer
// ends; Stop may be called from another goroutine meanwhile.
func (s *Session) Start(ctx context.Context, rawURL string) (download.Result, error) {
	if !download.IsValidURL(rawURL) {
		return download.Result{}, errors.ErrInvalidURL
	}

	s.mu.Lock()
	if s.state.Downloading {
		s.mu.Unlock()
		return download.Result{}, errors.ErrTransferInProgress
	}

	// the session is the sole owner of a retained artifact, so a new transfer replaces it
	var discardFailed string
	if prev := s.state.Artifact; prev != nil {
		if err := s.artifacts.DeleteIfExists(prev.Path); err != nil {
			s.leftovers[prev.Path] = 1
			discardFailed = s.appendLog(fmt.Sprintf("Error deleting temp file: %v", err))
			s.log.Warn("Failed to discard previous download", "path", prev.Path, "error", err)
		}
	}

	s.stop.Store(false)
	s.state.URL = rawURL
	s.state.Downloading = true
	s.state.StopRequested = false
	s.state.Progress = 0
	s.state.ProgressKnown = true
	s.state.Artifact = nil
	s.state.PendingDeletion = false
	s.state.DeleteAttempts = 0
	s.state.DeletionFailed = false
	s.state.LastError = ""
	s.state.Status = StatusStarting
	msg := s.appendLog("Download started.")
	s.mu.Unlock()

	if discardFailed != "" {
		s.emit(Event{Kind: EventDeleteFailed, Message: discardFailed})
	}
	s.log.Info("Download started", "url", rawURL, "dir", s.dir)
	s.emit(Event{Kind: EventStarted, Message: msg})

	res := s.engine.Run(ctx, download.Request{URL: rawURL, DestinationDir: s.dir}, download.Observer{
		OnProgress:    s.onProgress,
		OnUnknownSize: s.onUnknownSize,
		ShouldStop:    s.stop.Load,
	})

	s.record(ctx, rawURL, res)
	return res, nil
}

// Stop asks the running transfer to end at its next chunk boundary.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.state.Downloading {
		s.mu.Unlock()
		return errors.ErrNotDownloading
	}
	if s.stop.Swap(true) {
		s.mu.Unlock()
		return nil
	}
	s.state.StopRequested = true
	msg := s.appendLog("Stop requested by user.")
	s.mu.Unlock()

	s.log.Info("Stop requested")
	s.emit(Event{Kind: EventStopRequested, Message: msg})
	return nil
}

// MarkConsumed records that the artifact at path has been handed off. Deletion happens
// on the next CollectGarbage call. It returns errors.ErrNoArtifact when path is not the
// artifact the session currently holds.
func (s *Session) MarkConsumed(path string) error {
	s.mu.Lock()
	if s.state.Downloading || s.state.Artifact == nil || s.state.Artifact.Path != path {
		s.mu.Unlock()
		return errors.ErrNoArtifact
	}
	s.state.PendingDeletion = true
	s.mu.Unlock()

	s.emit(Event{Kind: EventConsumed})
	return nil
}

// CollectGarbage deletes a consumed artifact. A failed deletion stays pending and is
// retried on later calls until the attempt limit is reached.
func (s *Session) CollectGarbage() error {
	s.collectLeftovers()

	s.mu.Lock()
	if !s.state.PendingDeletion || s.state.DeletionFailed {
		s.mu.Unlock()
		return nil
	}

	handle := s.state.Artifact
	if handle == nil {
		s.state.PendingDeletion = false
		s.mu.Unlock()
		return nil
	}

	if err := s.artifacts.DeleteIfExists(handle.Path); err != nil {
		s.state.DeleteAttempts++
		s.state.LastError = fmt.Sprintf("Failed to delete temporary file: %v", err)
		msg := s.appendLog(fmt.Sprintf("Error deleting temp file: %v", err))
		attempts := s.state.DeleteAttempts
		if attempts >= s.maxDelete {
			s.state.DeletionFailed = true
			s.state.PendingDeletion = false
		}
		s.mu.Unlock()

		s.log.Error("Failed to delete temporary file", "path", handle.Path, "attempt", attempts, "error", err)
		s.emit(Event{Kind: EventDeleteFailed, Message: msg})
		return fmt.Errorf("%w %s: %w", errors.ErrDeletionFailed, handle.Path, err)
	}

	s.state.Artifact = nil
	s.state.PendingDeletion = false
	s.state.DeleteAttempts = 0
	s.state.Progress = 0
	s.state.Status = ""
	s.state.LastError = ""
	msg := s.appendLog("Temporary file deleted after download.")
	url := s.state.URL
	s.mu.Unlock()

	s.log.Debug("Temporary file deleted", "path", handle.Path)
	s.emit(Event{Kind: EventDeleted, Message: msg})
	s.runHook(hook.PostDelete, hook.HookContext{URL: url, Path: handle.Path, Size: handle.DisplaySize()})
	return nil
}

// collectLeftovers retries replaced artifacts. It waits while a transfer runs, since the
// transfer may be writing to the same path.
func (s *Session) collectLeftovers() {
	s.mu.Lock()
	if s.state.Downloading {
		s.mu.Unlock()
		return
	}
	var events []Event
	for path, attempts := range s.leftovers {
		err := s.artifacts.DeleteIfExists(path)
		if err == nil {
			delete(s.leftovers, path)
			events = append(events, Event{Kind: EventDeleted, Message: s.appendLog("Temporary file deleted: " + path)})
			continue
		}
		attempts++
		if attempts >= s.maxDelete {
			delete(s.leftovers, path)
		} else {
			s.leftovers[path] = attempts
		}
		s.log.Error("Failed to delete temporary file", "path", path, "attempt", attempts, "error", err)
		events = append(events, Event{Kind: EventDeleteFailed, Message: s.appendLog(fmt.Sprintf("Error deleting temp file: %v", err))})
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev)
	}
}

// Close runs a final collection cycle. A retained artifact that was never consumed is
// left on disk.
func (s *Session) Close() error {
	return s.CollectGarbage()
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.Artifact != nil {
		h := *st.Artifact
		st.Artifact = &h
	}
	for path := range s.leftovers {
		st.Leftovers = append(st.Leftovers, path)
	}
	sort.Strings(st.Leftovers)
	st.Logs = s.logs.Lines()
	return st
}

// Logs returns the user-facing log lines, oldest first.
func (s *Session) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs.Lines()
}

func (s *Session) record(ctx context.Context, rawURL string, res download.Result) {
	var handle *artifact.Handle
	if res.Outcome == download.OutcomeCompleted {
		handle = artifact.FromResult(res)
		format, err := s.artifacts.Identify(ctx, res.Path)
		if err != nil {
			s.log.Debug("Could not identify artifact format", "path", res.Path, "error", err)
		}
		handle.Format = format
	}

	s.mu.Lock()
	s.state.Downloading = false
	s.state.StopRequested = false
	s.stop.Store(false)

	var ev Event
	var hookType hook.HookType
	hctx := hook.HookContext{URL: rawURL}

	switch res.Outcome {
	case download.OutcomeCompleted:
		// a new download written over a leftover path owns that file now
		delete(s.leftovers, handle.Path)
		s.state.Artifact = handle
		s.state.Status = StatusCompleted
		if s.state.ProgressKnown {
			s.state.Progress = 1
		}
		size := humanize.IBytes(uint64(handle.DisplaySize()))
		ev = Event{Kind: EventCompleted, Message: s.appendLog(fmt.Sprintf("File downloaded: %s (%s)", handle.Path, size))}
		hookType = hook.PostDownload
		hctx.Path = handle.Path
		hctx.Size = handle.DisplaySize()

	case download.OutcomeStopped:
		s.state.Progress = 0
		s.state.Status = StatusStopped
		ev = Event{Kind: EventStopped, Message: s.appendLog("Download stopped by user.")}
		hookType = hook.PostStop

	default:
		msg := res.Message()
		s.state.Progress = 0
		s.state.LastError = msg
		s.state.Status = "Download error: " + msg
		ev = Event{Kind: EventFailed, Message: s.appendLog("Error: " + msg)}
		hookType = hook.PostFailure
		hctx.Message = msg
	}
	s.mu.Unlock()

	switch res.Outcome {
	case download.OutcomeCompleted:
		s.log.Info("Download completed", "path", handle.Path, "bytes", handle.DisplaySize(), "format", handle.Format)
	case download.OutcomeStopped:
		s.log.Info("Download stopped")
	default:
		s.log.Warn("Download failed", "error", res.Err)
	}

	s.emit(ev)
	s.runHook(hookType, hctx)
}

func (s *Session) onProgress(fraction float64) {
	s.mu.Lock()
	s.state.Progress = fraction
	s.state.ProgressKnown = true
	s.mu.Unlock()

	s.emit(Event{Kind: EventProgress, Progress: fraction})
}

func (s *Session) onUnknownSize() {
	s.mu.Lock()
	s.state.ProgressKnown = false
	s.mu.Unlock()

	s.emit(Event{Kind: EventIndeterminate})
}

// appendLog must be called with mu held.
func (s *Session) appendLog(line string) string {
	s.logs.Append(line)
	return line
}

func (s *Session) emit(ev Event) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

func (s *Session) runHook(hookType hook.HookType, ctx hook.HookContext) {
	if s.hooks == nil {
		return
	}
	ctx.SessionID = s.id
	if err := s.hooks.Execute(hookType, ctx); err != nil {
		s.log.Warn("Hook failed", "hook", string(hookType), "error", err)
	}
}
