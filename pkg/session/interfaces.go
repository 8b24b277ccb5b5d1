//go:generate mockgen -destination=mocks/session.go . Transferer

package session

import (
	"context"

	"github.com/glorpus-work/tempfetch/pkg/download"
)

// Transferer runs a single transfer to completion. *download.Engine implements it.
type Transferer interface {
	Run(ctx context.Context, req download.Request, obs download.Observer) download.Result
}

// EventKind identifies a session transition.
type EventKind int

// Session transitions published through Options.OnEvent.
const (
	EventStarted EventKind = iota
	EventProgress
	EventIndeterminate
	EventStopRequested
	EventCompleted
	EventStopped
	EventFailed
	EventConsumed
	EventDeleted
	EventDeleteFailed
)

var eventKindNames = map[EventKind]string{
	EventStarted:       "started",
	EventProgress:      "progress",
	EventIndeterminate: "indeterminate",
	EventStopRequested: "stop-requested",
	EventCompleted:     "completed",
	EventStopped:       "stopped",
	EventFailed:        "failed",
	EventConsumed:      "consumed",
	EventDeleted:       "deleted",
	EventDeleteFailed:  "delete-failed",
}

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is delivered to the session owner on every transition.
type Event struct {
	Kind EventKind
	// Progress is set for EventProgress.
	Progress float64
	// Message carries the log line written for the transition, if any.
	Message string
}
