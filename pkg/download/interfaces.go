//go:generate mockgen -destination=mocks/download.go . FileSystem

package download

import "io"

// FileSystem is the subset of host filesystem operations the transfer engine needs.
// Every failure is reported as an error; implementations must not panic.
type FileSystem interface {
	// Create opens path for writing, truncating any existing content.
	Create(path string) (io.WriteCloser, error)

	// Remove deletes path. Removing a path that does not exist succeeds.
	Remove(path string) error
}

// Request describes one transfer. It is not modified once the transfer starts.
type Request struct {
	URL            string
	DestinationDir string
}

// Observer carries the callbacks the engine consults while streaming.
// Any of them may be nil.
type Observer struct {
	// OnProgress receives bytesWritten/totalBytes after each written chunk.
	// It is only called when the server reported the content length.
	OnProgress func(fraction float64)

	// OnUnknownSize is called once, before the first chunk, when the
	// content length is unknown. Callers should render an indeterminate state.
	OnUnknownSize func()

	// ShouldStop is checked before every chunk is written.
	ShouldStop func() bool
}

func (o Observer) progress(fraction float64) {
	if o.OnProgress != nil {
		o.OnProgress(fraction)
	}
}

func (o Observer) unknownSize() {
	if o.OnUnknownSize != nil {
		o.OnUnknownSize()
	}
}

func (o Observer) stopRequested() bool {
	return o.ShouldStop != nil && o.ShouldStop()
}
