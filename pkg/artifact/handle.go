package artifact

import (
	"path/filepath"

	"github.com/glorpus-work/tempfetch/pkg/download"
)

// Handle describes a completed download. It is owned by a single session until the
// file is deleted and is never shared for writing.
type Handle struct {
	Path string
	// SizeBytes is the server-reported size, 0 when SizeKnown is false.
	SizeBytes    int64
	SizeKnown    bool
	BytesWritten int64
	Format       string
}

// FromResult builds a handle from a completed transfer result.
func FromResult(res download.Result) *Handle {
	return &Handle{
		Path:         res.Path,
		SizeBytes:    res.TotalBytes,
		SizeKnown:    res.SizeKnown,
		BytesWritten: res.BytesWritten,
	}
}

// Name returns the file name of the artifact.
func (h *Handle) Name() string {
	return filepath.Base(h.Path)
}

// DisplaySize returns the reported size when known, else the bytes written.
func (h *Handle) DisplaySize() int64 {
	if h.SizeKnown {
		return h.SizeBytes
	}
	return h.BytesWritten
}
