// Package download implements the streaming transfer engine: one HTTP(S) GET written to a
// local file in fixed-size chunks, with a cooperative stop check between chunks.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/glorpus-work/tempfetch/internal/logger"
	pkgerrors "github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/glorpus-work/tempfetch/pkg/fsutil"
)

const (
	// DefaultChunkSize is the unit of transfer, write and cancellation.
	DefaultChunkSize = 32 * 1024

	// DefaultHeaderTimeout bounds connecting and waiting for response headers.
	// It does not bound the body transfer.
	DefaultHeaderTimeout = 15 * time.Second

	// DefaultUserAgent is sent when Options.UserAgent is empty.
	DefaultUserAgent = "tempfetch/1.0"
)

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	HeaderTimeout time.Duration
	ChunkSize     int
	UserAgent     string
	FileSystem    FileSystem
	// Client replaces the HTTP client built from HeaderTimeout.
	Client *http.Client
}

// Engine runs transfers. It holds no per-transfer state and may be reused.
type Engine struct {
	client    *http.Client
	fs        FileSystem
	chunkSize int
	userAgent string
}

// OSFileSystem implements FileSystem on the host filesystem.
type OSFileSystem struct{}

// Create implements FileSystem.
func (OSFileSystem) Create(path string) (io.WriteCloser, error) {
	if err := fsutil.EnsureFileDir(path); err != nil {
		return nil, err
	}
	f, err := fsutil.CreateFilePerm(path, fsutil.FileModeSecure)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove implements FileSystem.
func (OSFileSystem) Remove(path string) error {
	return fsutil.DeleteIfExists(path)
}

// NewEngine creates an engine from opts.
func NewEngine(opts Options) *Engine {
	if opts.HeaderTimeout <= 0 {
		opts.HeaderTimeout = DefaultHeaderTimeout
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.FileSystem == nil {
		opts.FileSystem = OSFileSystem{}
	}
	if opts.Client == nil {
		opts.Client = newHTTPClient(opts.HeaderTimeout)
	}
	return &Engine{
		client:    opts.Client,
		fs:        opts.FileSystem,
		chunkSize: opts.ChunkSize,
		userAgent: opts.UserAgent,
	}
}

// newHTTPClient builds a client whose timeouts cover dialing, TLS and response headers only.
// http.Client.Timeout is left unset because it would also cap the body transfer.
func newHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   headerTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = headerTimeout
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// Run downloads req.URL into req.DestinationDir. It never returns an error value and never
// panics on collaborator failures: every exit is a Result. On Stopped and Failed the partially
// written file has been removed.
func (e *Engine) Run(ctx context.Context, req Request, obs Observer) Result {
	path := filepath.Join(req.DestinationDir, FilenameFromURL(req.URL))
	log := logger.With(logger.Fields{"url": req.URL, "path": path})

	resp, err := e.doRequest(ctx, req.URL)
	if err != nil {
		if obs.stopRequested() || ctx.Err() != nil {
			return Stopped()
		}
		log.Debug("request failed", "error", err)
		return Failed(err)
	}
	defer func() { _ = resp.Body.Close() }()

	total, sizeKnown := contentLength(resp)
	if !sizeKnown {
		obs.unknownSize()
	}
	log.Debug("response received", "status", resp.StatusCode, "content_length", total, "size_known", sizeKnown)

	out, err := e.fs.Create(path)
	if err != nil {
		return Failed(fmt.Errorf("could not create %s: %w: %w", path, pkgerrors.ErrFilesystem, err))
	}

	buf := make([]byte, e.chunkSize)
	var written int64
	for {
		n, readErr := readChunk(resp.Body, buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			e.discard(out, path)
			if obs.stopRequested() || ctx.Err() != nil {
				return Stopped()
			}
			return Failed(pkgerrors.Wrap(readErr, "failed to read response body"))
		}
		if n > 0 {
			// The in-flight chunk is dropped when a stop was requested while it was being read.
			if obs.stopRequested() || ctx.Err() != nil {
				e.discard(out, path)
				log.Debug("transfer stopped", "bytes_written", written)
				return Stopped()
			}
			if _, err := out.Write(buf[:n]); err != nil {
				e.discard(out, path)
				return Failed(fmt.Errorf("could not write %s: %w: %w", path, pkgerrors.ErrFilesystem, err))
			}
			written += int64(n)
			if sizeKnown {
				obs.progress(fraction(written, total))
			}
		}
		if readErr != nil {
			break
		}
	}

	if err := out.Close(); err != nil {
		e.removePartial(path)
		return Failed(fmt.Errorf("could not close %s: %w: %w", path, pkgerrors.ErrFilesystem, err))
	}

	log.Debug("transfer completed", "bytes_written", written)
	return Completed(path, total, sizeKnown, written)
}

func (e *Engine) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "download failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %d %s for url %s", pkgerrors.ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}
	return resp, nil
}

// discard closes out and removes the partially written file.
func (e *Engine) discard(out io.Closer, path string) {
	_ = out.Close()
	e.removePartial(path)
}

func (e *Engine) removePartial(path string) {
	if err := e.fs.Remove(path); err != nil {
		logger.Warn("failed to remove partial file", logger.Fields{"path": path, "error": err.Error()})
	}
}

// readChunk fills buf from r unless the stream ends or fails first. Unlike io.ReadFull it
// returns the reader's own error, so a truncated body (io.ErrUnexpectedEOF from the
// transport) is not mistaken for a short final chunk.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		nn, err := r.Read(buf[n:])
		n += nn
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// contentLength returns the declared body size. Only positive numeric values count as known.
func contentLength(resp *http.Response) (int64, bool) {
	if resp.ContentLength > 0 {
		return resp.ContentLength, true
	}
	header := resp.Header.Get("Content-Length")
	if header == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(header, 10, 63)
	if err != nil || n == 0 {
		return 0, false
	}
	return int64(n), true
}

func fraction(written, total int64) float64 {
	if written >= total {
		return 1.0
	}
	return float64(written) / float64(total)
}
