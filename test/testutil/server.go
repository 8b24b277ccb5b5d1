package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/tempfetch/internal/logger"
)

// File is a resource served by the test server.
type File struct {
	Data []byte
	// HideLength serves the body chunked, without a Content-Length header.
	HideLength bool
	// Status overrides the 200 response code.
	Status int
	// Delay is applied between 32 KiB writes so a transfer can be interrupted.
	Delay time.Duration
}

// NewTestServer starts an HTTP server serving files by path and stops it when the test ends.
func NewTestServer(t *testing.T, files map[string]File) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if f.Status != 0 && f.Status != http.StatusOK {
			http.Error(w, http.StatusText(f.Status), f.Status)
			return
		}
		if !f.HideLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
		}
		w.WriteHeader(http.StatusOK)

		const step = 32 * 1024
		flusher, _ := w.(http.Flusher)
		for off := 0; off < len(f.Data); off += step {
			end := min(off+step, len(f.Data))
			if _, err := w.Write(f.Data[off:end]); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			if f.Delay > 0 {
				time.Sleep(f.Delay)
			}
		}
	}))
	t.Cleanup(srv.Close)

	logger.Debugf("Test server listening on %s", srv.URL)
	return srv
}

// SetupTestConfig writes a config file that downloads into downloadDir. Extra YAML
// lines are appended verbatim.
func SetupTestConfig(t *testing.T, downloadDir string, extra ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("settings:\n")
	fmt.Fprintf(&b, "  download_dir: %q\n", downloadDir)
	b.WriteString("  log_level: debug\n")
	for _, line := range extra {
		b.WriteString(line)
		b.WriteString("\n")
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	return configPath
}
