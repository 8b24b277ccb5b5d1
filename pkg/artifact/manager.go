// Package artifact governs the downloaded file once a transfer completes: describing it,
// and deleting it exactly once after the caller has consumed it.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/tempfetch/pkg/fsutil"
	"github.com/mholt/archives"
)

// Manager implements Store on the host filesystem.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// DeleteIfExists removes path. Deleting a path that does not exist is a no-op success,
// which guards against the deletion cycle running twice for the same file.
func (m *Manager) DeleteIfExists(path string) error {
	return fsutil.DeleteIfExists(path)
}

// Identify detects archive and compression formats from the file name and header bytes.
func (m *Manager) Identify(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, filepath.Base(path), f)
	if errors.Is(err, archives.NoMatch) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to identify artifact %s: %w", path, err)
	}
	return format.Extension(), nil
}

var _ Store = (*Manager)(nil)
