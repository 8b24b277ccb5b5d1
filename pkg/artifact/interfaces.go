//go:generate mockgen -destination=mocks/artifact.go . Store

package artifact

import "context"

// Store is the lifecycle surface the session uses for downloaded files.
type Store interface {
	// DeleteIfExists removes the artifact file. A missing file is success.
	DeleteIfExists(path string) error

	// Identify reports the archive or compression format of the file by its
	// extension (".zip", ".tar.gz", ...), or "" for plain files.
	Identify(ctx context.Context, path string) (string, error)
}
