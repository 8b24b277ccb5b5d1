// Package handoff delivers a downloaded artifact to its consumer. Destinations are
// gocloud.dev bucket URLs, so a local directory and an object store look the same.
package handoff

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/tempfetch/internal/logger"
	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/glorpus-work/tempfetch/pkg/fsutil"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// BucketURL turns destination into a bucket URL. Values that already carry a scheme
// are returned unchanged; anything else is taken as a local directory, created if
// needed, and expressed as a file:// URL.
func BucketURL(destination string) (string, error) {
	if destination == "" {
		return "", fmt.Errorf("destination cannot be empty")
	}
	if strings.Contains(destination, "://") {
		return destination, nil
	}

	abs, err := filepath.Abs(destination)
	if err != nil {
		return "", fmt.Errorf("invalid destination %s: %w", destination, err)
	}
	if err := fsutil.EnsureDir(abs); err != nil {
		return "", fmt.Errorf("failed to create destination %s: %w", abs, err)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// Deliver copies the file at srcPath into the bucket named by destination under key.
// An empty key uses the file's base name. The object is fully written and closed
// when Deliver returns nil, which is the point at which the source may be deleted.
func Deliver(ctx context.Context, destination, key, srcPath string) (int64, error) {
	bucketURL, err := BucketURL(destination)
	if err != nil {
		return 0, errors.Wrap(errors.ErrHandoff, err.Error())
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrHandoff, "open bucket %s: %v", bucketURL, err)
	}
	defer func() { _ = bucket.Close() }()

	if key == "" {
		key = filepath.Base(srcPath)
	}

	n, err := DeliverToBucket(ctx, bucket, key, srcPath)
	if err != nil {
		return n, err
	}

	logger.Debug("Delivered artifact", logger.Fields{
		"destination": bucketURL,
		"key":         key,
		"bytes":       n,
	})
	return n, nil
}

// DeliverToBucket copies srcPath into an already opened bucket.
func DeliverToBucket(ctx context.Context, bucket *blob.Bucket, key, srcPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrHandoff, "open %s: %v", srcPath, err)
	}
	defer func() { _ = src.Close() }()

	opts := &blob.WriterOptions{ContentType: contentType(srcPath)}
	w, err := bucket.NewWriter(ctx, key, opts)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrHandoff, "create object %s: %v", key, err)
	}

	n, err := io.Copy(w, src)
	if err != nil {
		_ = w.Close()
		return n, errors.Wrapf(errors.ErrHandoff, "write object %s: %v", key, err)
	}

	if err := w.Close(); err != nil {
		return n, errors.Wrapf(errors.ErrHandoff, "flush object %s: %v", key, err)
	}
	return n, nil
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
