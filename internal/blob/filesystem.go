// Package blob stores audio blobs on the local filesystem.
//
// Blobs live under a single root directory, one sub-directory per bucket.
// Callers only ever see relative paths such as "uploads/<uuid>.wav", which
// is what the database rows keep.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/dustin/go-humanize"
)

// ErrRootEmpty is returned when no storage root is configured.
var ErrRootEmpty = errors.New("storage root cannot be empty")

// FilesystemStore implements core.BlobStore on a local directory tree.
type FilesystemStore struct {
	root string
	log  *logger.Logger
}

// NewFilesystemStore returns a store rooted at root. Bucket directories are
// created on first write.
func NewFilesystemStore(root string, log *logger.Logger) (*FilesystemStore, error) {
	if root == "" {
		return nil, ErrRootEmpty
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not resolve absolute path for %q: %w", root, err)
	}

	return &FilesystemStore{
		root: absRoot,
		log:  log,
	}, nil
}

// Root returns the absolute storage root.
func (f *FilesystemStore) Root() string {
	return f.root
}

// Store writes data under a new random name in bucket and returns its relative path.
func (f *FilesystemStore) Store(_ context.Context, data []byte, bucket core.Bucket, ext string) (string, error) {
	relativePath, err := core.NewBlobPath(bucket, ext)
	if err != nil {
		return "", err
	}

	dirErr := EnsureDir(filepath.Join(f.root, string(bucket)))
	if dirErr != nil {
		return "", dirErr
	}

	writeErr := os.WriteFile(f.fullPath(relativePath), data, filePermissions)
	if writeErr != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", relativePath, writeErr)
	}

	f.log.Info("Stored %s blob %s (%s)", bucket, relativePath, humanize.Bytes(uint64(len(data))))

	return relativePath, nil
}

// Read returns the bytes stored at relativePath.
func (f *FilesystemStore) Read(_ context.Context, relativePath string) ([]byte, error) {
	cleaned, err := core.CleanBlobPath(relativePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.fullPath(cleaned))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrBlobNotFound, cleaned)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", cleaned, err)
	}

	return data, nil
}

// Delete removes the blob at relativePath. A missing blob is not an error.
func (f *FilesystemStore) Delete(_ context.Context, relativePath string) error {
	cleaned, err := core.CleanBlobPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(f.fullPath(cleaned))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", cleaned, err)
	}

	return nil
}

func (f *FilesystemStore) fullPath(relativePath string) string {
	return filepath.Join(f.root, filepath.FromSlash(relativePath))
}
