// Package core defines the contracts shared by the voice clone service components.
package core

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Bucket names a logical group of stored audio blobs.
type Bucket string

const (
	// BucketUploads holds reference clips uploaded for voices.
	BucketUploads Bucket = "uploads"
	// BucketGenerated holds audio returned by the provider.
	BucketGenerated Bucket = "generated"
)

// Blob path errors.
var (
	// ErrBlobNotFound is returned when a blob does not exist.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrInvalidBlobPath is returned for paths outside the known buckets.
	ErrInvalidBlobPath = errors.New("invalid blob path")
)

// BlobStore persists audio blobs under relative paths of the form "<bucket>/<name>".
type BlobStore interface {
	Store(ctx context.Context, data []byte, bucket Bucket, ext string) (string, error)
	Read(ctx context.Context, relativePath string) ([]byte, error)
	Delete(ctx context.Context, relativePath string) error
}

// SynthesisRequest carries one text-to-speech call to the provider.
type SynthesisRequest struct {
	Text           string
	Model          Model
	ReferenceAudio []byte
	ReferenceText  string
	// ReferenceID selects a voice model saved on the provider side.
	ReferenceID string
}

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, apiKey string, req SynthesisRequest) ([]byte, error)
}

// Notifier is told about every generation that was persisted.
type Notifier interface {
	GenerationCreated(ctx context.Context, generationID, audioPath string) error
}

// Valid reports whether b is one of the known buckets.
func (b Bucket) Valid() bool {
	return b == BucketUploads || b == BucketGenerated
}

// NewBlobPath returns a fresh random relative path inside bucket.
// ext may be given with or without the leading dot.
func NewBlobPath(bucket Bucket, ext string) (string, error) {
	if !bucket.Valid() {
		return "", fmt.Errorf("%w: unknown bucket %q", ErrInvalidBlobPath, bucket)
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return path.Join(string(bucket), uuid.NewString()+ext), nil
}

// CleanBlobPath validates a relative blob path and returns its canonical form.
func CleanBlobPath(relativePath string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimPrefix(relativePath, "/"), "\\", "/"))

	bucket, name, found := strings.Cut(cleaned, "/")
	if !found || name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidBlobPath, relativePath)
	}

	if !Bucket(bucket).Valid() {
		return "", fmt.Errorf("%w: unknown bucket in %q", ErrInvalidBlobPath, relativePath)
	}

	return cleaned, nil
}
