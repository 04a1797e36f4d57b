// Package objectstore provides a NATS-based implementation of the core.BlobStore interface.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/book-expert/voice-clone/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsObjectStore implements core.BlobStore using a NATS JetStream object
// store bucket. Relative blob paths are used verbatim as object names.
type NatsObjectStore struct {
	bucket string
	store  nats.ObjectStore
}

// New creates the object store bucket, or binds to it when it already exists.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: "Reference and generated audio for the voice clone service.",
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Store uploads data under a new random name in bucket and returns its relative path.
func (n *NatsObjectStore) Store(_ context.Context, data []byte, bucket core.Bucket, ext string) (string, error) {
	relativePath, err := core.NewBlobPath(bucket, ext)
	if err != nil {
		return "", err
	}

	_, err = n.store.Put(&nats.ObjectMeta{
		Name:        relativePath,
		Description: "",
		Headers:     nil,
		Metadata:    map[string]string{"bucket": string(bucket)},
		Opts:        nil,
	}, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to put object '%s' to bucket '%s': %w", relativePath, n.bucket, err)
	}

	return relativePath, nil
}

// Read downloads the object stored under relativePath.
func (n *NatsObjectStore) Read(_ context.Context, relativePath string) ([]byte, error) {
	cleaned, err := core.CleanBlobPath(relativePath)
	if err != nil {
		return nil, err
	}

	obj, err := n.store.Get(cleaned)
	if errors.Is(err, nats.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrBlobNotFound, cleaned)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", cleaned, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", cleaned, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", cleaned, closeErr)
	}

	return data, nil
}

// Delete removes the object stored under relativePath. A missing object is not an error.
func (n *NatsObjectStore) Delete(_ context.Context, relativePath string) error {
	cleaned, err := core.CleanBlobPath(relativePath)
	if err != nil {
		return err
	}

	err = n.store.Delete(cleaned)
	if err != nil && !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", cleaned, n.bucket, err)
	}

	return nil
}
