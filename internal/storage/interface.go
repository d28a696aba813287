package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when an input object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines the object operations used for dataset inputs.
// Keys are relative to the storage's current bucket.
type ObjectStorage interface {
	// Download opens an object for reading. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// BucketSelector returns a view of the same client bound to another bucket.
type BucketSelector interface {
	WithBucket(bucket string) ObjectStorage
}
