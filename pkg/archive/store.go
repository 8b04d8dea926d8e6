package archive

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("archive: object not found")

// Object is a stored blob with its content type.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Store is a minimal blob store keyed by forward-slash paths.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object stored under key, or an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, key string) (*Object, error)

	// Delete removes the object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
