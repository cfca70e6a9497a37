package store

import (
	"errors"
	"fmt"
)

// ErrIndexNotFound signals that no index exists at the configured location.
// Callers use it to distinguish "empty corpus" from a broken store.
var ErrIndexNotFound = errors.New("vector index not found")

// ErrIndexUnavailable signals that the index exists but cannot be reached.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// IndexWriteError wraps a storage failure during Upsert. The whole batch is
// considered failed when it occurs.
type IndexWriteError struct {
	Err error
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("index write failed: %v", e.Err)
}

func (e *IndexWriteError) Unwrap() error {
	return e.Err
}
