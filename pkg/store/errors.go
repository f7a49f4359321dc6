// Package store defines common error types used by all profile store backends.
package store

import "errors"

// Common store errors
var (
	// ErrNotFound indicates the requested key is absent from the store.
	// This is expected behavior for keys that were never written or were
	// deleted, and callers usually branch on it rather than fail.
	//
	// Example usage:
	//
	//	value, err := st.Get(ctx, store.HardwareIDKey)
	//	if errors.Is(err, store.ErrNotFound) {
	//	    // First use, generate and persist
	//	} else if err != nil {
	//	    // Backend failure
	//	}
	ErrNotFound = errors.New("store: key not found")
)
