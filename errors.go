package anystorage

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all backends. Operations wrap these with
// detail, so callers classify failures with errors.Is.
var (
	// ErrEncodingFailed indicates a value could not be serialized.
	ErrEncodingFailed = errors.New("encoding failed")
	// ErrDecodingFailed indicates a record exists but does not deserialize
	// into the requested type. It is distinct from absence, which Get
	// reports as (false, nil).
	ErrDecodingFailed = errors.New("decoding failed")
	// ErrFileOperationFailed indicates a filesystem failure.
	ErrFileOperationFailed = errors.New("file operation failed")
	// ErrSecureStore indicates a secure-store operation failed. The
	// returned error is a *SecureStoreError carrying the native status.
	ErrSecureStore = errors.New("secure store error")
	// ErrStorageUnavailable indicates a requested storage location could
	// not be resolved at construction time.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnknown classifies failures that fit no other class.
	ErrUnknown = errors.New("unknown storage error")
)

// SecureStoreError reports a failed secure-store operation.
type SecureStoreError struct {
	// Op is the operation that failed.
	Op string
	// Status is the status reported by the credential store, unmodified.
	Status error
}

func (e *SecureStoreError) Error() string {
	return fmt.Sprintf("secure store error: %s: %s", e.Op, e.Status)
}

// Is matches ErrSecureStore.
func (e *SecureStoreError) Is(target error) bool {
	return target == ErrSecureStore
}

// Unwrap returns the native status.
func (e *SecureStoreError) Unwrap() error {
	return e.Status
}
