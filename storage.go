// Package anystorage provides a unified key/value persistence abstraction
// with interchangeable in-memory, file, preference, and secure-credential
// backends behind a single contract.
package anystorage

import (
	"os"
	"path/filepath"
)

// Storage stores and retrieves encoded values under string keys.
//
// Implementations serialize access per instance: concurrent calls against
// one instance are processed one at a time and never corrupt its state.
// Two instances pointed at the same external resource (for example two
// FileStorage instances over one directory) are not coordinated.
type Storage interface {
	// Set encodes value and writes it at key, fully replacing any prior record.
	Set(key string, value any) error
	// Get decodes the record at key into dest, which must be a pointer.
	// It reports false with a nil error when no record exists.
	Get(key string, dest any) (bool, error)
	// Remove deletes the record at key. Removing an absent key is a no-op.
	Remove(key string) error
	// Contains reports whether a record exists at key without decoding it.
	Contains(key string) (bool, error)
	// Clear deletes every record owned by this instance, leaving records
	// outside its scope untouched.
	Clear() error
}

// Key is a typed key: the type parameter pins the value type expected at a
// call site, the string is the identifier actually stored. It carries no
// behavior beyond the identifier.
type Key[T any] string

// String returns the raw identifier.
func (k Key[T]) String() string {
	return string(k)
}

// Set stores value at the typed key.
func Set[T any](s Storage, key Key[T], value T) error {
	return s.Set(string(key), value)
}

// Get retrieves the value at the typed key. It reports false with a zero
// value when no record exists.
func Get[T any](s Storage, key Key[T]) (T, bool, error) {
	var value T

	found, err := s.Get(string(key), &value)
	if err != nil || !found {
		var zero T

		return zero, found, err
	}

	return value, true, nil
}

// Remove deletes the record at the typed key.
func Remove[T any](s Storage, key Key[T]) error {
	return s.Remove(string(key))
}

// Contains reports whether a record exists at the typed key.
func Contains[T any](s Storage, key Key[T]) (bool, error) {
	return s.Contains(string(key))
}

// applicationIdentity is the default scope for backends that were not
// given an explicit one.
func applicationIdentity() string {
	return filepath.Base(os.Args[0])
}
