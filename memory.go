package anystorage

import (
	"fmt"
	"sync"
)

var _ Storage = (*InMemoryStorage)(nil)

// InMemoryStorage keeps encoded records in a map. Data lives and dies
// with the instance, so it has no failure modes beyond encoding and
// decoding.
type InMemoryStorage struct {
	codec   Codec
	mu      sync.RWMutex
	records map[string][]byte
}

// Set encodes value and stores it at key, replacing any prior record.
func (s *InMemoryStorage) Set(key string, value any) error {
	d, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncodingFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = d

	return nil
}

// Get decodes the record at key into dest. It reports false when no
// record exists.
func (s *InMemoryStorage) Get(key string, dest any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.records[key]
	if !ok {
		return false, nil
	}

	if err := s.codec.Unmarshal(d, dest); err != nil {
		return false, fmt.Errorf("%w: %s", ErrDecodingFailed, err)
	}

	return true, nil
}

// Remove deletes the record at key, if any.
func (s *InMemoryStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)

	return nil
}

// Contains reports whether a record exists at key.
func (s *InMemoryStorage) Contains(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[key]

	return ok, nil
}

// Clear deletes every record held by this instance.
func (s *InMemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string][]byte)

	return nil
}

// NewInMemoryStorage creates a volatile in-memory storage.
func NewInMemoryStorage(opts ...InMemoryStorageOption) *InMemoryStorage {
	s := &InMemoryStorage{
		codec:   JSONCodec{},
		records: make(map[string][]byte),
	}

	for _, opt := range opts {
		opt.applyInMemoryStorageOption(s)
	}

	return s
}

// InMemoryStorageOption is an option to configure InMemoryStorage.
type InMemoryStorageOption interface {
	applyInMemoryStorageOption(s *InMemoryStorage)
}
