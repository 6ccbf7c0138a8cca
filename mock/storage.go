package mock

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"go.nhat.io/anystorage"
)

var _ anystorage.Storage = (*Storage)(nil)

// Storage is an anystorage.Storage mock.
type Storage struct {
	mock.Mock
}

// Set satisfies anystorage.Storage.
func (s *Storage) Set(key string, value any) error {
	return s.Called(key, value).Error(0)
}

// Get satisfies anystorage.Storage.
func (s *Storage) Get(key string, dest any) (bool, error) {
	ret := s.Called(key, dest)

	return ret.Bool(0), ret.Error(1)
}

// Remove satisfies anystorage.Storage.
func (s *Storage) Remove(key string) error {
	return s.Called(key).Error(0)
}

// Contains satisfies anystorage.Storage.
func (s *Storage) Contains(key string) (bool, error) {
	ret := s.Called(key)

	return ret.Bool(0), ret.Error(1)
}

// Clear satisfies anystorage.Storage.
func (s *Storage) Clear() error {
	return s.Called().Error(0)
}

// NewStorage creates a Storage mock that asserts its expectations at
// cleanup.
func NewStorage(tb testing.TB) *Storage {
	tb.Helper()

	s := &Storage{}
	s.Mock.Test(tb)

	tb.Cleanup(func() {
		s.AssertExpectations(tb)
	})

	return s
}

// StorageMocker is Storage mocker.
type StorageMocker func(tb testing.TB) *Storage

// MockStorage creates Storage mock with cleanup to ensure all the expectations are met.
func MockStorage(mocks ...func(s *Storage)) StorageMocker { //nolint: revive
	return func(tb testing.TB) *Storage {
		tb.Helper()

		s := NewStorage(tb)

		for _, m := range mocks {
			m(s)
		}

		return s
	}
}
