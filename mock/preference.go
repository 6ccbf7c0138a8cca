package mock

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"go.nhat.io/anystorage"
)

var _ anystorage.PreferenceDomain = (*PreferenceDomain)(nil)

// PreferenceDomain is an anystorage.PreferenceDomain mock.
type PreferenceDomain struct {
	mock.Mock
}

// Open satisfies anystorage.PreferenceDomain.
func (d *PreferenceDomain) Open(domain string) error {
	return d.Called(domain).Error(0)
}

// Read satisfies anystorage.PreferenceDomain.
func (d *PreferenceDomain) Read(domain string, key string) ([]byte, error) {
	ret := d.Called(domain, key)

	data := ret.Get(0)
	if data == nil {
		return nil, ret.Error(1)
	}

	return data.([]byte), ret.Error(1) //nolint: errcheck,forcetypeassert
}

// Write satisfies anystorage.PreferenceDomain.
func (d *PreferenceDomain) Write(domain string, key string, data []byte) error {
	return d.Called(domain, key, data).Error(0)
}

// Remove satisfies anystorage.PreferenceDomain.
func (d *PreferenceDomain) Remove(domain string, key string) error {
	return d.Called(domain, key).Error(0)
}

// RemoveDomain satisfies anystorage.PreferenceDomain.
func (d *PreferenceDomain) RemoveDomain(domain string) error {
	return d.Called(domain).Error(0)
}

// NewPreferenceDomain creates a PreferenceDomain mock that asserts its
// expectations at cleanup.
func NewPreferenceDomain(tb testing.TB) *PreferenceDomain {
	tb.Helper()

	d := &PreferenceDomain{}
	d.Mock.Test(tb)

	tb.Cleanup(func() {
		d.AssertExpectations(tb)
	})

	return d
}

// PreferenceDomainMocker is PreferenceDomain mocker.
type PreferenceDomainMocker func(tb testing.TB) *PreferenceDomain

// NopPreferenceDomain is no mock PreferenceDomain.
var NopPreferenceDomain = MockPreferenceDomain()

// MockPreferenceDomain creates PreferenceDomain mock with cleanup to ensure all the expectations are met.
func MockPreferenceDomain(mocks ...func(d *PreferenceDomain)) PreferenceDomainMocker { //nolint: revive
	return func(tb testing.TB) *PreferenceDomain {
		tb.Helper()

		d := NewPreferenceDomain(tb)

		for _, m := range mocks {
			m(d)
		}

		return d
	}
}
