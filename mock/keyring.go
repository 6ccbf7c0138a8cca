// Package mock provides mocks for the storage interfaces.
package mock

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/zalando/go-keyring"
)

// Anything matches any argument in an expectation.
const Anything = mock.Anything

var _ keyring.Keyring = (*Keyring)(nil)

// Keyring is a keyring.Keyring mock.
type Keyring struct {
	mock.Mock
}

// Set satisfies keyring.Keyring.
func (k *Keyring) Set(service, user, password string) error {
	return k.Called(service, user, password).Error(0)
}

// Get satisfies keyring.Keyring.
func (k *Keyring) Get(service, user string) (string, error) {
	ret := k.Called(service, user)

	return ret.String(0), ret.Error(1)
}

// Delete satisfies keyring.Keyring.
func (k *Keyring) Delete(service, user string) error {
	return k.Called(service, user).Error(0)
}

// DeleteAll satisfies keyring.Keyring.
func (k *Keyring) DeleteAll(service string) error {
	return k.Called(service).Error(0)
}

// NewKeyring creates a Keyring mock that asserts its expectations at
// cleanup.
func NewKeyring(tb testing.TB) *Keyring {
	tb.Helper()

	k := &Keyring{}
	k.Mock.Test(tb)

	tb.Cleanup(func() {
		k.AssertExpectations(tb)
	})

	return k
}

// KeyringMocker is Keyring mocker.
type KeyringMocker func(tb testing.TB) *Keyring

// NopKeyring is no mock Keyring.
var NopKeyring = MockKeyring()

// MockKeyring creates Keyring mock with cleanup to ensure all the expectations are met.
func MockKeyring(mocks ...func(k *Keyring)) KeyringMocker { //nolint: revive
	return func(tb testing.TB) *Keyring {
		tb.Helper()

		k := NewKeyring(tb)

		for _, m := range mocks {
			m(k)
		}

		return k
	}
}
