package anystorage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.nhat.io/anystorage"
	"go.nhat.io/anystorage/mock"
)

func TestFileDomain_ReadWriteRemove(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	_, err = d.Read("settings", "key")
	require.ErrorIs(t, err, anystorage.ErrPreferenceNotFound)

	require.NoError(t, d.Write("settings", "key", []byte("value")))

	actual, err := d.Read("settings", "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), actual)

	require.NoError(t, d.Remove("settings", "key"))
	require.NoError(t, d.Remove("settings", "key"))

	_, err = d.Read("settings", "key")
	require.ErrorIs(t, err, anystorage.ErrPreferenceNotFound)
}

func TestFileDomain_Open_InvalidNames(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		require.ErrorIs(t, d.Open(name), anystorage.ErrStorageUnavailable, "name %q", name)
	}

	require.NoError(t, d.Open("settings"))
}

func TestFileDomain_RemoveDomain(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	d, err := anystorage.NewFileDomain(root)
	require.NoError(t, err)

	require.NoError(t, d.Write("settings", "key", []byte("value")))

	_, err = os.Stat(filepath.Join(root, "settings.yaml"))
	require.NoError(t, err)

	require.NoError(t, d.RemoveDomain("settings"))
	require.NoError(t, d.RemoveDomain("settings"))

	_, err = os.Stat(filepath.Join(root, "settings.yaml"))
	require.True(t, os.IsNotExist(err))
}

func TestPreferenceStorage_RoundTrip(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	s, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("settings"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	assert.Equal(t, "settings", s.Domain())

	expected := account{Name: "john", Rating: 9}

	require.NoError(t, s.Set("account", expected))

	var actual account

	found, err := s.Get("account", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestPreferenceStorage_SuiteFallback(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	s, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("bad/suite"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(os.Args[0]), s.Domain())

	require.NoError(t, s.Set("key", "value"))

	var actual string

	found, err := s.Get("key", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "value", actual)
}

func TestPreferenceStorage_Clear_RemovesOnlyOwnSuite(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	s1, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("one"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	s2, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("two"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	require.NoError(t, s1.Set("key", "one"))
	require.NoError(t, s2.Set("key", "two"))

	require.NoError(t, s1.Clear())

	found, err := s1.Contains("key")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = s2.Contains("key")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPreferenceStorage_Contains_NoDecode(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	s, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("settings"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	// A record that is not decodable is still a record.
	require.NoError(t, d.Write("settings", "key", []byte("{{")))

	found, err := s.Contains("key")
	require.NoError(t, err)
	assert.True(t, found)

	var actual string

	_, err = s.Get("key", &actual)
	require.ErrorIs(t, err, anystorage.ErrDecodingFailed)
}

func TestPreferenceStorage_Get_UnclassifiedDomainFailure(t *testing.T) {
	t.Parallel()

	d := mock.MockPreferenceDomain(func(d *mock.PreferenceDomain) {
		d.On("Open", "settings").Return(nil)

		d.On("Read", "settings", "key").
			Return(nil, assert.AnError)
	})(t)

	s, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("settings"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	var actual string

	_, err = s.Get("key", &actual)
	require.ErrorIs(t, err, anystorage.ErrUnknown)
	require.ErrorContains(t, err, assert.AnError.Error())
}

func TestPreferenceStorage_Set_EncodingFailure(t *testing.T) {
	t.Parallel()

	d, err := anystorage.NewFileDomain(t.TempDir())
	require.NoError(t, err)

	s, err := anystorage.NewPreferenceStorage(
		anystorage.WithSuite("settings"),
		anystorage.WithPreferenceDomain(d),
	)
	require.NoError(t, err)

	err = s.Set("key", make(chan struct{}))
	require.ErrorIs(t, err, anystorage.ErrEncodingFailed)
}
