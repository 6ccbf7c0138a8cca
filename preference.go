package anystorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrPreferenceNotFound is returned by a PreferenceDomain when a key has
// no value in a domain.
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceDomain is the preference-domain API consumed by
// PreferenceStorage. FileDomain is the default realization; callers may
// plug in an OS-native one.
type PreferenceDomain interface {
	// Open prepares a named domain for use. A non-nil error means the
	// domain cannot be used.
	Open(domain string) error
	// Read returns the blob stored under key in domain. It returns
	// ErrPreferenceNotFound when no value exists.
	Read(domain string, key string) ([]byte, error)
	// Write stores data under key in domain, creating the domain if needed.
	Write(domain string, key string, data []byte) error
	// Remove deletes key from domain. Removing an absent key is a no-op.
	Remove(domain string, key string) error
	// RemoveDomain deletes the domain and everything in it.
	RemoveDomain(domain string) error
}

var _ Storage = (*PreferenceStorage)(nil)

// PreferenceStorage keeps encoded records in a preference domain. With a
// suite name it owns that named domain exclusively; without one it
// shares the default domain tied to the application identity, and Clear
// removes only that domain.
type PreferenceStorage struct {
	domain PreferenceDomain
	codec  Codec
	name   string
	mu     sync.RWMutex
}

// Domain returns the resolved domain name this instance writes to.
func (s *PreferenceStorage) Domain() string {
	return s.name
}

// Set encodes value and stores it under key in the domain.
func (s *PreferenceStorage) Set(key string, value any) error {
	d, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncodingFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.domain.Write(s.name, key, d); err != nil {
		return classifyDomainError(err)
	}

	return nil
}

// Get decodes the record under key into dest. It reports false when the
// domain has no value for key.
func (s *PreferenceStorage) Get(key string, dest any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.domain.Read(s.name, key)
	if err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			return false, nil
		}

		return false, classifyDomainError(err)
	}

	if err := s.codec.Unmarshal(d, dest); err != nil {
		return false, fmt.Errorf("%w: %s", ErrDecodingFailed, err)
	}

	return true, nil
}

// Remove deletes the record under key, if any.
func (s *PreferenceStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.domain.Remove(s.name, key); err != nil {
		return classifyDomainError(err)
	}

	return nil
}

// Contains probes for a record under key without decoding it.
func (s *PreferenceStorage) Contains(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.domain.Read(s.name, key); err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			return false, nil
		}

		return false, classifyDomainError(err)
	}

	return true, nil
}

// Clear removes the whole domain this instance owns: the named suite
// when one was given, otherwise the application's default domain.
func (s *PreferenceStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.domain.RemoveDomain(s.name); err != nil {
		return classifyDomainError(err)
	}

	return nil
}

// NewPreferenceStorage creates a preference-backed storage. A suite that
// cannot be opened does not fail construction: the storage falls back to
// the default domain.
func NewPreferenceStorage(opts ...PreferenceStorageOption) (*PreferenceStorage, error) {
	var suite string

	s := &PreferenceStorage{
		codec: JSONCodec{},
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case suiteOption:
			suite = string(o)
		default:
			opt.applyPreferenceStorageOption(s)
		}
	}

	if s.domain == nil {
		d, err := NewFileDomain("")
		if err != nil {
			return nil, err
		}

		s.domain = d
	}

	s.name = applicationIdentity()

	if suite != "" && s.domain.Open(suite) == nil {
		s.name = suite
	}

	return s, nil
}

// PreferenceStorageOption is an option to configure PreferenceStorage.
type PreferenceStorageOption interface {
	applyPreferenceStorageOption(s *PreferenceStorage)
}

type preferenceStorageOptionFunc func(s *PreferenceStorage)

func (f preferenceStorageOptionFunc) applyPreferenceStorageOption(s *PreferenceStorage) {
	f(s)
}

type suiteOption string

func (o suiteOption) applyPreferenceStorageOption(*PreferenceStorage) {}

// WithSuite scopes the storage to a named preference suite instead of
// the default domain. An unopenable suite falls back to the default
// domain silently.
func WithSuite(name string) PreferenceStorageOption {
	return suiteOption(name)
}

// WithPreferenceDomain sets the preference-domain implementation to use.
func WithPreferenceDomain(d PreferenceDomain) PreferenceStorageOption {
	return preferenceStorageOptionFunc(func(s *PreferenceStorage) {
		s.domain = d
	})
}

// classifyDomainError keeps already-classified failures as they are and
// wraps anything else a custom domain produced as ErrUnknown.
func classifyDomainError(err error) error {
	switch {
	case errors.Is(err, ErrFileOperationFailed),
		errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, ErrEncodingFailed),
		errors.Is(err, ErrDecodingFailed):
		return err
	}

	return fmt.Errorf("%w: %s", ErrUnknown, err)
}

var _ PreferenceDomain = (*FileDomain)(nil)

// FileDomain realizes PreferenceDomain with one YAML file per domain
// under a root directory. Every mutation rewrites the domain file
// atomically.
type FileDomain struct {
	root string
	mu   sync.Mutex
}

// NewFileDomain creates a FileDomain rooted at dir. An empty dir uses
// the user configuration directory; ErrStorageUnavailable is returned
// when it cannot be resolved.
func NewFileDomain(dir string) (*FileDomain, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%w: user config dir: %s", ErrStorageUnavailable, err)
		}

		dir = base
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %s", ErrFileOperationFailed, dir, err)
	}

	return &FileDomain{root: dir}, nil
}

// Open validates that domain names a usable domain file.
func (d *FileDomain) Open(domain string) error {
	if domain == "" || domain == "." || domain == ".." ||
		strings.ContainsAny(domain, `/\`) || domain != filepath.Base(domain) {
		return fmt.Errorf("%w: invalid domain name %q", ErrStorageUnavailable, domain)
	}

	return nil
}

// Read returns the blob stored under key in domain.
func (d *FileDomain) Read(domain string, key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	values, err := d.load(domain)
	if err != nil {
		return nil, err
	}

	v, ok := values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q in domain %q", ErrPreferenceNotFound, key, domain)
	}

	return v, nil
}

// Write stores data under key in domain.
func (d *FileDomain) Write(domain string, key string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	values, err := d.load(domain)
	if err != nil {
		return err
	}

	values[key] = data

	return d.store(domain, values)
}

// Remove deletes key from domain. An absent key is a no-op.
func (d *FileDomain) Remove(domain string, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	values, err := d.load(domain)
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)

	return d.store(domain, values)
}

// RemoveDomain deletes the whole domain file. A missing file is a no-op.
func (d *FileDomain) RemoveDomain(domain string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.path(domain)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	return nil
}

func (d *FileDomain) path(domain string) string {
	return filepath.Join(d.root, domain+".yaml")
}

func (d *FileDomain) load(domain string) (map[string][]byte, error) {
	raw, err := os.ReadFile(d.path(domain))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]byte{}, nil
		}

		return nil, fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	values := map[string][]byte{}

	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecodingFailed, err)
	}

	return values, nil
}

func (d *FileDomain) store(domain string, values map[string][]byte) error {
	raw, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncodingFailed, err)
	}

	tmp, err := os.CreateTemp(d.root, "."+domain+"-*")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	if err := os.Rename(tmpName, d.path(domain)); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	return nil
}
