package anystorage

import (
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"go.uber.org/multierr"
)

const (
	mimeMultipartRecord = "application/multipart-record"
	minPages            = 2
	// Some credential stores cap secret length; larger records are split
	// into pages behind a multipart marker.
	maxRecordLength = 2048
)

var _ Storage = (*SecureStorage)(nil)

// SecureStorage keeps encoded records in the OS secure-credential store,
// scoped by a service identifier and an optional access group.
type SecureStorage struct {
	keyring     keyring.Keyring
	codec       Codec
	service     string
	accessGroup string
	mu          sync.RWMutex
}

// scope is the credential-store service this instance owns. The
// underlying keyring keys records by service only, so the access group
// is folded into it.
func (s *SecureStorage) scope() string {
	if s.accessGroup == "" {
		return s.service
	}

	return s.service + "#" + s.accessGroup
}

func (s *SecureStorage) read(key string) (string, bool, error) {
	scope := s.scope()

	d, err := s.keyring.Get(scope, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}

		return "", false, &SecureStoreError{Op: "read", Status: err}
	}

	if strings.HasPrefix(d, mimeMultipartRecord) {
		pages, err := multipartPages(d)
		if err != nil {
			return "", false, err
		}

		var sb strings.Builder

		for i := 1; i <= pages; i++ {
			p, err := s.keyring.Get(scope, formatPage(key, i))
			if err != nil {
				return "", false, &SecureStoreError{Op: fmt.Sprintf("read part #%d", i), Status: err}
			}

			sb.WriteString(p)
		}

		d = sb.String()
	}

	return d, true, nil
}

func (s *SecureStorage) write(key string, data string) error {
	if err := s.keyring.Set(s.scope(), key, data); err != nil {
		return &SecureStoreError{Op: "write", Status: err}
	}

	return nil
}

func (s *SecureStorage) writeMultipart(key string, data string) error {
	scope := s.scope()

	var err error

	length := len(data)

	pages := length / maxRecordLength
	if length%maxRecordLength != 0 {
		pages++
	}

	page := 0

	defer func() {
		if err != nil {
			for i := 1; i < page; i++ {
				_ = s.keyring.Delete(scope, formatPage(key, i)) //nolint: errcheck
			}
		}
	}()

	for page = 1; page <= pages; page++ {
		end := page * maxRecordLength
		if end > length {
			end = length
		}

		part := data[(page-1)*maxRecordLength : end]

		if wErr := s.keyring.Set(scope, formatPage(key, page), part); wErr != nil {
			err = &SecureStoreError{Op: fmt.Sprintf("write part #%d", page), Status: wErr}

			return err
		}
	}

	header := mime.FormatMediaType(mimeMultipartRecord, map[string]string{"pages": strconv.Itoa(pages)})

	if wErr := s.keyring.Set(scope, key, header); wErr != nil {
		err = &SecureStoreError{Op: "write", Status: wErr}

		return err
	}

	return nil
}

// delete drops the record at key, including its pages when it is
// multipart. It returns keyring.ErrNotFound untouched so callers decide
// whether absence matters.
func (s *SecureStorage) delete(key string) error {
	scope := s.scope()

	d, err := s.keyring.Get(scope, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return err
		}

		return &SecureStoreError{Op: "read", Status: err}
	}

	err = nil
	deleteMainKey := true

	if strings.HasPrefix(d, mimeMultipartRecord) {
		pages, pErr := multipartPages(d)
		if pErr != nil {
			return pErr
		}

		deleteMainKey = false

		for i := 1; i <= pages; i++ {
			if dErr := s.keyring.Delete(scope, formatPage(key, i)); dErr != nil {
				err = &SecureStoreError{Op: fmt.Sprintf("delete part #%d", i), Status: dErr}

				break
			}

			deleteMainKey = true
		}
	}

	if !deleteMainKey {
		return err
	}

	if dErr := s.keyring.Delete(scope, key); dErr != nil {
		err = multierr.Combine(err, &SecureStoreError{Op: "delete", Status: dErr})
	}

	return err
}

// Set encodes value and upserts it at key. Any existing record,
// multipart or not, is dropped first, so repeated writes to one key
// never report a duplicate.
func (s *SecureStorage) Set(key string, value any) error {
	d, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncodingFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.delete(key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}

	data := string(d)

	if len(data) <= maxRecordLength {
		return s.write(key, data)
	}

	return s.writeMultipart(key, data)
}

// Get decodes the record at key into dest. A not-found status is
// absence; any other status surfaces as a *SecureStoreError carrying it
// verbatim.
func (s *SecureStorage) Get(key string, dest any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, found, err := s.read(key)
	if err != nil || !found {
		return false, err
	}

	if err := s.codec.Unmarshal([]byte(d), dest); err != nil {
		return false, fmt.Errorf("%w: %s", ErrDecodingFailed, err)
	}

	return true, nil
}

// Remove deletes the record at key. Not-found statuses count as success.
func (s *SecureStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.delete(key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}

	return nil
}

// Contains probes for a record at key without decoding it.
func (s *SecureStorage) Contains(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.keyring.Get(s.scope(), key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return false, nil
		}

		return false, &SecureStoreError{Op: "read", Status: err}
	}

	return true, nil
}

// Clear removes every record scoped to this service and access group.
// Nothing to delete counts as success.
func (s *SecureStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.keyring.DeleteAll(s.scope()); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &SecureStoreError{Op: "delete all", Status: err}
	}

	return nil
}

// NewSecureStorage creates a storage over the OS secure-credential
// store. The service defaults to the application identity.
func NewSecureStorage(opts ...SecureStorageOption) *SecureStorage {
	s := &SecureStorage{
		keyring: defaultKeyring{},
		codec:   JSONCodec{},
		service: applicationIdentity(),
	}

	for _, opt := range opts {
		opt.applySecureStorageOption(s)
	}

	return s
}

// SecureStorageOption is an option to configure SecureStorage.
type SecureStorageOption interface {
	applySecureStorageOption(s *SecureStorage)
}

type secureStorageOptionFunc func(s *SecureStorage)

func (f secureStorageOptionFunc) applySecureStorageOption(s *SecureStorage) {
	f(s)
}

// WithKeyring sets the keyring to use.
func WithKeyring(k keyring.Keyring) SecureStorageOption {
	return secureStorageOptionFunc(func(s *SecureStorage) {
		s.keyring = k
	})
}

// WithService sets the service identifier the records are scoped to.
func WithService(service string) SecureStorageOption {
	return secureStorageOptionFunc(func(s *SecureStorage) {
		s.service = service
	})
}

// WithAccessGroup scopes the records to an access group shared with
// other applications using the same service and group.
func WithAccessGroup(group string) SecureStorageOption {
	return secureStorageOptionFunc(func(s *SecureStorage) {
		s.accessGroup = group
	})
}

func formatPage(key string, page int) string {
	return fmt.Sprintf("%s-%04d", key, page)
}

func multipartPages(header string) (int, error) {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed multipart record: %s", ErrDecodingFailed, err)
	}

	pages, err := strconv.Atoi(params["pages"])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed multipart record: %s", ErrDecodingFailed, err)
	}

	if pages < minPages {
		return 0, fmt.Errorf("%w: invalid multipart record pages: %d", ErrDecodingFailed, pages)
	}

	return pages, nil
}

var _ keyring.Keyring = (*defaultKeyring)(nil)

type defaultKeyring struct{}

func (defaultKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password) //nolint: wrapcheck
}

func (defaultKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user) //nolint: wrapcheck
}

func (defaultKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user) //nolint: wrapcheck
}

func (defaultKeyring) DeleteAll(service string) error {
	return keyring.DeleteAll(service)
}
