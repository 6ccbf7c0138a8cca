package anystorage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

const (
	defaultExtension = ".storage"
	// Path separators and reserved punctuation, replaced in filenames.
	unsafeKeyChars = `/\:*?"<>|`
)

var _ Storage = (*FileStorage)(nil)

// FileStorage stores one encoded record per file inside a directory.
//
// Keys are sanitized before use as filenames: path separators and
// reserved punctuation become underscores. Two keys that differ only in
// sanitized characters map to the same file; this is an accepted
// limitation, not detected or resolved.
type FileStorage struct {
	codec Codec
	dir   string
	ext   string
	mu    sync.RWMutex
}

// Dir returns the directory the records live in.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+s.ext)
}

// Set encodes value and writes it at key. The write is atomic: the
// record is staged in a temporary file and moved into place, so a crash
// mid-write never leaves a partial record.
func (s *FileStorage) Set(key string, value any) error {
	d, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncodingFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(s.path(key), d)
}

func (s *FileStorage) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".write-*")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	return nil
}

// Get decodes the record at key into dest. A missing file is absence,
// not an error.
func (s *FileStorage) Get(key string, dest any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	if err := s.codec.Unmarshal(d, dest); err != nil {
		return false, fmt.Errorf("%w: %s", ErrDecodingFailed, err)
	}

	return true, nil
}

// Remove deletes the record at key. A missing file is a no-op.
func (s *FileStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	return nil
}

// Contains reports whether a record file exists at key.
func (s *FileStorage) Contains(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	return true, nil
}

// Clear deletes every record file in the directory. Files without the
// configured extension are left untouched.
func (s *FileStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	var errs error

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrFileOperationFailed, err))
		}
	}

	return errs
}

// Keys lists the stored keys, re-derived from the record filenames.
// Keys that collided under sanitization appear once, under their
// sanitized spelling, so the result is not authoritative.
func (s *FileStorage) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	keys := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}

		keys = append(keys, strings.TrimSuffix(entry.Name(), s.ext))
	}

	return keys, nil
}

// Size returns the total size in bytes of all record files.
func (s *FileStorage) Size() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
	}

	var total int64

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrFileOperationFailed, err)
		}

		total += info.Size()
	}

	return total, nil
}

// NewFileStorage creates a file-backed storage rooted at dir, creating
// the directory and its parents if absent. An empty dir resolves to a
// per-application directory under the user configuration directory;
// ErrStorageUnavailable is returned when that location cannot be
// resolved.
func NewFileStorage(dir string, opts ...FileStorageOption) (*FileStorage, error) {
	s := &FileStorage{
		codec: JSONCodec{},
		dir:   dir,
		ext:   defaultExtension,
	}

	for _, opt := range opts {
		opt.applyFileStorageOption(s)
	}

	if s.dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%w: user config dir: %s", ErrStorageUnavailable, err)
		}

		s.dir = filepath.Join(base, applicationIdentity())
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %s", ErrFileOperationFailed, s.dir, err)
	}

	return s, nil
}

// FileStorageOption is an option to configure FileStorage.
type FileStorageOption interface {
	applyFileStorageOption(s *FileStorage)
}

type fileStorageOptionFunc func(s *FileStorage)

func (f fileStorageOptionFunc) applyFileStorageOption(s *FileStorage) {
	f(s)
}

// WithExtension sets the filename extension appended to every record.
func WithExtension(ext string) FileStorageOption {
	return fileStorageOptionFunc(func(s *FileStorage) {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		s.ext = ext
	})
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeKeyChars, r) {
			return '_'
		}

		return r
	}, key)
}
