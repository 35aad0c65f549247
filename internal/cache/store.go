package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	gocache "github.com/patrickmn/go-cache"

	allyerrors "github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/fsutil"
)

// Store persists raw cache records by key.
type Store interface {
	// Load returns the record for key, or ErrCacheMiss when absent.
	Load(key string) ([]byte, error)

	// Save overwrites the record for key.
	Save(key string, data []byte) error

	// Clear removes every record.
	Clear() error
}

// recordName matches the file names Save produces for keys built by Key,
// including an interrupted write's temp file.
var recordName = regexp.MustCompile(`^[0-9a-f]{64}\.json(\.tmp)?$`)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// lazily on first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load implements Store.
func (s *FileStore) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key)) //#nosec G304 -- key is a hex digest
	if errors.Is(err, os.ErrNotExist) {
		return nil, allyerrors.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache record: %w", err)
	}
	return data, nil
}

// Save implements Store using write-then-rename.
func (s *FileStore) Save(key string, data []byte) error {
	return fsutil.AtomicWrite(s.path(key), data)
}

// Clear implements Store. Only cache record files are removed, so a
// misconfigured directory never loses unrelated files.
func (s *FileStore) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !recordName.MatchString(name) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove cache record: %w", err)
		}
	}
	return nil
}

// MemoryStore keeps records in process memory. Entries never expire.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

// Load implements Store.
func (s *MemoryStore) Load(key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, allyerrors.ErrCacheMiss
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, allyerrors.ErrCacheCorrupt
	}
	return append([]byte(nil), data...), nil
}

// Save implements Store.
func (s *MemoryStore) Save(key string, data []byte) error {
	s.c.Set(key, append([]byte(nil), data...), gocache.NoExpiration)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.c.Flush()
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}

// Compile-time interface checks.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
