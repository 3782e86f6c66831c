// Package cache provides checkpoint.Store implementations: a local
// filesystem store and an S3-compatible object store.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/felixgeelhaar/stepflow/internal/domain/checkpoint"
)

// DefaultDir is the cache directory used when none is configured.
const DefaultDir = "cache"

// Extension is the file extension for stored checkpoints.
const Extension = ".checkpoint.json"

// FileStore implements checkpoint.Store using the local filesystem. Each
// checkpoint lives at <dir>/<name><Extension>.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a FileStore rooted at dir. An empty dir uses DefaultDir.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{dir: dir}
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+Extension)
}

// Save writes the snapshot under its name, replacing any previous one.
func (s *FileStore) Save(_ context.Context, snap checkpoint.Snapshot) error {
	if snap.Name == "" {
		return checkpoint.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(snap.Name), data, 0o644)
}

// Load reads and decodes the snapshot stored under name.
func (s *FileStore) Load(_ context.Context, name string) (*checkpoint.Snapshot, error) {
	if name == "" {
		return nil, checkpoint.ErrEmptyName
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, checkpoint.NewNotFoundError(name)
		}
		return nil, err
	}
	return checkpoint.Decode(name, data)
}

// Exists reports whether a snapshot is stored under name.
func (s *FileStore) Exists(_ context.Context, name string) (bool, error) {
	if name == "" {
		return false, checkpoint.ErrEmptyName
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the snapshot stored under name.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if name == "" {
		return checkpoint.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return checkpoint.NewNotFoundError(name)
	}
	return err
}

// List returns metadata for all stored checkpoints.
func (s *FileStore) List(_ context.Context) ([]checkpoint.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []checkpoint.Info{}, nil
		}
		return nil, err
	}

	infos := make([]checkpoint.Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, checkpoint.Info{
			Name:      strings.TrimSuffix(entry.Name(), Extension),
			CreatedAt: fi.ModTime(),
			Size:      fi.Size(),
		})
	}
	return infos, nil
}

// Ensure FileStore implements Store.
var _ checkpoint.Store = (*FileStore)(nil)
