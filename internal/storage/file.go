package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileRecord is the on-disk shape of one record. Values must be JSON documents.
type fileRecord struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// FileStore persists each collection as a JSON array in "<dir>/<collection>.json".
//
// Collections are cached after the first read. Every mutation rewrites the
// affected file through a temp file and rename, so readers of the directory
// never see a partially written collection. A single mutex serializes all
// operations, which is enough for one process owning the directory.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	cache map[string]*collection
}

// NewFileStore creates a file store rooted at dir, creating it when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, storageError(err, "failed to create data directory")
	}
	return &FileStore{dir: dir, cache: make(map[string]*collection)}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) load(name string) (*collection, error) {
	if c, ok := s.cache[name]; ok {
		return c, nil
	}

	c := newCollection()
	data, err := os.ReadFile(s.path(name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, storageError(err, "failed to read collection")
	default:
		var records []fileRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, storageError(err, "failed to decode collection "+name)
		}
		for _, r := range records {
			c.put(r.Key, r.Value)
		}
	}

	s.cache[name] = c
	return c, nil
}

func (s *FileStore) flush(name string, c *collection) error {
	records := make([]fileRecord, 0, len(c.keys))
	for _, k := range c.keys {
		records = append(records, fileRecord{Key: k, Value: c.values[k]})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return storageError(err, "failed to encode collection "+name)
	}

	tmp, err := os.CreateTemp(s.dir, name+".json.tmp-*")
	if err != nil {
		return storageError(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return storageError(err, "failed to write collection")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return storageError(err, "failed to sync collection")
	}
	if err := tmp.Close(); err != nil {
		return storageError(err, "failed to close collection")
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		return storageError(err, "failed to replace collection")
	}
	return nil
}

// mutate applies fn on a copy of the collection and swaps it in once the file
// has been written, so a failed write leaves the cache untouched.
func (s *FileStore) mutate(name string, fn func(c *collection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(name)
	if err != nil {
		return err
	}

	next := newCollection()
	for _, k := range current.keys {
		next.put(k, current.values[k])
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := s.flush(name, next); err != nil {
		return err
	}
	s.cache[name] = next
	return nil
}

func (s *FileStore) Get(_ context.Context, name, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(name)
	if err != nil {
		return nil, err
	}
	value, ok := c.values[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return clone(value), nil
}

func (s *FileStore) Create(_ context.Context, name, key string, value []byte) error {
	if !json.Valid(value) {
		return storageError(fmt.Errorf("value for %q is not a JSON document", key), "failed to create record")
	}
	return s.mutate(name, func(c *collection) error {
		if _, exists := c.values[key]; exists {
			return ErrRecordExists
		}
		c.put(key, value)
		return nil
	})
}

func (s *FileStore) Put(_ context.Context, name, key string, value []byte) error {
	if !json.Valid(value) {
		return storageError(fmt.Errorf("value for %q is not a JSON document", key), "failed to put record")
	}
	return s.mutate(name, func(c *collection) error {
		c.put(key, value)
		return nil
	})
}

func (s *FileStore) Update(_ context.Context, name, key string, fn UpdateFunc) error {
	return s.mutate(name, func(c *collection) error {
		current, ok := c.values[key]
		if !ok {
			return ErrRecordNotFound
		}
		next, err := fn(clone(current))
		if err != nil {
			return err
		}
		if !json.Valid(next) {
			return storageError(fmt.Errorf("value for %q is not a JSON document", key), "failed to update record")
		}
		c.put(key, next)
		return nil
	})
}

func (s *FileStore) Delete(_ context.Context, name, key string) error {
	return s.mutate(name, func(c *collection) error {
		if _, ok := c.values[key]; !ok {
			return ErrRecordNotFound
		}
		c.remove(key)
		return nil
	})
}

func (s *FileStore) List(_ context.Context, name string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(name)
	if err != nil {
		return nil, err
	}
	return c.records(), nil
}

func (s *FileStore) Last(_ context.Context, name string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if len(c.keys) == 0 {
		return nil, ErrRecordNotFound
	}
	key := c.keys[len(c.keys)-1]
	return &Record{Key: key, Value: clone(c.values[key])}, nil
}

func (s *FileStore) Replace(_ context.Context, name string, records []Record) error {
	return s.mutate(name, func(c *collection) error {
		*c = *newCollection()
		for _, r := range records {
			if !json.Valid(r.Value) {
				return storageError(fmt.Errorf("value for %q is not a JSON document", r.Key), "failed to replace collection")
			}
			c.put(r.Key, r.Value)
		}
		return nil
	})
}

func (s *FileStore) Close() error {
	return nil
}
