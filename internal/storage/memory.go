package storage

import (
	"context"
	"sync"
)

// collection keeps records in insertion order with an index by key.
type collection struct {
	keys   []string
	values map[string][]byte
}

func newCollection() *collection {
	return &collection{values: make(map[string][]byte)}
}

func (c *collection) put(key string, value []byte) {
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = clone(value)
}

func (c *collection) remove(key string) {
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return
		}
	}
}

func (c *collection) records() []Record {
	out := make([]Record, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, Record{Key: k, Value: clone(c.values[k])})
	}
	return out
}

// MemoryStore is a Store held entirely in process memory.
// All operations are serialized by one RWMutex, which makes Update and Replace
// trivially atomic.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*collection)}
}

func (s *MemoryStore) collection(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = newCollection()
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(_ context.Context, name, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, ErrRecordNotFound
	}
	value, ok := c.values[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return clone(value), nil
}

func (s *MemoryStore) Create(_ context.Context, name, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(name)
	if _, exists := c.values[key]; exists {
		return ErrRecordExists
	}
	c.put(key, value)
	return nil
}

func (s *MemoryStore) Put(_ context.Context, name, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(name).put(key, value)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, name, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(name)
	current, ok := c.values[key]
	if !ok {
		return ErrRecordNotFound
	}

	next, err := fn(clone(current))
	if err != nil {
		return err
	}
	c.put(key, next)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(name)
	if _, ok := c.values[key]; !ok {
		return ErrRecordNotFound
	}
	c.remove(key)
	return nil
}

func (s *MemoryStore) List(_ context.Context, name string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return []Record{}, nil
	}
	return c.records(), nil
}

func (s *MemoryStore) Last(_ context.Context, name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok || len(c.keys) == 0 {
		return nil, ErrRecordNotFound
	}
	key := c.keys[len(c.keys)-1]
	return &Record{Key: key, Value: clone(c.values[key])}, nil
}

func (s *MemoryStore) Replace(_ context.Context, name string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := newCollection()
	for _, r := range records {
		c.put(r.Key, r.Value)
	}
	s.collections[name] = c
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
