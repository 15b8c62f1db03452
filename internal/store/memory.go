package store

import (
	"sync"

	"taleloom/internal/tale"
)

// MemoryStore is an in-memory implementation of the tale.Store
// interface. Nothing survives process restart; it backs tests and the
// demo flow. This implementation is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	children []*tale.Child // insertion order, oldest first
	stories  []*tale.Story // head first, newest at index 0
	settings map[string]string
	usage    *tale.Usage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]string),
	}
}

// Compile-time check that MemoryStore implements tale.Store
var _ tale.Store = (*MemoryStore)(nil)

func cloneChild(c *tale.Child) *tale.Child {
	cp := *c
	cp.Interests = append([]string(nil), c.Interests...)
	return &cp
}

func cloneStory(s *tale.Story) *tale.Story {
	cp := *s
	cp.Themes = append([]string(nil), s.Themes...)
	return &cp
}

func (m *MemoryStore) CreateChild(c *tale.Child) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children = append(m.children, cloneChild(c))
	return nil
}

func (m *MemoryStore) UpdateChild(c *tale.Child) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.children {
		if existing.ID == c.ID {
			m.children[i] = cloneChild(c)
			return nil
		}
	}
	return tale.ErrNotFound
}

func (m *MemoryStore) DeleteChild(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.children {
		if c.ID == id {
			m.children = append(m.children[:i], m.children[i+1:]...)
			return nil
		}
	}
	return tale.ErrNotFound
}

func (m *MemoryStore) FindChild(id string) (*tale.Child, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.children {
		if c.ID == id {
			return cloneChild(c), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListChildren() ([]*tale.Child, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*tale.Child, len(m.children))
	for i, c := range m.children {
		out[i] = cloneChild(c)
	}
	return out, nil
}

// SaveStory inserts at the head of the library. Idempotent by id: a
// story that is already present is left untouched and false is returned.
func (m *MemoryStore) SaveStory(s *tale.Story) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.stories {
		if existing.ID == s.ID {
			return false, nil
		}
	}
	m.stories = append([]*tale.Story{cloneStory(s)}, m.stories...)
	return true, nil
}

func (m *MemoryStore) DeleteStory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.stories {
		if s.ID == id {
			m.stories = append(m.stories[:i], m.stories[i+1:]...)
			return nil
		}
	}
	return tale.ErrNotFound
}

func (m *MemoryStore) FindStory(id string) (*tale.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.stories {
		if s.ID == id {
			return cloneStory(s), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListStories() ([]*tale.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*tale.Story, len(m.stories))
	for i, s := range m.stories {
		out[i] = cloneStory(s)
	}
	return out, nil
}

func (m *MemoryStore) SetFavorite(id string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stories {
		if s.ID == id {
			s.IsFavorite = favorite
			return nil
		}
	}
	return tale.ErrNotFound
}

func (m *MemoryStore) GetSetting(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStore) SetSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStore) LoadUsage() (*tale.Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.usage == nil {
		return nil, nil
	}
	cp := *m.usage
	return &cp, nil
}

func (m *MemoryStore) SaveUsage(u *tale.Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.usage = &cp
	return nil
}

func (m *MemoryStore) Close() error { return nil }
