package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps links in two maps: id -> url and url -> id.
type MemoryStorage struct {
	mu   sync.RWMutex
	stol map[string]string
	ltos map[string]string
}

func CreateMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stol: make(map[string]string),
		ltos: make(map[string]string),
	}
}

func (m *MemoryStorage) FindByID(_ context.Context, id string) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	long, ok := m.stol[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Link{ID: id, OriginalURL: long}, nil
}

func (m *MemoryStorage) FindByOriginal(_ context.Context, originalURL string) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	short, ok := m.ltos[originalURL]
	if !ok {
		return nil, ErrNotFound
	}
	return &Link{ID: short, OriginalURL: originalURL}, nil
}

func (m *MemoryStorage) Insert(_ context.Context, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.put(link)
}

// put must be called with the write lock held.
func (m *MemoryStorage) put(link Link) error {
	if _, ok := m.stol[link.ID]; ok {
		return ErrIDConflict
	}
	if _, ok := m.ltos[link.OriginalURL]; ok {
		return ErrURLConflict
	}

	m.stol[link.ID] = link.OriginalURL
	m.ltos[link.OriginalURL] = link.ID
	return nil
}

// Len reports the number of stored links.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stol)
}

func (m *MemoryStorage) PingContext(context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
