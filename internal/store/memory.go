package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/visits"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byHash map[shortener.Hash]*shortener.Record
	active map[string]shortener.Hash // url -> hash of its active record
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byHash: make(map[shortener.Hash]*shortener.Record),
		active: make(map[string]shortener.Hash),
	}
}

func (m *MemoryStore) Create(_ context.Context, record *shortener.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHash[record.Hash]; ok {
		return shortener.ErrHashTaken
	}

	if _, ok := m.active[record.URL]; ok {
		return shortener.ErrURLTaken
	}

	stored := *record
	stored.Active = true
	m.byHash[record.Hash] = &stored
	m.active[record.URL] = record.Hash

	return nil
}

func (m *MemoryStore) FindActiveByHash(_ context.Context, hash shortener.Hash) (*shortener.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byHash[hash]
	if !ok || !record.Active {
		return nil, shortener.ErrNotFound
	}

	found := *record

	return &found, nil
}

func (m *MemoryStore) FindActiveByURL(ctx context.Context, url string) (*shortener.Record, error) {
	m.mu.RLock()
	hash, ok := m.active[url]
	m.mu.RUnlock()

	if !ok {
		return nil, shortener.ErrNotFound
	}

	return m.FindActiveByHash(ctx, hash)
}

func (m *MemoryStore) Deactivate(_ context.Context, hash shortener.Hash, removeToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byHash[hash]
	if !ok || !record.Active || record.RemoveToken != removeToken {
		return false, nil
	}

	now := time.Now().UTC()
	record.Active = false
	record.DeactivatedAt = &now
	delete(m.active, record.URL)

	return true, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// MemoryVisitStore is an in-memory implementation of visits.Store.
type MemoryVisitStore struct {
	mu     sync.RWMutex
	byHash map[shortener.Hash][]visits.Visit
	ids    map[string]struct{}
}

// NewMemoryVisitStore creates a new in-memory visit store.
func NewMemoryVisitStore() *MemoryVisitStore {
	return &MemoryVisitStore{
		byHash: make(map[shortener.Hash][]visits.Visit),
		ids:    make(map[string]struct{}),
	}
}

func (m *MemoryVisitStore) Append(_ context.Context, visit *visits.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if visit.ID != "" {
		if _, ok := m.ids[visit.ID]; ok {
			return nil
		}

		m.ids[visit.ID] = struct{}{}
	}

	m.byHash[visit.Hash] = append(m.byHash[visit.Hash], *visit)

	return nil
}

func (m *MemoryVisitStore) ListByHash(_ context.Context, hash shortener.Hash) ([]visits.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]visits.Visit, len(m.byHash[hash]))
	copy(out, m.byHash[hash])

	return out, nil
}

var (
	_ shortener.Repository = (*MemoryStore)(nil)
	_ visits.Store         = (*MemoryVisitStore)(nil)
)
