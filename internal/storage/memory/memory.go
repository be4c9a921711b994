// Package memory provides an in-process implementation of storage.Storage.
// It backs the "memory" driver for local development and is the store the
// directory tests run against.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/google/uuid"
)

// Memory keeps every collection in a map keyed by collection path.
// Safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
	}
}

// Add stores a copy of data under a fresh UUID.
func (m *Memory) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	if err := storage.ValidatePath(collection); err != nil {
		return "", err
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(collection)[id] = maps.Clone(data)
	return id, nil
}

// Set replaces the document wholesale.
func (m *Memory) Set(_ context.Context, collection, id string, data map[string]any) error {
	if err := storage.ValidatePath(collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(collection)[id] = maps.Clone(data)
	return nil
}

// Delete removes one document. Sub-collections stay where they are.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	if err := storage.ValidatePath(collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

// List returns copies of the collection's documents ordered by identifier.
func (m *Memory) List(_ context.Context, collection string) ([]storage.Document, error) {
	if err := storage.ValidatePath(collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]storage.Document, 0, len(m.collections[collection]))
	for id, data := range m.collections[collection] {
		docs = append(docs, storage.Document{ID: id, Data: maps.Clone(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return docs, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// collection returns the named collection, creating it on first use.
// Callers must hold m.mu for writing.
func (m *Memory) collection(path string) map[string]map[string]any {
	c, ok := m.collections[path]
	if !ok {
		c = make(map[string]map[string]any)
		m.collections[path] = c
	}
	return c
}
