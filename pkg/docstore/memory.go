package docstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store with the same CAS contract as SQLite.
// Used by tests and by embedders that do not want a database on disk.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Document
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

// Load fetches a document by name; missing documents report version 0.
func (m *Memory) Load(_ context.Context, name string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[name]
	if !ok {
		return Document{Name: name}, nil
	}
	// Copy the body so callers cannot mutate stored state in place.
	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	return Document{Name: name, Body: body, Version: doc.Version}, nil
}

// CompareAndSwap writes body if the stored version still matches.
func (m *Memory) CompareAndSwap(_ context.Context, name string, version int64, body []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.docs[name].Version
	if current != version {
		return false, nil
	}
	stored := make([]byte, len(body))
	copy(stored, body)
	m.docs[name] = Document{Name: name, Body: stored, Version: version + 1}
	return true, nil
}
