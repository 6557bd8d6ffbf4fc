package storage

import (
	"context"
	"sync"

	"github.com/scribeflow/scribeflow/internal/storage"
)

// MemoryStore keeps records in process memory. It backs tests and
// single-node deployments that run without a DATABASE_URL; records do not
// survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	kinds map[storage.Kind]*kindBucket
}

type kindBucket struct {
	docs  map[string][]byte
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kinds: make(map[storage.Kind]*kindBucket)}
}

func (s *MemoryStore) List(_ context.Context, kind storage.Kind) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.kinds[kind]
	if !ok {
		return nil, nil
	}
	docs := make([][]byte, 0, len(b.order))
	for _, id := range b.order {
		doc := make([]byte, len(b.docs[id]))
		copy(doc, b.docs[id])
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryStore) Get(_ context.Context, kind storage.Kind, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.kinds[kind]
	if !ok {
		return nil, storage.ErrNotFound
	}
	doc, ok := b.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, kind storage.Kind, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.kinds[kind]
	if !ok {
		b = &kindBucket{docs: make(map[string][]byte)}
		s.kinds[kind] = b
	}
	if _, exists := b.docs[id]; !exists {
		b.order = append(b.order, id)
	}
	stored := make([]byte, len(doc))
	copy(stored, doc)
	b.docs[id] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, kind storage.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.kinds[kind]
	if !ok {
		return nil
	}
	if _, exists := b.docs[id]; !exists {
		return nil
	}
	delete(b.docs, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}
