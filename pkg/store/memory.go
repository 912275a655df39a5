package store

import (
	"context"
	"sync"

	"github.com/matzehuels/flowsketch/pkg/flowchart"
)

// MemoryStore keeps records in process memory. Callers receive copies, so
// mutating a returned document does not change the stored one.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Create(ctx context.Context, doc *flowchart.Document) (*Record, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}
	t := now()
	rec := &Record{
		ID:           newID(),
		Document:     doc.Clone(),
		SourcePrompt: doc.SourcePrompt,
		CreatedAt:    t,
		UpdatedAt:    t,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec.withPrompt(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.withPrompt(), nil
}

func (s *MemoryStore) Replace(ctx context.Context, id string, doc *flowchart.Document) (*Record, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	next := *rec
	next.Document = doc.Clone()
	if doc.SourcePrompt != "" {
		next.SourcePrompt = doc.SourcePrompt
	}
	next.UpdatedAt = now()
	s.records[id] = &next
	return next.withPrompt(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].withPrompt())
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
