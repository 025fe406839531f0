package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/paperfix/paperfix/backend/go-services/internal/document"
)

// MemoryRepo is an in-memory Store used by tests and when MongoDB is not configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Insert(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.IsDraft {
		for _, existing := range m.store {
			if existing.IsDraft && existing.Owner == d.Owner && existing.TemplateID == d.TemplateID {
				return ErrDuplicateDraft
			}
		}
	}
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Find(ctx context.Context, q Query) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0)
	for _, d := range m.store {
		if q.Filter.matches(d) {
			out = append(out, d.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if q.SortBy == SortUpdatedAt {
			a, b = out[i].UpdatedAt, out[j].UpdatedAt
		}
		if a.Equal(b) {
			return out[i].ID > out[j].ID
		}
		return a.After(b)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, p Patch) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.TemplateAnswers != nil {
		d.TemplateAnswers = copyAnswers(p.TemplateAnswers)
	}
	if p.IsDraft != nil {
		d.IsDraft = *p.IsDraft
	}
	d.UpdatedAt = p.UpdatedAt
	return d.Clone(), nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.store {
		if f.matches(d) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
