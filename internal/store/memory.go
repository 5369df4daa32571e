package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// MemoryRepository keeps templates in process. Used when no database is
// configured and in tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*Template
	now       func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		templates: make(map[uuid.UUID]*Template),
		now:       time.Now,
	}
}

func (r *MemoryRepository) Save(_ context.Context, t *Template) error {
	cp, err := clone(t)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.templates {
		if id != t.ID && other.ImportType == t.ImportType && other.Name == t.Name {
			return ErrDuplicateName
		}
	}

	now := r.now()
	if existing, ok := r.templates[t.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
		cp.UsageCount = existing.UsageCount
		cp.SuccessCount = existing.SuccessCount
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.templates[t.ID] = cp

	t.CreatedAt, t.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	t.UsageCount, t.SuccessCount = cp.UsageCount, cp.SuccessCount
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t)
}

func (r *MemoryRepository) List(_ context.Context, importType schema.ImportType) ([]Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Template
	for _, t := range r.templates {
		if t.ImportType != importType {
			continue
		}
		cp, err := clone(t)
		if err != nil {
			continue // Skip templates whose mapping set no longer decodes
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *MemoryRepository) RecordUsage(_ context.Context, id uuid.UUID, ok bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, found := r.templates[id]
	if !found {
		return ErrNotFound
	}
	t.UsageCount++
	if ok {
		t.SuccessCount++
	}
	t.UpdatedAt = r.now()
	return nil
}

// clone deep-copies a template so callers never share the stored set.
func clone(t *Template) (*Template, error) {
	cp := *t
	cp.Headers = append([]string(nil), t.Headers...)
	if t.Set != nil {
		data, err := mapping.Marshal(t.Set)
		if err != nil {
			return nil, err
		}
		if cp.Set, err = mapping.Unmarshal(data); err != nil {
			return nil, err
		}
	}
	return &cp, nil
}
