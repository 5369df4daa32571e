package schema

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[ImportType]Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if the import type is already registered.
func Register(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.ImportType]; exists {
		panic(fmt.Sprintf("import type already registered: %s", s.ImportType))
	}

	fields := make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		syn := make([]string, len(f.Synonyms))
		for j, v := range f.Synonyms {
			syn[j] = NormalizeHeader(v)
		}
		f.Synonyms = syn
		fields[i] = f
	}
	s.Fields = fields

	registry[s.ImportType] = s
}

// Get returns the schema for an import type.
// Returns false if not found.
func Get(t ImportType) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[t]
	return s, ok
}

// MustGet returns the schema for an import type or an error naming it.
func MustGet(t ImportType) (Schema, error) {
	s, ok := Get(t)
	if !ok {
		return Schema{}, fmt.Errorf("unknown import type: %s", t)
	}
	return s, nil
}

// ImportTypes returns all registered import types, sorted.
func ImportTypes() []ImportType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]ImportType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
