package docstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local development.
type Memory struct {
	mu    sync.RWMutex
	colls map[string][]map[string]any
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{colls: map[string][]map[string]any{}}
}

func (m *Memory) Insert(_ context.Context, collection string, doc map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := maps.Clone(doc)
	id, ok := stored["_id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["_id"] = id
	}
	m.colls[collection] = append(m.colls[collection], stored)
	return id, nil
}

func (m *Memory) GetByID(_ context.Context, collection, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.colls[collection] {
		if doc["_id"] == id {
			return maps.Clone(doc), nil
		}
	}
	return nil, ErrNoDocument
}

func (m *Memory) UpdateFields(_ context.Context, collection, id string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.colls[collection] {
		if doc["_id"] == id {
			for k, v := range fields {
				doc[k] = v
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) AppendToArray(_ context.Context, collection, id, field string, element any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.colls[collection] {
		if doc["_id"] == id {
			arr, _ := doc[field].([]any)
			doc[field] = append(arr, element)
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Find(_ context.Context, collection string, filter map[string]any, skip, limit int64, s *Sort) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []map[string]any
	for _, doc := range m.colls[collection] {
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}

	if s != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			if s.Desc {
				return lessValues(matched[j][s.Field], matched[i][s.Field])
			}
			return lessValues(matched[i][s.Field], matched[j][s.Field])
		})
	}

	if skip > int64(len(matched)) {
		skip = int64(len(matched))
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}

	out := make([]map[string]any, 0, len(matched))
	for _, doc := range matched {
		out = append(out, maps.Clone(doc))
	}
	return out, nil
}

func (m *Memory) Count(_ context.Context, collection string, filter map[string]any) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, doc := range m.colls[collection] {
		if matchesFilter(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close(context.Context) error {
	return nil
}

func matchesFilter(doc, filter map[string]any) bool {
	for k, want := range filter {
		if !equalValues(doc[k], want) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	return !lessValues(a, b) && !lessValues(b, a)
}

func lessValues(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return av < bv
	case int64:
		bv, _ := b.(int64)
		return av < bv
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Before(bv)
	default:
		return false
	}
}
