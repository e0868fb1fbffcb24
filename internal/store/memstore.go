package store

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"
)

// MemStore is a map-backed Store with the same semantics as the Firestore
// adapter: loosely typed field maps, last-write timestamps, atomic batches
// and precondition checks. It backs tests and store-less development runs.
//
// Like Firestore, it widens values on write: integers become int64 and
// slices become []any, so repository decoding is exercised against the same
// representations it sees in production.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memDoc
}

type memDoc struct {
	data       map[string]any
	updateTime time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]map[string]*memDoc)}
}

func (s *MemStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Data: copyMap(doc.data), UpdateTime: doc.updateTime}, nil
}

func (s *MemStore) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, doc := range s.collections[collection] {
		if matches(doc.data, q.Filters) {
			docs = append(docs, Document{ID: id, Data: copyMap(doc.data), UpdateTime: doc.updateTime})
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			if q.Desc {
				return compareValues(docs[j].Data[q.OrderBy], docs[i].Data[q.OrderBy])
			}
			return compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
		})
	} else {
		// Deterministic order for tests.
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (s *MemStore) Create(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(collection, id, data)
}

func (s *MemStore) Update(_ context.Context, collection, id string, updates []Update, pre *Precondition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUpdate(collection, id, pre); err != nil {
		return err
	}
	s.applyUpdate(collection, id, updates)
	return nil
}

func (s *MemStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

// Batch validates every write first and applies them only when all pass,
// mirroring the all-or-nothing transaction used by the Firestore adapter.
func (s *MemStore) Batch(_ context.Context, writes []Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		switch w.Kind {
		case WriteCreate:
			if _, ok := s.collections[w.Collection][w.ID]; ok {
				return ErrExists
			}
		case WriteUpdate:
			if err := s.checkUpdate(w.Collection, w.ID, w.Precondition); err != nil {
				return err
			}
		}
	}

	for _, w := range writes {
		switch w.Kind {
		case WriteCreate:
			_ = s.create(w.Collection, w.ID, w.Data)
		case WriteUpdate:
			s.applyUpdate(w.Collection, w.ID, w.Updates)
		case WriteDelete:
			delete(s.collections[w.Collection], w.ID)
		}
	}
	return nil
}

func (s *MemStore) create(collection, id string, data map[string]any) error {
	col := s.collections[collection]
	if col == nil {
		col = make(map[string]*memDoc)
		s.collections[collection] = col
	}
	if _, ok := col[id]; ok {
		return ErrExists
	}
	col[id] = &memDoc{data: copyMap(data), updateTime: time.Now()}
	return nil
}

func (s *MemStore) checkUpdate(collection, id string, pre *Precondition) error {
	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	if pre != nil && pre.LastUpdateTime != nil && !doc.updateTime.Equal(*pre.LastUpdateTime) {
		return ErrPreconditionFailed
	}
	return nil
}

func (s *MemStore) applyUpdate(collection, id string, updates []Update) {
	doc := s.collections[collection][id]
	for _, u := range updates {
		switch val := u.Value.(type) {
		case arrayUnion:
			arr, _ := doc.data[u.Field].([]any)
			for _, v := range val.values {
				cv := copyValue(v)
				if !containsValue(arr, cv) {
					arr = append(arr, cv)
				}
			}
			doc.data[u.Field] = arr
		case arrayRemove:
			arr, _ := doc.data[u.Field].([]any)
			var kept []any
			for _, existing := range arr {
				remove := false
				for _, v := range val.values {
					if reflect.DeepEqual(existing, copyValue(v)) {
						remove = true
						break
					}
				}
				if !remove {
					kept = append(kept, existing)
				}
			}
			doc.data[u.Field] = kept
		case deleteField:
			delete(doc.data, u.Field)
		default:
			doc.data[u.Field] = copyValue(u.Value)
		}
	}
	doc.updateTime = time.Now()
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(data[f.Field], copyValue(f.Value)) {
				return false
			}
		case OpArrayContains:
			arr, _ := data[f.Field].([]any)
			if !containsValue(arr, copyValue(f.Value)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func containsValue(arr []any, v any) bool {
	for _, e := range arr {
		if reflect.DeepEqual(e, v) {
			return true
		}
	}
	return false
}

func compareValues(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return av < bv
	case int64:
		bv, _ := b.(int64)
		return av < bv
	case float64:
		bv, _ := b.(float64)
		return av < bv
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Before(bv)
	default:
		return false
	}
}

// copyValue deep-copies and widens a value the way Firestore round-trips it.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = e
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyMap(e)
		}
		return out
	case int:
		return int64(val)
	case int32:
		return int64(val)
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}
