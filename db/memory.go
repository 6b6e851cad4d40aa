package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records as JSON documents in process memory.
// Values round-trip through encoding/json the same way the realtime
// database client encodes them.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string][]byte),
	}
}

type memorySnapshot struct {
	key string
	raw []byte
}

func (s memorySnapshot) Key() string { return s.key }

func (s memorySnapshot) DataTo(v interface{}) error {
	return json.Unmarshal(s.raw, v)
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string, v interface{}) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.data[collection][id]
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, raw)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := map[string]interface{}{}
	if raw, ok := m.data[collection][id]; ok {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	m.put(collection, id, raw)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
	return nil
}

func (m *MemoryStore) NewID(ctx context.Context, collection string) (string, error) {
	return uuid.NewString(), nil
}

func (m *MemoryStore) All(ctx context.Context, collection string) ([]Snapshot, error) {
	return m.filter(collection, func([]byte) bool { return true }), nil
}

func (m *MemoryStore) WhereEqual(ctx context.Context, collection, field string, value interface{}) ([]Snapshot, error) {
	want := fmt.Sprint(value)
	return m.filter(collection, func(raw []byte) bool {
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return false
		}
		got, ok := doc[field]
		return ok && fmt.Sprint(got) == want
	}), nil
}

func (m *MemoryStore) Increment(ctx context.Context, collection, id string, floor int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counter struct {
		Value int64 `json:"value"`
	}
	if raw, ok := m.data[collection][id]; ok {
		if err := json.Unmarshal(raw, &counter); err != nil {
			return 0, fmt.Errorf("failed to decode counter %s: %w", id, err)
		}
	}
	counter.Value = nextCounter(counter.Value, floor)

	raw, err := json.Marshal(counter)
	if err != nil {
		return 0, err
	}
	m.put(collection, id, raw)
	return counter.Value, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// put must be called with the write lock held.
func (m *MemoryStore) put(collection, id string, raw []byte) {
	if m.data[collection] == nil {
		m.data[collection] = make(map[string][]byte)
	}
	m.data[collection][id] = raw
}

// filter returns matching records ordered by key, like an orderByKey query.
func (m *MemoryStore) filter(collection string, match func([]byte) bool) []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data[collection]))
	for k := range m.data[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []Snapshot
	for _, k := range keys {
		raw := m.data[collection][k]
		if match(raw) {
			result = append(result, memorySnapshot{key: k, raw: raw})
		}
	}
	return result
}
