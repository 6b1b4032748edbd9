package kv

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store implementation backed by a plain map.
// It is safe for concurrent use and intended primarily for testing.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates a new in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(encode(key))
	m.mu.RLock()
	v, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(encode(key))
	cp := bytes.Clone(value)
	m.mu.Lock()
	m.data[k] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	// Append a separator so the prefix "a:b" does not match "a:bc".
	// An empty prefix scans everything.
	p := encode(prefix)
	if len(p) > 0 {
		p = append(p, Separator)
	}

	// Snapshot matching entries under the read lock so mutations during
	// iteration do not affect the result.
	m.mu.RLock()
	var keys []string
	for k := range m.data {
		if len(p) == 0 || strings.HasPrefix(k, string(p)) {
			keys = append(keys, k)
		}
	}
	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snapshot[k] = bytes.Clone(m.data[k])
	}
	m.mu.RUnlock()

	sort.Strings(keys)

	return func(yield func(Entry, error) bool) {
		for _, k := range keys {
			entry := Entry{Key: decode([]byte(k)), Value: snapshot[k]}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (m *Memory) Apply(_ context.Context, batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range batch.Set {
		m.data[string(encode(e.Key))] = bytes.Clone(e.Value)
	}
	for _, key := range batch.Delete {
		delete(m.data, string(encode(key)))
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
