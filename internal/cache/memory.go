package cache

import (
	"container/list"
	"context"
	"sync"
)

// memoryLayer is a bounded LRU front for a persistent Store. It absorbs
// repeated lookups of the same page fingerprint within a run without a
// round-trip to the backend.
type memoryLayer struct {
	back     Store
	maxItems int

	mu    sync.Mutex
	order *list.List               // front = most recent
	items map[string]*list.Element // value: *memoryItem
}

type memoryItem struct {
	key   string
	entry Entry
}

// WithMemoryLayer wraps back with an LRU of at most maxItems entries.
func WithMemoryLayer(back Store, maxItems int) Store {
	return &memoryLayer{
		back:     back,
		maxItems: maxItems,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (m *memoryLayer) Get(ctx context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	if elem, ok := m.items[key]; ok {
		m.order.MoveToFront(elem)
		entry := elem.Value.(*memoryItem).entry
		m.mu.Unlock()
		return entry, true, nil
	}
	m.mu.Unlock()

	entry, ok, err := m.back.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	m.remember(key, entry)
	return entry, true, nil
}

func (m *memoryLayer) Put(ctx context.Context, key string, entry Entry) error {
	m.remember(key, entry)
	return m.back.Put(ctx, key, entry)
}

func (m *memoryLayer) remember(key string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		elem.Value.(*memoryItem).entry = entry
		m.order.MoveToFront(elem)
		return
	}
	m.items[key] = m.order.PushFront(&memoryItem{key: key, entry: entry})
	for m.order.Len() > m.maxItems {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*memoryItem).key)
	}
}

func (m *memoryLayer) Stats(ctx context.Context) (Stats, error) {
	return m.back.Stats(ctx)
}

func (m *memoryLayer) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.order.Init()
	m.items = make(map[string]*list.Element)
	m.mu.Unlock()
	return m.back.Clear(ctx)
}

func (m *memoryLayer) Close() error { return m.back.Close() }
