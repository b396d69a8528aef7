package itembank

import (
	"context"
	"sync"

	"github.com/examly/adaptive-core/internal/irt"
)

// MemoryBank is a Bank backed by an in-memory slice. Items keep their
// insertion order so searches are deterministic.
type MemoryBank struct {
	mu    sync.RWMutex
	items []irt.Item
	byID  map[string]int
}

// NewMemoryBank creates a bank pre-loaded with the given items.
func NewMemoryBank(items ...irt.Item) *MemoryBank {
	b := &MemoryBank{byID: make(map[string]int, len(items))}
	for _, it := range items {
		b.add(it)
	}
	return b
}

// Add inserts or replaces an item.
func (b *MemoryBank) Add(it irt.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(it)
}

func (b *MemoryBank) add(it irt.Item) {
	if idx, ok := b.byID[it.ID]; ok {
		b.items[idx] = it
		return
	}
	b.byID[it.ID] = len(b.items)
	b.items = append(b.items, it)
}

// Len returns the number of items in the bank.
func (b *MemoryBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

func (b *MemoryBank) Search(_ context.Context, f Filter) ([]irt.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []irt.Item
	for _, it := range b.items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (b *MemoryBank) Get(_ context.Context, id string) (*irt.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	idx, ok := b.byID[id]
	if !ok {
		return nil, nil
	}
	it := b.items[idx]
	return &it, nil
}
