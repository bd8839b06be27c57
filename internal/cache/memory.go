package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryGateway implements Gateway with a bounded in-memory LRU. It serves
// cache-less deployments and tests; entries do not survive the process.
type MemoryGateway struct {
	entries     *lru.Cache[string, *Entry]
	storeSource bool
}

// NewMemoryGateway creates an in-memory gateway holding at most maxLen
// entries, evicted LRU.
func NewMemoryGateway(maxLen int, storeSource bool) *MemoryGateway {
	if maxLen <= 0 {
		maxLen = 10000
	}
	entries, err := lru.New[string, *Entry](maxLen)
	if err != nil {
		// Cannot happen with a positive size.
		entries, _ = lru.New[string, *Entry](10000)
	}
	return &MemoryGateway{entries: entries, storeSource: storeSource}
}

// Lookup returns a copy of the cached entry so caller mutations never
// reach the cached value.
func (g *MemoryGateway) Lookup(_ context.Context, contentHash string) (*Entry, error) {
	entry, ok := g.entries.Get(contentHash)
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntry(entry), nil
}

// Store adds the entry unless the key is already present.
func (g *MemoryGateway) Store(_ context.Context, entry *Entry) error {
	if _, ok := g.entries.Get(entry.ContentHash); ok {
		return nil
	}
	stored := copyEntry(entry)
	if !g.storeSource {
		stored.SourceText = nil
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	g.entries.Add(stored.ContentHash, stored)
	return nil
}

// Close releases nothing; it exists to satisfy Gateway.
func (g *MemoryGateway) Close() error {
	return nil
}

// Len returns the current number of cached entries.
func (g *MemoryGateway) Len() int {
	return g.entries.Len()
}

func copyEntry(entry *Entry) *Entry {
	out := *entry
	if entry.SourceText != nil {
		src := *entry.SourceText
		out.SourceText = &src
	}
	if entry.Metadata.UnitNames != nil {
		out.Metadata.UnitNames = append([]string(nil), entry.Metadata.UnitNames...)
	}
	return &out
}
