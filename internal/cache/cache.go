// Package cache is the gateway to the persistent chunk cache: generated
// artifacts stored together with the chunk inputs that produced them, keyed
// by content hash.
//
// The canonical key is the chunk's content hash, not (document_key,
// sequence_index): identical substrings hash identically across documents
// and runs, so content addressing buys cross-document reuse for free.
// Document key and sequence index are carried as metadata.
//
// Store is a no-op when the key already exists. Content addressing makes
// an overwrite redundant work rather than a correctness risk: a concurrent
// writer for the same key carries identical content.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// ErrNotFound is returned by Lookup when no entry exists for the key.
var ErrNotFound = errors.New("cache entry not found")

// EntryMetadata is the persisted per-entry metadata.
type EntryMetadata struct {
	UnitNames []string `json:"unit_names,omitempty"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Tokens    int      `json:"tokens,omitempty"`
	Cost      float64  `json:"cost,omitempty"` // USD spent generating the artifact
	Model     string   `json:"model,omitempty"`
}

// Entry is one persisted cache record. Immutable after creation; an
// overwrite would be a new version, never mutation in place. SourceText is
// optional: nil (not persisted) is a distinct state from empty content, and
// pre-existing rows without it remain valid.
type Entry struct {
	ContentHash   string
	DocumentKey   string
	SequenceIndex int
	SourceText    *string
	Artifact      string
	Metadata      EntryMetadata
	CreatedAt     time.Time
}

// Gateway maps a chunk's content hash to a previously computed result.
// Implementations must tolerate concurrent Lookup and Store calls; same-key
// Store races are resolved by the no-op-on-existing policy.
type Gateway interface {
	// Lookup is a pure read. ErrNotFound means a miss; any other error is
	// a backend failure the caller may treat as ErrCacheUnavailable.
	Lookup(ctx context.Context, contentHash string) (*Entry, error)

	// Store persists the entry unless the key already exists.
	Store(ctx context.Context, entry *Entry) error

	Close() error
}

// NewEntry builds an entry from a materialized chunk and its artifact.
// storeSource controls whether the chunk input is persisted alongside the
// artifact; lookups match on the same key either way.
func NewEntry(chunk *types.Chunk, artifact, model string, tokens int, cost float64, storeSource bool) *Entry {
	entry := &Entry{
		ContentHash:   chunk.ContentHash,
		DocumentKey:   chunk.DocumentKey,
		SequenceIndex: chunk.SequenceIndex,
		Artifact:      artifact,
		Metadata: EntryMetadata{
			UnitNames: chunk.Metadata.UnitNames,
			StartLine: chunk.Metadata.StartLine,
			EndLine:   chunk.Metadata.EndLine,
			Tokens:    tokens,
			Cost:      cost,
			Model:     model,
		},
		CreatedAt: time.Now().UTC(),
	}
	if storeSource {
		src := chunk.SourceText
		entry.SourceText = &src
	}
	return entry
}
