package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ChunkMetadata describes what a materialized chunk covers.
type ChunkMetadata struct {
	UnitNames  []string         `json:"unit_names,omitempty"`
	StartLine  int              `json:"start_line"` // == ContextStart of the plan
	EndLine    int              `json:"end_line"`   // == PrimaryEnd of the plan
	KindCounts map[UnitKind]int `json:"kind_counts,omitempty"`
}

// Chunk is a materialized unit of work: the exact source substring of a plan
// (overlap context included) plus its content hash and metadata. Immutable
// once created.
type Chunk struct {
	DocumentKey   string
	SequenceIndex int
	ContentHash   string // hex SHA-256 of SourceText
	SourceText    string
	Metadata      ChunkMetadata
}

// HashContent computes the canonical content hash for a chunk substring.
// Identical substrings hash identically across documents and runs; that
// collision is intentional and enables cross-document cache reuse.
func HashContent(sourceText string) string {
	sum := sha256.Sum256([]byte(sourceText))
	return hex.EncodeToString(sum[:])
}

// ComputeContentHash fills ContentHash from SourceText.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = HashContent(c.SourceText)
}

// Validate performs a defensive check of the chunk's invariants.
func (c *Chunk) Validate() error {
	if c.DocumentKey == "" {
		return errors.New("chunk document key is required")
	}
	if c.SequenceIndex < 0 {
		return errors.New("chunk sequence index must not be negative")
	}
	if c.SourceText == "" {
		return errors.New("chunk source text cannot be empty")
	}
	if c.ContentHash != HashContent(c.SourceText) {
		return errors.New("chunk content hash does not match source text")
	}
	return nil
}
