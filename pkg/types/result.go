package types

import "time"

// ChunkStatus records how a chunk's slot in the final result was produced.
type ChunkStatus string

const (
	// StatusCached means the artifact came from the cache gateway.
	StatusCached ChunkStatus = "cached"
	// StatusGenerated means the artifact came from a fresh remote call.
	StatusGenerated ChunkStatus = "generated"
	// StatusFailed means the remote call failed after retries; the slot
	// carries a placeholder artifact and the error text.
	StatusFailed ChunkStatus = "failed"
)

// ChunkResult is one slot of a document result, in sequence-index order.
type ChunkResult struct {
	SequenceIndex int           `json:"sequence_index"`
	ContentHash   string        `json:"content_hash"`
	Status        ChunkStatus   `json:"status"`
	Artifact      string        `json:"artifact"`
	Error         string        `json:"error,omitempty"`
	Metadata      ChunkMetadata `json:"metadata"`
	Tokens        int           `json:"tokens,omitempty"`
	Cost          float64       `json:"cost,omitempty"` // USD, estimated
}

// RunStats aggregates per-run counters.
type RunStats struct {
	TotalChunks  int           `json:"total_chunks"`
	CacheHits    int           `json:"cache_hits"`
	CacheMisses  int           `json:"cache_misses"`
	Failed       int           `json:"failed"`
	TotalTokens  int           `json:"total_tokens"`
	TotalCost    float64       `json:"total_cost"` // USD, estimated
	CacheHitRate float64       `json:"cache_hit_rate"`
	Duration     time.Duration `json:"duration"`
}

// DocumentResult is the terminal outcome for one document. Partial success
// is a valid terminal state: failed chunks keep their slots while siblings
// carry artifacts.
type DocumentResult struct {
	RunID       string        `json:"run_id"`
	DocumentKey string        `json:"document_key"`
	Fallback    bool          `json:"fallback"` // true when parse failed and line-based planning was used
	Chunks      []ChunkResult `json:"chunks"`
	Merged      string        `json:"merged"`
	Stats       RunStats      `json:"stats"`
}

// Succeeded reports whether every chunk slot carries a real artifact.
func (r *DocumentResult) Succeeded() bool {
	for i := range r.Chunks {
		if r.Chunks[i].Status == StatusFailed {
			return false
		}
	}
	return true
}
