package types

import "errors"

// ChunkPlan is a proposed line range for one output chunk. PrimaryStart and
// PrimaryEnd delimit the chunk's own content; ContextStart extends backward
// into the previous chunk's primary range by the overlap window. Primary
// ranges of a document's plans are contiguous and exhaustive: every source
// line belongs to exactly one plan's primary range.
type ChunkPlan struct {
	SequenceIndex int // 0-based position within the document
	PrimaryStart  int // 1-based, inclusive
	PrimaryEnd    int // 1-based, inclusive
	ContextStart  int // <= PrimaryStart; == PrimaryStart for the first chunk

	// UnitNames lists, in order, the named units whose spans fall at least
	// partially within [ContextStart, PrimaryEnd].
	UnitNames []string
}

// PrimaryLines returns the number of lines in the primary range.
func (p *ChunkPlan) PrimaryLines() int {
	return p.PrimaryEnd - p.PrimaryStart + 1
}

// Validate checks the plan's internal invariants.
func (p *ChunkPlan) Validate() error {
	if p.SequenceIndex < 0 {
		return errors.New("sequence index must not be negative")
	}
	if p.PrimaryStart <= 0 || p.PrimaryEnd <= 0 {
		return errors.New("primary range lines must be positive")
	}
	if p.PrimaryStart > p.PrimaryEnd {
		return errors.New("primary start must not exceed primary end")
	}
	if p.ContextStart <= 0 || p.ContextStart > p.PrimaryStart {
		return errors.New("context start must be positive and not exceed primary start")
	}
	return nil
}
