// Package chunker materializes chunk plans: it extracts the exact source
// substring for a plan, computes its content hash, and packages metadata.
// Materialization is pure; all failure modes here indicate planner bugs.
package chunker

import (
	"fmt"
	"strings"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// SplitLines splits a document into lines without dropping a trailing
// newline-terminated fragment. An empty document has zero lines.
func SplitLines(source string) []string {
	if source == "" {
		return nil
	}
	lines := strings.Split(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Materialize extracts one chunk from the document. The substring covers
// [ContextStart, PrimaryEnd], overlap context included, so the content
// hash changes whenever the preceding chunk's trailing lines change. The
// overlap is part of what the generator sees, so it is part of the key.
func Materialize(plan *types.ChunkPlan, lines []string, documentKey string, spans []types.UnitSpan) (*types.Chunk, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("malformed plan %d: %w", plan.SequenceIndex, err)
	}
	if plan.PrimaryEnd > len(lines) {
		return nil, fmt.Errorf("malformed plan %d: end line %d exceeds document length %d",
			plan.SequenceIndex, plan.PrimaryEnd, len(lines))
	}

	chunk := &types.Chunk{
		DocumentKey:   documentKey,
		SequenceIndex: plan.SequenceIndex,
		SourceText:    strings.Join(lines[plan.ContextStart-1:plan.PrimaryEnd], "\n"),
		Metadata: types.ChunkMetadata{
			UnitNames:  plan.UnitNames,
			StartLine:  plan.ContextStart,
			EndLine:    plan.PrimaryEnd,
			KindCounts: kindCounts(spans, plan.ContextStart, plan.PrimaryEnd),
		},
	}
	chunk.ComputeContentHash()
	return chunk, nil
}

// MaterializeAll materializes every plan of a document in order.
func MaterializeAll(plans []types.ChunkPlan, source, documentKey string, spans []types.UnitSpan) ([]*types.Chunk, error) {
	lines := SplitLines(source)
	chunks := make([]*types.Chunk, 0, len(plans))
	for i := range plans {
		chunk, err := Materialize(&plans[i], lines, documentKey, spans)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// kindCounts tallies depth-0 unit kinds intersecting [start, end].
func kindCounts(spans []types.UnitSpan, start, end int) map[types.UnitKind]int {
	var counts map[types.UnitKind]int
	for i := range spans {
		s := &spans[i]
		if s.Depth != 0 || s.StartLine > end || s.EndLine < start {
			continue
		}
		if counts == nil {
			counts = make(map[types.UnitKind]int)
		}
		counts[s.Kind]++
	}
	return counts
}
