// Package planner partitions a document into an ordered sequence of chunk
// plans. Primary ranges are contiguous and exhaustive; structural units are
// never split across a chunk boundary.
package planner

import (
	"fmt"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// Limits are the planner's size targets. All values are positive line
// counts with MinChunkLines < MaxChunkLines and OverlapLines < MinChunkLines.
type Limits struct {
	MaxChunkLines int
	MinChunkLines int
	OverlapLines  int
}

// Validate rejects invalid limits with a PlanningError.
func (l Limits) Validate() error {
	if l.MaxChunkLines <= 0 || l.MinChunkLines <= 0 || l.OverlapLines <= 0 {
		return &types.PlanningError{Msg: "chunk line limits must be positive"}
	}
	if l.MinChunkLines >= l.MaxChunkLines {
		return &types.PlanningError{Msg: fmt.Sprintf(
			"min chunk lines (%d) must be less than max chunk lines (%d)",
			l.MinChunkLines, l.MaxChunkLines)}
	}
	if l.OverlapLines >= l.MinChunkLines {
		return &types.PlanningError{Msg: fmt.Sprintf(
			"overlap lines (%d) must be less than min chunk lines (%d)",
			l.OverlapLines, l.MinChunkLines)}
	}
	return nil
}

// segment is a run of lines the accumulator consumes. A unit segment is
// atomic; filler (lines not covered by any top-level unit) may be split at
// any line.
type segment struct {
	start, end int
	atomic     bool
}

// Plan walks the top-level units in order, accumulating lines into chunks.
// Policy:
//   - a unit is never split; a chunk closes before a unit when adding it
//     would reach or exceed MaxChunkLines and the chunk already meets
//     MinChunkLines (reaching the ceiling exactly also closes: more,
//     smaller chunks are preferred near the ceiling);
//   - a single unit larger than MaxChunkLines becomes its own chunk, the
//     ceiling notwithstanding;
//   - a trailing chunk below MinChunkLines is still emitted, never merged
//     backward.
//
// Every chunk after the first carries OverlapLines of trailing context from
// the preceding primary range, clamped at that range's own start.
func Plan(spans []types.UnitSpan, totalLines int, limits Limits) ([]types.ChunkPlan, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if totalLines <= 0 {
		return nil, nil
	}

	segments := buildSegments(spans, totalLines)

	var plans []types.ChunkPlan
	curStart, curEnd := 0, 0 // 0 = no open chunk

	curLen := func() int {
		if curStart == 0 {
			return 0
		}
		return curEnd - curStart + 1
	}
	flush := func() {
		if curStart != 0 {
			plans = append(plans, types.ChunkPlan{PrimaryStart: curStart, PrimaryEnd: curEnd})
			curStart, curEnd = 0, 0
		}
	}

	for _, seg := range segments {
		if seg.atomic {
			segLen := seg.end - seg.start + 1
			if segLen > limits.MaxChunkLines {
				// Oversized unit: the never-split invariant dominates the
				// size target.
				flush()
				plans = append(plans, types.ChunkPlan{PrimaryStart: seg.start, PrimaryEnd: seg.end})
				continue
			}
			if curLen() >= limits.MinChunkLines && curLen()+segLen >= limits.MaxChunkLines {
				flush()
			}
			if curStart == 0 {
				curStart = seg.start
			}
			curEnd = seg.end
			continue
		}

		// Filler is divisible: fill the open chunk to the ceiling and roll
		// the remainder into fresh chunks.
		remStart := seg.start
		for remStart <= seg.end {
			if curStart == 0 {
				curStart = remStart
				curEnd = remStart - 1
			}
			space := limits.MaxChunkLines - curLen()
			if space <= 0 {
				flush()
				continue
			}
			avail := seg.end - remStart + 1
			if avail <= space {
				curEnd = seg.end
				break
			}
			curEnd += space
			remStart += space
			flush()
		}
	}
	flush()

	finalize(plans, spans, limits)
	return plans, nil
}

// PlanFallback produces pure line-based plans for a document whose source
// could not be parsed. Required degradation path: the pipeline chunks by
// lines instead of failing.
func PlanFallback(totalLines int, limits Limits) ([]types.ChunkPlan, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if totalLines <= 0 {
		return nil, nil
	}

	plans := make([]types.ChunkPlan, 0, (totalLines+limits.MaxChunkLines-1)/limits.MaxChunkLines)
	for start := 1; start <= totalLines; start += limits.MaxChunkLines {
		end := start + limits.MaxChunkLines - 1
		if end > totalLines {
			end = totalLines
		}
		plans = append(plans, types.ChunkPlan{PrimaryStart: start, PrimaryEnd: end})
	}

	finalize(plans, nil, limits)
	return plans, nil
}

// buildSegments turns the depth-0 unit spans plus the gaps between them
// into an ordered, exhaustive segment sequence over [1, totalLines].
// Malformed or overlapping spans are dropped rather than trusted.
func buildSegments(spans []types.UnitSpan, totalLines int) []segment {
	var segments []segment
	next := 1 // first line not yet covered

	for i := range spans {
		s := &spans[i]
		if s.Depth != 0 || s.Validate() != nil {
			continue
		}
		start, end := s.StartLine, s.EndLine
		if start < next {
			start = next // clip overlap with the previous unit
		}
		if end > totalLines {
			end = totalLines
		}
		if start > end || start > totalLines {
			continue
		}
		if start > next {
			segments = append(segments, segment{start: next, end: start - 1})
		}
		segments = append(segments, segment{start: start, end: end, atomic: true})
		next = end + 1
	}
	if next <= totalLines {
		segments = append(segments, segment{start: next, end: totalLines})
	}
	return segments
}

// finalize assigns sequence indexes, overlap context windows, and the unit
// names each chunk covers.
func finalize(plans []types.ChunkPlan, spans []types.UnitSpan, limits Limits) {
	for i := range plans {
		p := &plans[i]
		p.SequenceIndex = i
		p.ContextStart = p.PrimaryStart
		if i > 0 {
			ctx := p.PrimaryStart - limits.OverlapLines
			// Clamp at the previous chunk's own start: overlap never
			// chains transitively through earlier chunks.
			if prev := plans[i-1].PrimaryStart; ctx < prev {
				ctx = prev
			}
			p.ContextStart = ctx
		}
		p.UnitNames = unitNamesIn(spans, p.ContextStart, p.PrimaryEnd)
	}
}

// unitNamesIn lists named depth-0 units intersecting [start, end], in order.
func unitNamesIn(spans []types.UnitSpan, start, end int) []string {
	var names []string
	for i := range spans {
		s := &spans[i]
		if s.Depth != 0 || s.Name == "" {
			continue
		}
		if s.StartLine <= end && s.EndLine >= start {
			names = append(names, s.Name)
		}
	}
	return names
}
