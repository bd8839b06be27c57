package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrGenerationTimeout marks a per-chunk remote call that exceeded its
	// time budget. Recovered at chunk granularity.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrGenerationFailed marks a per-chunk remote call that failed after
	// exhausting retries. Recovered at chunk granularity.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrCacheUnavailable marks a cache backend error. Non-fatal: callers
	// log it and proceed as if the lookup missed.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// ParseError reports an unparseable source document. Recovery is the
// caller's responsibility: degrade to line-based chunking of the whole file.
type ParseError struct {
	DocumentKey string
	Line        int // 0 when the offending line is not determinable
	Msg         string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.DocumentKey, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.DocumentKey, e.Msg)
}

// PlanningError reports an invalid chunking configuration. Fatal: rejected
// before any remote calls are made.
type PlanningError struct {
	Msg string
}

func (e *PlanningError) Error() string {
	return "planning: " + e.Msg
}
