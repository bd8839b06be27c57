// Package extractor turns source text into a structural outline: an ordered
// sequence of unit spans (functions, classes, methods) that the planner
// treats as atomic. Implementations are registered per language; output is
// deterministic for identical input.
package extractor

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// Extractor parses source text into an ordered sequence of unit spans.
// Implementations must be safe for concurrent use and must produce
// byte-identical output for identical input.
type Extractor interface {
	// Extract returns spans sorted by StartLine. A *types.ParseError means
	// the source is not syntactically parseable; callers degrade to
	// line-based chunking rather than failing the pipeline.
	Extract(documentKey, source string) ([]types.UnitSpan, error)

	// Language returns the language tag this extractor handles.
	Language() string
}

// ForLanguage selects an extractor by language tag.
func ForLanguage(lang string) (Extractor, error) {
	switch strings.ToLower(lang) {
	case "go", "golang":
		return NewGo(), nil
	case "python", "py":
		return NewPython(), nil
	default:
		return nil, fmt.Errorf("no extractor for language %q", lang)
	}
}

// ForDocument selects an extractor from a document key's file extension.
func ForDocument(documentKey string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(documentKey)) {
	case ".go":
		return NewGo(), nil
	case ".py":
		return NewPython(), nil
	default:
		return nil, fmt.Errorf("no extractor for document %q", documentKey)
	}
}

// FilterKinds drops spans whose kind is not an eligible split boundary.
// Dropped spans' lines become plain filler for the planner.
func FilterKinds(spans []types.UnitSpan, kinds []types.UnitKind) []types.UnitSpan {
	if len(kinds) == 0 {
		return spans
	}
	eligible := make(map[types.UnitKind]bool, len(kinds))
	for _, k := range kinds {
		eligible[k] = true
	}
	out := make([]types.UnitSpan, 0, len(spans))
	for _, s := range spans {
		if eligible[s.Kind] {
			out = append(out, s)
		}
	}
	return out
}

// sortSpans orders spans by start line, then by depth so an enclosing unit
// precedes its members.
func sortSpans(spans []types.UnitSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartLine != spans[j].StartLine {
			return spans[i].StartLine < spans[j].StartLine
		}
		return spans[i].Depth < spans[j].Depth
	})
}
