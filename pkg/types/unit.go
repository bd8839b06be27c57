package types

import "errors"

// UnitKind classifies a structural unit found by boundary extraction.
type UnitKind string

const (
	UnitFunction      UnitKind = "function"
	UnitAsyncFunction UnitKind = "async_function"
	UnitClass         UnitKind = "class"
	UnitMethod        UnitKind = "method"
	UnitOther         UnitKind = "other"
)

// DefaultUnitKinds are the kinds eligible as split boundaries when the
// configuration does not narrow them.
func DefaultUnitKinds() []UnitKind {
	return []UnitKind{UnitFunction, UnitAsyncFunction, UnitClass, UnitMethod, UnitOther}
}

// UnitSpan is one structural unit located in a source document. Lines are
// 1-based and inclusive. Spans at the same depth are non-overlapping and
// sorted by StartLine. Immutable once produced by an extractor.
type UnitSpan struct {
	Kind      UnitKind
	Name      string // may be empty for anonymous or other-top-level units
	StartLine int
	EndLine   int
	Depth     int // 0 = top-level
}

// Lines returns the number of source lines the span covers.
func (u *UnitSpan) Lines() int {
	return u.EndLine - u.StartLine + 1
}

// Validate checks the span's internal invariants.
func (u *UnitSpan) Validate() error {
	if u.StartLine <= 0 || u.EndLine <= 0 {
		return errors.New("unit span line numbers must be positive")
	}
	if u.StartLine > u.EndLine {
		return errors.New("unit span start line must not exceed end line")
	}
	if u.Depth < 0 {
		return errors.New("unit span depth must not be negative")
	}
	return nil
}

// ValidateKind checks that the kind is one of the known categories.
func (u *UnitSpan) ValidateKind() error {
	switch u.Kind {
	case UnitFunction, UnitAsyncFunction, UnitClass, UnitMethod, UnitOther:
		return nil
	default:
		return errors.New("invalid unit kind")
	}
}
