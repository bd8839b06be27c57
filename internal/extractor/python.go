package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// PythonExtractor extracts def / async def / class units from Python source
// with an indentation-tracking line scanner. It is deliberately minimal: it
// does not evaluate the grammar, only the structural outline, which is all
// the planner needs.
type PythonExtractor struct{}

// NewPython creates a Python extractor.
func NewPython() *PythonExtractor {
	return &PythonExtractor{}
}

func (p *PythonExtractor) Language() string { return "python" }

var (
	rePyUnit = regexp.MustCompile(`^([ \t]*)(async[ \t]+def|def|class)[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)
	rePyDeco = regexp.MustCompile(`^[ \t]*@`)
)

// openUnit is a construct whose end line is not yet known.
type openUnit struct {
	spanIdx int
	indent  int
}

// Extract scans the source line by line. Triple-quoted strings are tracked
// so their contents never open or close units; decorators extend the span
// of the unit they annotate.
func (p *PythonExtractor) Extract(documentKey, source string) ([]types.UnitSpan, error) {
	if !utf8.ValidString(source) {
		return nil, &types.ParseError{
			DocumentKey: documentKey,
			Line:        lineOfInvalidUTF8(source),
			Msg:         "source is not valid UTF-8",
		}
	}

	lines := strings.Split(source, "\n")
	spans := make([]types.UnitSpan, 0, 16)
	var open []openUnit

	inString := false
	stringDelim := ""
	stringOpenLine := 0

	lastCode := 0  // 1-based line number of the last non-blank line seen
	decoStart := 0 // start of a pending decorator run, 0 when none
	decoIndent := -1

	closeDownTo := func(indent, endLine int) {
		for len(open) > 0 && open[len(open)-1].indent >= indent {
			top := open[len(open)-1]
			open = open[:len(open)-1]
			if endLine < spans[top.spanIdx].StartLine {
				endLine = spans[top.spanIdx].StartLine
			}
			spans[top.spanIdx].EndLine = endLine
		}
	}

	for i, raw := range lines {
		lineNo := i + 1

		if inString {
			if strings.Count(raw, stringDelim)%2 == 1 {
				inString = false
			}
			if strings.TrimSpace(raw) != "" {
				lastCode = lineNo
			}
			continue
		}

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		if m := rePyUnit.FindStringSubmatch(raw); m != nil {
			indent := indentWidth(m[1])

			start := lineNo
			if decoStart > 0 && decoIndent == indent {
				start = decoStart
			}
			// Close siblings and deeper constructs before this one opens.
			// A decorator run belongs to the new unit, not the closing one.
			closeDownTo(indent, lastBefore(lines, start-1))

			span := types.UnitSpan{
				Name:      m[3],
				StartLine: start,
				EndLine:   lineNo, // finalized on close
				Depth:     len(open),
			}
			switch {
			case m[2] == "class":
				span.Kind = types.UnitClass
			case strings.HasPrefix(m[2], "async"):
				span.Kind = types.UnitAsyncFunction
			default:
				span.Kind = types.UnitFunction
			}
			if len(open) > 0 {
				parent := spans[open[len(open)-1].spanIdx]
				if parent.Kind == types.UnitClass && span.Kind == types.UnitFunction {
					span.Kind = types.UnitMethod
				}
				if parent.Name != "" {
					span.Name = parent.Name + "." + span.Name
				}
			}

			spans = append(spans, span)
			open = append(open, openUnit{spanIdx: len(spans) - 1, indent: indent})
			decoStart, decoIndent = 0, -1
			lastCode = lineNo
			continue
		}

		if rePyDeco.MatchString(raw) {
			if decoStart == 0 {
				decoStart = lineNo
				decoIndent = indentWidth(raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))])
			}
			lastCode = lineNo
			continue
		}
		decoStart, decoIndent = 0, -1

		// Statement at or above an open unit's indent closes it.
		if !strings.HasPrefix(trimmed, "#") {
			closeDownTo(indentWidth(raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]), lastCode)
		}
		lastCode = lineNo

		if delim, pos := firstTripleQuote(raw); delim != "" {
			rest := raw[pos+3:]
			if !strings.Contains(rest, delim) {
				inString = true
				stringDelim = delim
				stringOpenLine = lineNo
			}
		}
	}

	if inString {
		return nil, &types.ParseError{
			DocumentKey: documentKey,
			Line:        stringOpenLine,
			Msg:         "unterminated triple-quoted string",
		}
	}

	closeDownTo(0, lastCode)
	sortSpans(spans)
	return spans, nil
}

// lastBefore returns the 1-based number of the last non-blank line at or
// before limit, or limit itself when everything above is blank.
func lastBefore(lines []string, limit int) int {
	for n := limit; n >= 1; n-- {
		if strings.TrimSpace(lines[n-1]) != "" {
			return n
		}
	}
	return limit
}

// indentWidth computes the indentation column, expanding tabs to 8.
func indentWidth(prefix string) int {
	width := 0
	for _, r := range prefix {
		if r == '\t' {
			width += 8 - width%8
		} else {
			width++
		}
	}
	return width
}

// firstTripleQuote finds the first triple-quote delimiter on a line.
func firstTripleQuote(line string) (string, int) {
	d := strings.Index(line, `"""`)
	s := strings.Index(line, "'''")
	switch {
	case d == -1 && s == -1:
		return "", -1
	case s == -1 || (d != -1 && d < s):
		return `"""`, d
	default:
		return "'''", s
	}
}

func lineOfInvalidUTF8(source string) int {
	line := 1
	for i := 0; i < len(source); {
		r, size := utf8.DecodeRuneInString(source[i:])
		if r == utf8.RuneError && size == 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return 0
}
