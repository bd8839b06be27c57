package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

const pySample = `import os

VERSION = "1.0"

def top(a, b):
    """Docstring."""
    return a + b

@decorator
async def fetch(url):
    return await get(url)

class Widget:
    def __init__(self, name):
        self.name = name

    def render(self):
        return self.name

def tail():
    pass
`

func TestPythonExtract_Units(t *testing.T) {
	ex := NewPython()
	spans, err := ex.Extract("sample.py", pySample)
	require.NoError(t, err)

	byName := map[string]types.UnitSpan{}
	for _, s := range spans {
		assert.NoError(t, s.Validate())
		byName[s.Name] = s
	}

	top, ok := byName["top"]
	require.True(t, ok)
	assert.Equal(t, types.UnitFunction, top.Kind)
	assert.Equal(t, 0, top.Depth)
	assert.Equal(t, 5, top.StartLine)
	assert.Equal(t, 7, top.EndLine)

	fetch, ok := byName["fetch"]
	require.True(t, ok)
	assert.Equal(t, types.UnitAsyncFunction, fetch.Kind)
	assert.Equal(t, 9, fetch.StartLine, "decorator belongs to the unit")
	assert.Equal(t, 11, fetch.EndLine)

	widget, ok := byName["Widget"]
	require.True(t, ok)
	assert.Equal(t, types.UnitClass, widget.Kind)
	assert.Equal(t, 0, widget.Depth)
	assert.Equal(t, 13, widget.StartLine)
	assert.Equal(t, 18, widget.EndLine)

	render, ok := byName["Widget.render"]
	require.True(t, ok)
	assert.Equal(t, types.UnitMethod, render.Kind)
	assert.Equal(t, 1, render.Depth)
	assert.Equal(t, 17, render.StartLine)
	assert.Equal(t, 18, render.EndLine)

	tail, ok := byName["tail"]
	require.True(t, ok)
	assert.Equal(t, 20, tail.StartLine)
	assert.Equal(t, 21, tail.EndLine)
}

func TestPythonExtract_TripleQuotedStringsAreOpaque(t *testing.T) {
	source := `def real():
    return 1

DOC = """
def fake():
    pass
"""

def other():
    return 2
`
	ex := NewPython()
	spans, err := ex.Extract("sample.py", source)
	require.NoError(t, err)

	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "real")
	assert.Contains(t, names, "other")
	assert.NotContains(t, names, "fake")
}

func TestPythonExtract_UnterminatedString(t *testing.T) {
	source := "def f():\n    pass\n\nDOC = \"\"\"never closed\n"
	ex := NewPython()
	_, err := ex.Extract("bad.py", source)
	require.Error(t, err)

	var parseErr *types.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 4, parseErr.Line)
}

func TestPythonExtract_InvalidUTF8(t *testing.T) {
	ex := NewPython()
	_, err := ex.Extract("bad.py", "def f():\n    return \xff\n")
	var parseErr *types.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Line)
}

func TestPythonExtract_Deterministic(t *testing.T) {
	ex := NewPython()
	first, err := ex.Extract("sample.py", pySample)
	require.NoError(t, err)
	second, err := ex.Extract("sample.py", pySample)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPythonExtract_NoUnits(t *testing.T) {
	ex := NewPython()
	spans, err := ex.Extract("flat.py", "x = 1\ny = 2\n")
	require.NoError(t, err)
	assert.Empty(t, spans)
}
