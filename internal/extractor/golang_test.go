package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

const goSample = `package sample

import "fmt"

// Greet prints a greeting.
func Greet(name string) {
	fmt.Println("hello", name)
}

type Counter struct {
	n int
}

// Add increments the counter.
func (c *Counter) Add(delta int) {
	c.n += delta
}

const limit = 10
`

func TestGoExtract_TopLevelUnits(t *testing.T) {
	ex := NewGo()
	spans, err := ex.Extract("sample.go", goSample)
	require.NoError(t, err)
	require.Len(t, spans, 5)

	byName := map[string]types.UnitSpan{}
	for _, s := range spans {
		assert.Equal(t, 0, s.Depth)
		assert.NoError(t, s.Validate())
		byName[s.Name] = s
	}

	greet := byName["Greet"]
	assert.Equal(t, types.UnitFunction, greet.Kind)
	assert.Equal(t, 5, greet.StartLine, "doc comment travels with the unit")
	assert.Equal(t, 8, greet.EndLine)

	counter := byName["Counter"]
	assert.Equal(t, types.UnitClass, counter.Kind)

	add := byName["Counter.Add"]
	assert.Equal(t, types.UnitMethod, add.Kind)
	assert.Equal(t, 14, add.StartLine)
	assert.Equal(t, 17, add.EndLine)
}

func TestGoExtract_SortedByStartLine(t *testing.T) {
	ex := NewGo()
	spans, err := ex.Extract("sample.go", goSample)
	require.NoError(t, err)
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].StartLine, spans[i].StartLine)
	}
}

func TestGoExtract_Deterministic(t *testing.T) {
	ex := NewGo()
	first, err := ex.Extract("sample.go", goSample)
	require.NoError(t, err)
	second, err := ex.Extract("sample.go", goSample)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGoExtract_ParseError(t *testing.T) {
	ex := NewGo()
	_, err := ex.Extract("broken.go", "package sample\n\nfunc Broken( {\n")
	require.Error(t, err)

	var parseErr *types.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "broken.go", parseErr.DocumentKey)
	assert.Greater(t, parseErr.Line, 0, "offending line should be determinable")
}

func TestForLanguageAndDocument(t *testing.T) {
	goEx, err := ForLanguage("Go")
	require.NoError(t, err)
	assert.Equal(t, "go", goEx.Language())

	pyEx, err := ForDocument("pkg/util.py")
	require.NoError(t, err)
	assert.Equal(t, "python", pyEx.Language())

	_, err = ForLanguage("cobol")
	assert.Error(t, err)
	_, err = ForDocument("README.md")
	assert.Error(t, err)
}

func TestFilterKinds(t *testing.T) {
	spans := []types.UnitSpan{
		{Kind: types.UnitFunction, Name: "a", StartLine: 1, EndLine: 5},
		{Kind: types.UnitClass, Name: "B", StartLine: 6, EndLine: 20},
		{Kind: types.UnitOther, StartLine: 21, EndLine: 22},
	}

	got := FilterKinds(spans, []types.UnitKind{types.UnitFunction})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)

	// No kinds configured means everything stays eligible.
	assert.Equal(t, spans, FilterKinds(spans, nil))
}
