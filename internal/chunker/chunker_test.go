package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

func numberedDoc(lines int) string {
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{""}, SplitLines("\n"))
}

func TestMaterialize_ExactSubstring(t *testing.T) {
	doc := numberedDoc(10)
	plan := types.ChunkPlan{SequenceIndex: 1, PrimaryStart: 4, PrimaryEnd: 8, ContextStart: 2}

	chunk, err := Materialize(&plan, SplitLines(doc), "doc.py", nil)
	require.NoError(t, err)

	assert.Equal(t, "doc.py", chunk.DocumentKey)
	assert.Equal(t, 1, chunk.SequenceIndex)
	assert.Equal(t, "line 2\nline 3\nline 4\nline 5\nline 6\nline 7\nline 8", chunk.SourceText)
	assert.Equal(t, 2, chunk.Metadata.StartLine)
	assert.Equal(t, 8, chunk.Metadata.EndLine)
	assert.NoError(t, chunk.Validate())
}

func TestMaterialize_HashIsIdempotent(t *testing.T) {
	doc := numberedDoc(20)
	plan := types.ChunkPlan{SequenceIndex: 0, PrimaryStart: 1, PrimaryEnd: 10, ContextStart: 1}

	first, err := Materialize(&plan, SplitLines(doc), "doc.py", nil)
	require.NoError(t, err)
	second, err := Materialize(&plan, SplitLines(doc), "doc.py", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, types.HashContent(first.SourceText), first.ContentHash)
}

func TestMaterialize_OverlapIsPartOfTheHash(t *testing.T) {
	doc := numberedDoc(20)
	withOverlap := types.ChunkPlan{SequenceIndex: 1, PrimaryStart: 11, PrimaryEnd: 20, ContextStart: 9}
	withoutOverlap := types.ChunkPlan{SequenceIndex: 1, PrimaryStart: 11, PrimaryEnd: 20, ContextStart: 11}

	a, err := Materialize(&withOverlap, SplitLines(doc), "doc.py", nil)
	require.NoError(t, err)
	b, err := Materialize(&withoutOverlap, SplitLines(doc), "doc.py", nil)
	require.NoError(t, err)

	// A change in the trailing context changes what the generator sees,
	// so it must change the cache key too.
	assert.NotEqual(t, a.ContentHash, b.ContentHash)
}

func TestMaterialize_SameContentCollidesAcrossDocuments(t *testing.T) {
	doc := numberedDoc(10)
	plan := types.ChunkPlan{SequenceIndex: 0, PrimaryStart: 1, PrimaryEnd: 10, ContextStart: 1}

	a, err := Materialize(&plan, SplitLines(doc), "first.py", nil)
	require.NoError(t, err)
	b, err := Materialize(&plan, SplitLines(doc), "second.py", nil)
	require.NoError(t, err)

	// Intentional: identical substrings share a hash so the cache can be
	// reused across documents.
	assert.Equal(t, a.ContentHash, b.ContentHash)
}

func TestMaterialize_KindCounts(t *testing.T) {
	doc := numberedDoc(30)
	spans := []types.UnitSpan{
		{Kind: types.UnitFunction, Name: "a", StartLine: 1, EndLine: 10},
		{Kind: types.UnitFunction, Name: "b", StartLine: 11, EndLine: 20},
		{Kind: types.UnitClass, Name: "C", StartLine: 21, EndLine: 30},
	}
	plan := types.ChunkPlan{
		SequenceIndex: 0, PrimaryStart: 1, PrimaryEnd: 20, ContextStart: 1,
		UnitNames: []string{"a", "b"},
	}

	chunk, err := Materialize(&plan, SplitLines(doc), "doc.py", spans)
	require.NoError(t, err)
	assert.Equal(t, map[types.UnitKind]int{types.UnitFunction: 2}, chunk.Metadata.KindCounts)
	assert.Equal(t, []string{"a", "b"}, chunk.Metadata.UnitNames)
}

func TestMaterialize_MalformedPlan(t *testing.T) {
	doc := numberedDoc(5)

	outOfRange := types.ChunkPlan{SequenceIndex: 0, PrimaryStart: 1, PrimaryEnd: 9, ContextStart: 1}
	_, err := Materialize(&outOfRange, SplitLines(doc), "doc.py", nil)
	assert.Error(t, err)

	inverted := types.ChunkPlan{SequenceIndex: 0, PrimaryStart: 4, PrimaryEnd: 2, ContextStart: 1}
	_, err = Materialize(&inverted, SplitLines(doc), "doc.py", nil)
	assert.Error(t, err)
}

func TestMaterializeAll(t *testing.T) {
	doc := numberedDoc(12)
	plans := []types.ChunkPlan{
		{SequenceIndex: 0, PrimaryStart: 1, PrimaryEnd: 6, ContextStart: 1},
		{SequenceIndex: 1, PrimaryStart: 7, PrimaryEnd: 12, ContextStart: 5},
	}

	chunks, err := MaterializeAll(plans, doc, "doc.py", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].SequenceIndex)
	assert.Equal(t, 1, chunks[1].SequenceIndex)
	assert.True(t, strings.HasPrefix(chunks[1].SourceText, "line 5\n"))
}
