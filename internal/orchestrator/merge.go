package orchestrator

import (
	"fmt"
	"strings"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// MergeArtifacts assembles per-chunk artifacts into one document-level
// artifact. A single-chunk document's artifact passes through untouched;
// multi-chunk documents get a header plus one section per chunk, with
// redundant top-level headings stripped.
func MergeArtifacts(documentKey string, chunks []types.ChunkResult) string {
	if len(chunks) == 0 {
		return ""
	}
	if len(chunks) == 1 {
		return chunks[0].Artifact
	}

	var parts []string
	parts = append(parts,
		fmt.Sprintf("# Documentation: %s", documentKey),
		"",
		fmt.Sprintf("*This file was processed in %d chunks.*", len(chunks)),
		"")

	for i := range chunks {
		c := &chunks[i]
		parts = append(parts, fmt.Sprintf("## Chunk %d: Lines %d-%d",
			c.SequenceIndex+1, c.Metadata.StartLine, c.Metadata.EndLine), "")
		if len(c.Metadata.UnitNames) > 0 {
			parts = append(parts, fmt.Sprintf("*Contains: %s*", strings.Join(c.Metadata.UnitNames, ", ")), "")
		}
		parts = append(parts, stripTopHeading(c.Artifact), "", "---", "")
	}

	return strings.Join(parts, "\n")
}

// stripTopHeading drops a leading "# " line so chunk sections nest under
// the merged document's own title.
func stripTopHeading(artifact string) string {
	lines := strings.Split(artifact, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "# ") {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
