// Package generator holds the clients for the remote text-generation
// collaborator. Each provider accepts a chunk's source text under a time
// budget and returns a documentation artifact; the chunk size ceiling
// upstream exists precisely to keep each call inside that budget.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrEmptySource       = errors.New("source text cannot be empty")
	ErrNoProviderEnabled = errors.New("no generation provider configured")
	ErrUnsupportedModel  = errors.New("unsupported provider")
)

// Request carries one chunk's input to the generation collaborator.
type Request struct {
	SourceText  string
	DocumentKey string

	// Chunk placement, for prompt context.
	ChunkIndex int // 0-based
	ChunkCount int
	StartLine  int
	EndLine    int
	UnitNames  []string
}

// Result is the collaborator's output for one chunk.
type Result struct {
	Artifact string
	Model    string
	Tokens   int
	Cost     float64 // USD, estimated from token usage
}

// Generator is the remote generation collaborator at its interface
// boundary. Implementations must be safe for concurrent use; failures
// surface as types.ErrGenerationTimeout or types.ErrGenerationFailed so
// the orchestrator can mark the chunk's slot.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases any resources held by the generator.
	Close() error
}

// ValidateRequest rejects requests no provider could serve.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.SourceText) == "" {
		return ErrEmptySource
	}
	return nil
}

// BuildPrompt renders the shared documentation prompt for a chunk. The
// placement header tells the model this is a fragment of a larger file so
// it documents the units present instead of inventing a file overview.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Generate developer documentation for the following source code.\n\n")
	if req.ChunkCount > 1 {
		fmt.Fprintf(&b, "This is part %d of %d of the file %s (lines %d-%d).\n",
			req.ChunkIndex+1, req.ChunkCount, req.DocumentKey, req.StartLine, req.EndLine)
		if len(req.UnitNames) > 0 {
			fmt.Fprintf(&b, "Contains: %s.\n", strings.Join(req.UnitNames, ", "))
		}
		b.WriteString("Focus on the functions and types present in this part.\n")
	} else {
		fmt.Fprintf(&b, "File: %s\n", req.DocumentKey)
	}
	b.WriteString("\n```\n")
	b.WriteString(req.SourceText)
	if !strings.HasSuffix(req.SourceText, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}
