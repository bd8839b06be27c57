package generator

import (
	"context"
	"fmt"
	"strings"
)

// StaticProvider is a no-network generator producing a deterministic
// outline-style artifact from chunk metadata. It keeps the pipeline usable
// without credentials and doubles as the offline fallback.
type StaticProvider struct {
	model string
}

// NewStaticProvider creates the local outline generator.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{model: "static-outline"}
}

func (s *StaticProvider) Generate(_ context.Context, req Request) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Overview\n\nLines %d-%d of %s.\n", req.StartLine, req.EndLine, req.DocumentKey)
	if len(req.UnitNames) > 0 {
		b.WriteString("\n### Units\n\n")
		for _, name := range req.UnitNames {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
	}

	return &Result{
		Artifact: b.String(),
		Model:    s.model,
		Tokens:   0,
	}, nil
}

func (s *StaticProvider) Provider() string { return ProviderStatic }
func (s *StaticProvider) Model() string    { return s.model }
func (s *StaticProvider) Close() error     { return nil }
