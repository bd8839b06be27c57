package extractor

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// GoExtractor extracts top-level declarations from Go source using the
// standard AST parser.
type GoExtractor struct{}

// NewGo creates a Go extractor.
func NewGo() *GoExtractor {
	return &GoExtractor{}
}

func (g *GoExtractor) Language() string { return "go" }

// Extract parses the source and returns one span per top-level declaration.
// Methods carry their receiver-qualified name so chunk metadata stays
// unambiguous across types.
func (g *GoExtractor) Extract(documentKey, source string) ([]types.UnitSpan, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, documentKey, source, parser.ParseComments)
	if err != nil {
		return nil, goParseError(documentKey, err)
	}

	spans := make([]types.UnitSpan, 0, len(file.Decls))
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			spans = append(spans, goFuncSpan(fset, d))
		case *ast.GenDecl:
			if span, ok := goGenDeclSpan(fset, d); ok {
				spans = append(spans, span)
			}
		}
	}

	sortSpans(spans)
	return spans, nil
}

// goFuncSpan builds a span for a function or method declaration, including
// its doc comment so the comment travels with the unit.
func goFuncSpan(fset *token.FileSet, d *ast.FuncDecl) types.UnitSpan {
	span := types.UnitSpan{
		Kind:      types.UnitFunction,
		Name:      d.Name.Name,
		StartLine: declStartLine(fset, d.Pos(), d.Doc),
		EndLine:   fset.Position(d.End()).Line,
		Depth:     0,
	}
	if d.Recv != nil && len(d.Recv.List) > 0 {
		span.Kind = types.UnitMethod
		if recv := receiverName(d.Recv.List[0].Type); recv != "" {
			span.Name = recv + "." + d.Name.Name
		}
	}
	return span
}

// goGenDeclSpan builds a span for a type, const, var, or import block.
// Type declarations are the structural analog of classes; the rest count
// as other top-level units.
func goGenDeclSpan(fset *token.FileSet, d *ast.GenDecl) (types.UnitSpan, bool) {
	span := types.UnitSpan{
		Kind:      types.UnitOther,
		StartLine: declStartLine(fset, d.Pos(), d.Doc),
		EndLine:   fset.Position(d.End()).Line,
		Depth:     0,
	}
	if d.Tok == token.TYPE {
		span.Kind = types.UnitClass
		if len(d.Specs) == 1 {
			if ts, ok := d.Specs[0].(*ast.TypeSpec); ok {
				span.Name = ts.Name.Name
			}
		}
	}
	return span, true
}

func declStartLine(fset *token.FileSet, pos token.Pos, doc *ast.CommentGroup) int {
	if doc != nil {
		return fset.Position(doc.Pos()).Line
	}
	return fset.Position(pos).Line
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return ""
}

// goParseError converts a go/parser failure into the pipeline's ParseError,
// keeping the first offending line when the scanner reports one.
func goParseError(documentKey string, err error) *types.ParseError {
	perr := &types.ParseError{DocumentKey: documentKey, Msg: err.Error()}
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		perr.Line = list[0].Pos.Line
		perr.Msg = list[0].Msg
	}
	return perr
}
