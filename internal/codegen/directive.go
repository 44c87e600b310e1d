package codegen

import (
	"go/ast"
	"go/token"
	"strings"
)

// Directives recognized on type declarations.
const (
	// DirectiveDerive marks a struct for generation.
	DirectiveDerive = "//generic:derive"
	// DirectiveSum marks an interface as a sealed sum. Its variants are the
	// package's named types implementing it, in declaration order.
	DirectiveSum = "//generic:sum"
)

type directives struct {
	derive []string
	sums   []string
}

// scanDirectives collects marked type names from a file in declaration
// order. A directive applies from the type's own doc comment, or from the
// declaration's when it declares a single type.
func scanDirectives(file *ast.File, into *directives) {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			switch {
			case hasDirective(doc, DirectiveSum):
				into.sums = append(into.sums, ts.Name.Name)
			case hasDirective(doc, DirectiveDerive):
				into.derive = append(into.derive, ts.Name.Name)
			}
		}
	}
}

func hasDirective(doc *ast.CommentGroup, want string) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == want {
			return true
		}
	}
	return false
}
