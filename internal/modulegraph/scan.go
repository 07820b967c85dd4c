// Package modulegraph builds the module dependency graph a bundle or dev
// session is compiled from: specifier scanning, dense id interning, and
// topological emission order.
//
// Specifier extraction is AST-based via tree-sitter: a ParseCtx wraps a
// tree-sitter parser and walks its node tree with a recursive
// node-type switch, repurposed here from declaration extraction to
// import/export/require specifier extraction.
package modulegraph

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Specifier is one import/export/require reference found in a module's
// source text.
type Specifier struct {
	Value   string   // the raw specifier string, quotes stripped
	Dynamic bool     // true for import("x") — a code-split boundary
	Names   []string // imported binding names ("*" = namespace, "default" = default import); nil for require()/dynamic/side-effect-only imports
}

// Scanner extracts specifiers from source text using the grammar that
// matches path's extension.
type Scanner struct{}

func NewScanner() *Scanner { return &Scanner{} }

// Scan parses source and returns every static and dynamic specifier it
// references. Specifier-looking text inside string/template literals and
// comments is never extracted: the walk visits every node but records only
// import/export statements with a source and import()/require() calls whose
// first argument is a string literal.
func (s *Scanner) Scan(path string, source []byte) ([]Specifier, error) {
	lang := languageFor(path)
	if lang == nil {
		return nil, fmt.Errorf("modulegraph: no grammar for %s", path)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("modulegraph: parse %s: %w", path, err)
	}
	defer tree.Close()

	var out []Specifier
	walkSpecifiers(tree.RootNode(), source, &out)
	return out, nil
}

func languageFor(path string) *sitter.Language {
	switch {
	case strings.HasSuffix(path, ".tsx"):
		return tsx.GetLanguage()
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".mts"), strings.HasSuffix(path, ".cts"):
		return typescript.GetLanguage()
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".mjs"), strings.HasSuffix(path, ".cjs"), strings.HasSuffix(path, ".jsx"):
		return javascript.GetLanguage()
	default:
		return nil
	}
}

func walkSpecifiers(node *sitter.Node, content []byte, out *[]Specifier) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "import_statement":
		if src := node.ChildByFieldName("source"); src != nil {
			names := extractImportNames(node, content)
			*out = append(*out, Specifier{Value: stringLiteralValue(src, content), Names: names})
		}

	case "export_statement":
		if src := node.ChildByFieldName("source"); src != nil {
			*out = append(*out, Specifier{Value: stringLiteralValue(src, content)})
		}

	case "call_expression":
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")
		if fn != nil && args != nil && args.NamedChildCount() > 0 {
			first := args.NamedChild(0)
			if first != nil && first.Type() == "string" {
				switch {
				case fn.Type() == "import":
					*out = append(*out, Specifier{Value: stringLiteralValue(first, content), Dynamic: true})
				case fn.Type() == "identifier" && nodeText(fn, content) == "require":
					*out = append(*out, Specifier{Value: stringLiteralValue(first, content)})
				}
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkSpecifiers(node.Child(i), content, out)
	}
}

// extractImportNames reads an import_statement's import_clause and returns
// every binding name it brings in: "default" for a default import, "*" for
// a namespace import, and each named-import's original (pre-alias) name.
func extractImportNames(importStmt *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(importStmt.ChildCount()); i++ {
		clause := importStmt.Child(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.ChildCount()); j++ {
			part := clause.Child(j)
			switch part.Type() {
			case "identifier":
				names = append(names, "default")
			case "namespace_import":
				names = append(names, "*")
			case "named_imports":
				for k := 0; k < int(part.NamedChildCount()); k++ {
					spec := part.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					if n := spec.ChildByFieldName("name"); n != nil {
						names = append(names, nodeText(n, content))
					}
				}
			}
		}
	}
	return names
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

// stringLiteralValue strips the surrounding quote characters from a
// tree-sitter "string" node's raw text.
func stringLiteralValue(node *sitter.Node, content []byte) string {
	raw := nodeText(node, content)
	return strings.Trim(raw, `"'`+"`")
}
