package bundler

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Declaration is one top-level `export`ed binding: its name and its byte
// span within the source, used to excise it when tree-shaking determines
// no consumer ever imports it.
type Declaration struct {
	Name  string
	Start uint32
	End   uint32
}

// ScanExportedDeclarations returns every single-binding top-level export
// declaration in source (export const/function/class <name>). Statements
// declaring more than one binding at once (`export const a = 1, b = 2;`)
// are not split and are left out of the result, so they are always
// conservatively retained by the emitter.
func ScanExportedDeclarations(path string, source []byte) ([]Declaration, error) {
	lang := exportLanguageFor(path)
	if lang == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var decls []Declaration
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "export_statement" {
			continue
		}
		decl := child.ChildByFieldName("declaration")
		if decl == nil {
			continue
		}
		name, ok := singleBindingName(decl, source)
		if !ok {
			continue
		}
		decls = append(decls, Declaration{Name: name, Start: child.StartByte(), End: child.EndByte()})
	}
	return decls, nil
}

func singleBindingName(decl *sitter.Node, source []byte) (string, bool) {
	switch decl.Type() {
	case "function_declaration", "class_declaration":
		if n := decl.ChildByFieldName("name"); n != nil {
			return string(source[n.StartByte():n.EndByte()]), true
		}
	case "lexical_declaration", "variable_declaration":
		if decl.NamedChildCount() != 1 {
			return "", false
		}
		declarator := decl.NamedChild(0)
		if declarator.Type() != "variable_declarator" {
			return "", false
		}
		if n := declarator.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
			return string(source[n.StartByte():n.EndByte()]), true
		}
	}
	return "", false
}

func exportLanguageFor(path string) *sitter.Language {
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
