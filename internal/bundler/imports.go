package bundler

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jschatz1/howth/internal/modulegraph"
)

// ExportBinding is one name a module exposes on its returned exports object:
// Key is the name a consumer imports it by, Expr is the local expression
// that produces its value.
type ExportBinding struct {
	Key  string
	Expr string
}

// RewriteResult is a module's text with every import/export declaration
// rewritten to direct __mod_N bindings, plus the binding table Emit uses to
// build that module's returned exports object.
type RewriteResult struct {
	Text     string
	Bindings []ExportBinding
	Spreads  []string // "__mod_N" expressions merged wholesale into the returned object (export * from)
}

// RewriteModule rewrites every top-level import/export statement in text so
// the result is valid inside a function-expression module wrapper: import
// declarations become var bindings read off the referenced module's
// __mod_N object, and export declarations become plain statements whose
// bindings are collected for the caller to return from the wrapper.
//
// Only top-level import/export statements are considered, since that's the
// only place the grammar allows them to appear.
func RewriteModule(mod *modulegraph.Module, text string) (RewriteResult, error) {
	lang := exportLanguageFor(mod.Path)
	if lang == nil {
		return RewriteResult{Text: text}, nil
	}

	source := []byte(text)
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return RewriteResult{}, fmt.Errorf("bundler: parse %s: %w", mod.Path, err)
	}
	defer tree.Close()

	var spans []rewriteSpan
	result := RewriteResult{}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			spans = append(spans, rewriteSpan{
				start:       stmt.StartByte(),
				end:         stmt.EndByte(),
				replacement: rewriteImportStatement(mod, stmt, source),
			})

		case "export_statement":
			replacement, bindings, spreads := rewriteExportStatement(mod, stmt, source)
			spans = append(spans, rewriteSpan{start: stmt.StartByte(), end: stmt.EndByte(), replacement: replacement})
			result.Bindings = append(result.Bindings, bindings...)
			result.Spreads = append(result.Spreads, spreads...)
		}
	}

	result.Text = applySpans(source, spans)
	return result, nil
}

type rewriteSpan struct {
	start, end  uint32
	replacement string
}

// applySpans rebuilds source with every span's byte range replaced by its
// replacement text; spans must be in ascending, non-overlapping order,
// which a single top-level statement walk always produces.
func applySpans(source []byte, spans []rewriteSpan) string {
	if len(spans) == 0 {
		return string(source)
	}
	var out strings.Builder
	var cursor uint32
	for _, sp := range spans {
		out.Write(source[cursor:sp.start])
		out.WriteString(sp.replacement)
		cursor = sp.end
	}
	out.Write(source[cursor:])
	return out.String()
}

// rewriteImportStatement turns one import declaration into var bindings
// read off the resolved dependency's __mod_N object. A side-effect-only
// import ("import './polyfill'") has no bindings to create: the dependency
// already ran by the time this statement's position is reached, since
// Emit walks chunk.Modules in dependency-before-dependent order.
func rewriteImportStatement(mod *modulegraph.Module, stmt *sitter.Node, source []byte) string {
	srcNode := stmt.ChildByFieldName("source")
	if srcNode == nil {
		return ""
	}
	ref := modRef(mod, stringLiteralValue(srcNode, source))

	clause := firstChildOfType(stmt, "import_clause")
	if clause == nil {
		return ""
	}

	var lines []string
	for i := 0; i < int(clause.ChildCount()); i++ {
		part := clause.Child(i)
		switch part.Type() {
		case "identifier":
			lines = append(lines, fmt.Sprintf("var %s = %s.default;", nodeText(part, source), ref))

		case "namespace_import":
			if local := lastNamedChild(part); local != nil {
				lines = append(lines, fmt.Sprintf("var %s = %s;", nodeText(local, source), ref))
			}

		case "named_imports":
			for j := 0; j < int(part.NamedChildCount()); j++ {
				spec := part.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				lines = append(lines, fmt.Sprintf("var %s = %s.%s;", nodeText(local, source), ref, nodeText(name, source)))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// rewriteExportStatement turns one export declaration into the plain
// statement (if any) it leaves behind, plus the bindings/spreads it
// contributes to the module's returned exports object.
func rewriteExportStatement(mod *modulegraph.Module, stmt *sitter.Node, source []byte) (string, []ExportBinding, []string) {
	if value := stmt.ChildByFieldName("value"); value != nil {
		replacement, expr := rewriteDefaultExport(value, source)
		return replacement, []ExportBinding{{Key: "default", Expr: expr}}, nil
	}

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		names := declaredBindingNames(decl, source)
		bindings := make([]ExportBinding, 0, len(names))
		for _, n := range names {
			bindings = append(bindings, ExportBinding{Key: n, Expr: n})
		}
		return nodeText(decl, source), bindings, nil
	}

	srcNode := stmt.ChildByFieldName("source")

	if hasDirectChildLiteral(stmt, "*", source) {
		if ns := namespaceExportName(stmt, source); ns != "" {
			return "", []ExportBinding{{Key: ns, Expr: modRef(mod, stringLiteralValue(srcNode, source))}}, nil
		}
		return "", nil, []string{modRef(mod, stringLiteralValue(srcNode, source))}
	}

	if clause := firstChildOfType(stmt, "export_clause"); clause != nil {
		var bindings []ExportBinding
		for i := 0; i < int(clause.NamedChildCount()); i++ {
			spec := clause.NamedChild(i)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			key := name
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				key = alias
			}
			expr := nodeText(name, source)
			if srcNode != nil {
				expr = modRef(mod, stringLiteralValue(srcNode, source)) + "." + nodeText(name, source)
			}
			bindings = append(bindings, ExportBinding{Key: nodeText(key, source), Expr: expr})
		}
		return "", bindings, nil
	}

	return "", nil, nil
}

// rewriteDefaultExport handles `export default VALUE`. A named function or
// class declaration is left in place (it's already a valid statement) and
// exported by reference to its name; an anonymous declaration or a bare
// expression is assigned to a synthesized local so it can be referenced
// from the returned exports object.
func rewriteDefaultExport(value *sitter.Node, source []byte) (string, string) {
	switch value.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if name := value.ChildByFieldName("name"); name != nil {
			return nodeText(value, source), nodeText(name, source)
		}
	}
	return "var __default = " + nodeText(value, source) + ";", "__default"
}

// declaredBindingNames lists every name decl introduces at the top level:
// one for a function/class declaration, one per declarator for a
// lexical/variable declaration. Destructuring patterns beyond a plain
// identifier are skipped; they're rare in top-level export position and
// splitting them out correctly needs a pattern walk this pass doesn't do.
func declaredBindingNames(decl *sitter.Node, source []byte) []string {
	switch decl.Type() {
	case "function_declaration", "class_declaration", "generator_function_declaration":
		if n := decl.ChildByFieldName("name"); n != nil {
			return []string{nodeText(n, source)}
		}
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			declarator := decl.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			if n := declarator.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
				names = append(names, nodeText(n, source))
			}
		}
		return names
	}
	return nil
}

// modRef builds the bound-module expression a rewritten import/export
// reads from: __mod_<id> for the dependency specifier resolved.
func modRef(mod *modulegraph.Module, specifier string) string {
	id, ok := mod.Resolved[specifier]
	if !ok {
		return fmt.Sprintf("/* unresolved: %q */undefined", specifier)
	}
	return fmt.Sprintf("__mod_%d", id)
}

// namespaceExportName returns the local name in `export * as ns from "x"`,
// or "" for a plain `export * from "x"` with no rebinding.
func namespaceExportName(stmt *sitter.Node, source []byte) string {
	if ns := firstChildOfType(stmt, "namespace_export"); ns != nil {
		if n := lastNamedChild(ns); n != nil {
			return nodeText(n, source)
		}
	}
	sawAs := false
	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		if !child.IsNamed() && nodeText(child, source) == "as" {
			sawAs = true
			continue
		}
		if sawAs && child.Type() == "identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func hasDirectChildLiteral(node *sitter.Node, text string, source []byte) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && nodeText(child, source) == text {
			return true
		}
	}
	return false
}

func lastNamedChild(node *sitter.Node) *sitter.Node {
	if n := node.NamedChildCount(); n > 0 {
		return node.NamedChild(int(n) - 1)
	}
	return nil
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func stringLiteralValue(node *sitter.Node, source []byte) string {
	return strings.Trim(nodeText(node, source), `"'`+"`")
}
