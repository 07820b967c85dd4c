package bundler

import (
	"fmt"
	"strings"

	"github.com/jschatz1/howth/internal/modulegraph"
)

// OutputFormat is the module convention the emitted bundle text uses.
type OutputFormat string

const (
	FormatESM  OutputFormat = "esm"
	FormatCJS  OutputFormat = "cjs"
	FormatIIFE OutputFormat = "iife"
)

// Source supplies a module's (already transpiled-to-JS) text for emission.
type Source func(path string) (string, error)

// Emit concatenates chunk's modules in topological order, wraps each in a
// per-module scope, drops dead exports the tree-shake pass identified as
// unused in a side-effect-free module, rewrites import/export declarations
// to direct __mod_N bindings, and wraps the whole chunk per the bundle's
// chosen output format convention.
func Emit(g *modulegraph.Graph, chunk *Chunk, used map[int]map[string]bool, format OutputFormat, src Source) (string, error) {
	var out strings.Builder

	switch format {
	case FormatIIFE:
		out.WriteString("(function () {\n\"use strict\";\n")
	case FormatCJS:
		out.WriteString("\"use strict\";\n")
	}

	for _, id := range chunk.Modules {
		mod := g.Modules[id]
		text, err := src(mod.Path)
		if err != nil {
			return "", fmt.Errorf("bundler: load %s: %w", mod.Path, err)
		}

		text = stripDeadExports(mod, used[id], text)

		rewritten, err := RewriteModule(mod, text)
		if err != nil {
			return "", fmt.Errorf("bundler: rewrite %s: %w", mod.Path, err)
		}

		fmt.Fprintf(&out, "// module %d: %s\n", id, mod.Path)
		fmt.Fprintf(&out, "var __mod_%d = (function () {\n", id)
		out.WriteString(rewritten.Text)
		out.WriteString("\n")
		if stmt := exportsReturnStatement(rewritten); stmt != "" {
			out.WriteString(stmt)
			out.WriteString("\n")
		}
		out.WriteString("})();\n\n")
	}

	switch format {
	case FormatIIFE:
		out.WriteString("})();\n")
	}

	return out.String(), nil
}

// exportsReturnStatement builds the `return { ... };` a module's wrapper
// ends with so other modules' __mod_N.<name> references resolve. A module
// with no exports (pure side effects, or a CJS module this pass doesn't
// rewrite) contributes no return statement.
func exportsReturnStatement(r RewriteResult) string {
	if len(r.Bindings) == 0 && len(r.Spreads) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Bindings)+len(r.Spreads))
	for _, spread := range r.Spreads {
		parts = append(parts, "..."+spread)
	}
	for _, b := range r.Bindings {
		parts = append(parts, fmt.Sprintf("%s: %s", b.Key, b.Expr))
	}
	return "return { " + strings.Join(parts, ", ") + " };"
}

// stripDeadExports removes (blanks out, preserving line numbers for
// source-map fidelity) each single-binding export declaration whose name
// isn't in used, when mod is side-effect-free. Multi-binding declarations
// and side-effectful modules are left untouched.
func stripDeadExports(mod *modulegraph.Module, used map[string]bool, text string) string {
	if mod.SideEffects {
		return text
	}
	decls, err := ScanExportedDeclarations(mod.Path, []byte(text))
	if err != nil || len(decls) == 0 {
		return text
	}

	b := []byte(text)
	for _, d := range decls {
		if IsExportUsed(mod, used, d.Name) {
			continue
		}
		for i := d.Start; i < d.End; i++ {
			if b[i] != '\n' {
				b[i] = ' '
			}
		}
	}
	return string(b)
}
