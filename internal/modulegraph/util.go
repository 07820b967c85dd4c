package modulegraph

import "path/filepath"

func dirOf(path string) string { return filepath.Dir(path) }

// relFrom returns path relative to base, forward-slashed, for
// package.json sideEffects glob matching.
func relFrom(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
