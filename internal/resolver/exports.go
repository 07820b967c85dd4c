package resolver

import (
	"fmt"
	"sort"
	"strings"
)

// ResolveExports implements the package.json exports/imports resolution
// algorithm: subpath matching (exact, then longest "*"-pattern prefix),
// followed by condition-object walking in the caller-supplied preference
// order. value is a package.json "exports" or "imports" field, already
// unmarshaled into generic JSON types (string, map[string]any, []any).
func ResolveExports(value any, subpath string, conditions []string) (string, bool, error) {
	switch v := value.(type) {
	case string:
		if subpath == "." {
			return v, true, nil
		}
		return "", false, nil
	case map[string]any:
		if isConditionsObject(v) {
			return resolveConditions(v, conditions)
		}
		target, suffix, ok := matchSubpath(v, subpath)
		if !ok {
			return "", false, nil
		}
		resolved, matched, err := ResolveExports(target, ".", conditions)
		if err != nil || !matched {
			return "", matched, err
		}
		return strings.Replace(resolved, "*", suffix, 1), true, nil
	case []any:
		for _, alt := range v {
			resolved, ok, err := ResolveExports(alt, subpath, conditions)
			if err == nil && ok {
				return resolved, true, nil
			}
		}
		return "", false, nil
	case nil:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unsupported exports value type %T", value)
	}
}

// isConditionsObject reports whether m is a conditions map (keys are
// condition names like "import"/"require"/"default") rather than a subpath
// map (keys start with "." or contain "*"). Per spec, the two forms can't
// mix at one level; the discriminator is whether any key starts with "."
// (an exports subpath) or "#" (an imports entry).
func isConditionsObject(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, ".") || strings.HasPrefix(k, "#") {
			return false
		}
	}
	return true
}

func resolveConditions(m map[string]any, conditions []string) (string, bool, error) {
	for _, cond := range conditions {
		if target, ok := m[cond]; ok {
			resolved, matched, err := ResolveExports(target, ".", conditions)
			if err != nil {
				return "", false, err
			}
			if matched {
				return resolved, true, nil
			}
		}
	}
	return "", false, nil
}

// matchSubpath performs longest-prefix subpath matching over a subpath map,
// including "*" patterns with suffix replacement.
func matchSubpath(m map[string]any, subpath string) (target any, suffix string, ok bool) {
	if v, exact := m[subpath]; exact {
		return v, "", true
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, k := range keys {
		idx := strings.Index(k, "*")
		if idx == -1 {
			continue
		}
		prefix, patternSuffix := k[:idx], k[idx+1:]
		if strings.HasPrefix(subpath, prefix) && strings.HasSuffix(subpath, patternSuffix) {
			matched := strings.TrimSuffix(strings.TrimPrefix(subpath, prefix), patternSuffix)
			return m[k], matched, true
		}
	}
	return nil, "", false
}
