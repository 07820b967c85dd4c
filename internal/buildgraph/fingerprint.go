package buildgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jschatz1/howth/internal/fingerprint"
)

// ExpandGlob expands pattern rooted at root into a deterministically
// sorted list of absolute paths, each one later hashed individually. Uses
// doublestar so "**" behaves
// the way project globs (tsconfig "include", script "src/**/*.ts") expect.
func ExpandGlob(root, pattern string) ([]string, error) {
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("expand glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(root, m)
	}
	return out, nil
}

// hashFile hashes a file's content. Missing files hash to a fixed sentinel
// so a node whose input was deleted still fingerprints deterministically
// (and differently from its prior, present-file fingerprint).
func hashFile(path string) (fingerprint.Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fingerprint.String("!missing!" + fingerprint.NormalizePath(path)), nil
		}
		return "", err
	}
	return fingerprint.Bytes(data), nil
}

// UpstreamResolver looks up the already-computed composite fingerprint of
// another node, used to fold UpstreamInput into a node's own fingerprint.
type UpstreamResolver func(nodeID string) (fingerprint.Hash, error)

// CompositeFingerprint computes node's composite input fingerprint: node
// id, each input in declared order, then argv + env allowlist.
func CompositeFingerprint(node *BuildNode, upstream UpstreamResolver) (fingerprint.Hash, error) {
	b := fingerprint.NewBuilder().WriteString(node.ID)

	for _, in := range node.Inputs {
		if err := writeInput(b, in, upstream); err != nil {
			return "", fmt.Errorf("node %s: %w", node.ID, err)
		}
	}

	if node.Command != nil {
		b.WriteUint64(uint64(len(node.Command.Argv)))
		for _, arg := range node.Command.Argv {
			b.WriteString(arg)
		}
		allowlist := append([]string(nil), node.Command.EnvAllowlist...)
		sort.Strings(allowlist)
		for _, name := range allowlist {
			b.WriteString(name)
		}
	}

	return b.Sum(), nil
}

func writeInput(b *fingerprint.Builder, in BuildInput, upstream UpstreamResolver) error {
	b.WriteUint64(uint64(in.Kind()))

	switch v := in.(type) {
	case FileInput:
		h, err := hashFile(v.Path)
		if err != nil {
			return err
		}
		b.WriteString(fingerprint.NormalizePath(v.Path)).WriteString(string(h))

	case GlobInput:
		matches, err := ExpandGlob(v.Root, v.Pattern)
		if err != nil {
			return err
		}
		b.WriteString(v.Pattern).WriteUint64(uint64(len(matches)))
		for _, m := range matches {
			h, err := hashFile(m)
			if err != nil {
				return err
			}
			b.WriteString(fingerprint.NormalizePath(m)).WriteString(string(h))
		}

	case EnvInput:
		b.WriteString(v.Name).WriteString(os.Getenv(v.Name))

	case LockfileInput:
		h, err := hashFile(v.Path)
		if err != nil {
			return err
		}
		b.WriteString(string(h)).WriteUint64(uint64(v.SchemaVersion))

	case UpstreamInput:
		if upstream == nil {
			return fmt.Errorf("upstream input %s#%d: no resolver provided", v.NodeID, v.OutputIndex)
		}
		h, err := upstream(v.NodeID)
		if err != nil {
			return err
		}
		b.WriteString(string(h)).WriteUint64(uint64(v.OutputIndex))

	default:
		return fmt.Errorf("unknown input kind %T", in)
	}
	return nil
}

// ComputeOutputFingerprint re-fingerprints a declared output path after a
// node executes.
func ComputeOutputFingerprint(path string) (OutputFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return OutputFingerprint{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return OutputFingerprint{}, err
	}
	return OutputFingerprint{
		ContentHash: fingerprint.Bytes(data),
		Size:        info.Size(),
		ModUnixNano: info.ModTime().UnixNano(),
	}, nil
}

// OutputMatches reports whether the on-disk fingerprint of path still
// equals recorded.
func OutputMatches(path string, recorded OutputFingerprint) bool {
	current, err := ComputeOutputFingerprint(path)
	if err != nil {
		return false
	}
	return current.ContentHash == recorded.ContentHash && current.Size == recorded.Size
}
