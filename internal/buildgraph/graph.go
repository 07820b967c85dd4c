package buildgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

const lockfileName = "howth.lock"

// DefaultEnvAllowlist is the set of environment variables every script node
// inherits; a project cannot override it. Kept narrow deliberately: wider
// env surfaces would make fingerprints (and thus cache hits) depend on
// variables that have nothing to do with the script's behavior.
var DefaultEnvAllowlist = []string{"PATH", "HOME", "NODE_ENV", "CI"}

// targetAliases maps convenience target names to the script node id they
// resolve to, letting `howth build test` mean `howth build script:test`.
var targetAliases = map[string]string{
	"build": "script:build",
	"test":  "script:test",
	"dev":   "script:dev",
	"start": "script:start",
	"lint":  "script:lint",
}

// ResolveTargetAlias resolves a user-supplied target name to a node id,
// first checking for an exact node id match, then the alias table.
func ResolveTargetAlias(graph *BuildGraph, name string) (string, bool) {
	if _, ok := graph.NodeByID(name); ok {
		return name, true
	}
	if alias, ok := targetAliases[name]; ok {
		if _, ok := graph.NodeByID(alias); ok {
			return alias, true
		}
	}
	return "", false
}

type packageJSON struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Scripts map[string]string `json:"scripts"`
}

// BuildGraphFromProject constructs a multi-node build graph from a project
// directory's package.json scripts: a constructor that returns
// (*BuildGraph, error) rather than threading a mutable builder.
func BuildGraphFromProject(cwd string) (*BuildGraph, error) {
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, err
	}

	pkgPath := filepath.Join(absCwd, "package.json")
	data, err := os.ReadFile(pkgPath)
	if os.IsNotExist(err) {
		return nil, howtherrors.Validation(howtherrors.CodeBuildPackageJSONMissing,
			"package.json not found", pkgPath)
	} else if err != nil {
		return nil, err
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, howtherrors.Validation(howtherrors.CodeBuildPackageJSONInvalid,
			fmt.Sprintf("invalid package.json: %v", err), pkgPath)
	}

	if len(pkg.Scripts) == 0 {
		return nil, howtherrors.Validation(howtherrors.CodeBuildScriptNotFound,
			"no scripts found in package.json", pkgPath)
	}

	graph := &BuildGraph{Meta: Meta{Name: pkg.Name, Version: pkg.Version}}

	var lockfileInput *LockfileInput
	lockPath := filepath.Join(absCwd, lockfileName)
	if _, err := os.Stat(lockPath); err == nil {
		lockfileInput = &LockfileInput{Path: lockPath, SchemaVersion: 1}
	}

	// Deterministic iteration: sort script names (mirrors the original's
	// BTreeMap<String,String> ordering).
	names := make([]string, 0, len(pkg.Scripts))
	for name := range pkg.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := pkg.Scripts[name]
		inputs := []BuildInput{FileInput{Path: pkgPath}}
		if lockfileInput != nil {
			inputs = append(inputs, *lockfileInput)
		}
		node := &BuildNode{
			ID:     "script:" + name,
			Kind:   NodeKindScript,
			Inputs: inputs,
			Command: &CommandSpec{
				Argv:         []string{"sh", "-c", cmd},
				EnvAllowlist: DefaultEnvAllowlist,
				WorkDir:      absCwd,
			},
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	sortNodes(graph)

	for _, defaultName := range []string{"build", "test"} {
		if id, ok := ResolveTargetAlias(graph, defaultName); ok {
			graph.Defaults = append(graph.Defaults, id)
		}
	}

	return graph, nil
}

// sortNodes restores the "node vector sorted by id" invariant,
// required for byte-identical serialization across runs.
func sortNodes(g *BuildGraph) {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
}
