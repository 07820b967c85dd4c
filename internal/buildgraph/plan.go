package buildgraph

import (
	"fmt"
	"sort"
)

// Plan is the ordered list of nodes to consider for a build request:
// requested targets expanded to their transitive upstream nodes, in an
// order that respects dependencies.
type Plan struct {
	Nodes []*BuildNode
}

// dependsOn returns the node ids a node depends on, derived from its
// UpstreamInput declarations.
func dependsOn(node *BuildNode) []string {
	var deps []string
	for _, in := range node.Inputs {
		if u, ok := in.(UpstreamInput); ok {
			deps = append(deps, u.NodeID)
		}
	}
	return deps
}

// PlanTargets expands requested target node ids to their transitive
// upstream closure and returns them in dependency order (upstream nodes
// precede their dependents), with a deterministic ascending-id tiebreak.
func PlanTargets(graph *BuildGraph, targets []string) (*Plan, error) {
	visited := make(map[string]bool)
	var order []*BuildNode

	var visit func(id string, stack map[string]bool) error
	visit = func(id string, stack map[string]bool) error {
		if visited[id] {
			return nil
		}
		if stack[id] {
			return fmt.Errorf("build graph has a cycle through %s", id)
		}
		node, ok := graph.NodeByID(id)
		if !ok {
			return fmt.Errorf("target %q not found in build graph", id)
		}

		stack[id] = true
		deps := dependsOn(node)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep, stack); err != nil {
				return err
			}
		}
		delete(stack, id)

		visited[id] = true
		order = append(order, node)
		return nil
	}

	sortedTargets := append([]string(nil), targets...)
	sort.Strings(sortedTargets)
	for _, t := range sortedTargets {
		resolved, ok := ResolveTargetAlias(graph, t)
		if !ok {
			return nil, fmt.Errorf("target %q not found in build graph", t)
		}
		if err := visit(resolved, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	return &Plan{Nodes: order}, nil
}
