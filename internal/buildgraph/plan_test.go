package buildgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainGraph() *BuildGraph {
	return &BuildGraph{Nodes: []*BuildNode{
		{ID: "script:compile", Inputs: []BuildInput{FileInput{Path: "a.ts"}}},
		{ID: "script:bundle", Inputs: []BuildInput{UpstreamInput{NodeID: "script:compile"}}},
		{ID: "script:test", Inputs: []BuildInput{UpstreamInput{NodeID: "script:bundle"}}},
	}}
}

func TestPlanTargets_TransitiveClosureInDependencyOrder(t *testing.T) {
	graph := chainGraph()
	plan, err := PlanTargets(graph, []string{"script:test"})
	require.NoError(t, err)

	require.Len(t, plan.Nodes, 3)
	var ids []string
	for _, n := range plan.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"script:compile", "script:bundle", "script:test"}, ids)
}

func TestPlanTargets_MultipleTargetsDedup(t *testing.T) {
	graph := chainGraph()
	plan, err := PlanTargets(graph, []string{"script:bundle", "script:test"})
	require.NoError(t, err)
	assert.Len(t, plan.Nodes, 3)
}

func TestPlanTargets_UnknownTarget(t *testing.T) {
	graph := chainGraph()
	_, err := PlanTargets(graph, []string{"script:nonexistent"})
	assert.Error(t, err)
}

func TestPlanTargets_CycleDetected(t *testing.T) {
	graph := &BuildGraph{Nodes: []*BuildNode{
		{ID: "a", Inputs: []BuildInput{UpstreamInput{NodeID: "b"}}},
		{ID: "b", Inputs: []BuildInput{UpstreamInput{NodeID: "a"}}},
	}}
	_, err := PlanTargets(graph, []string{"a"})
	assert.Error(t, err)
}

func TestPlanTargets_DiamondVisitsSharedDepOnce(t *testing.T) {
	graph := &BuildGraph{Nodes: []*BuildNode{
		{ID: "script:shared"},
		{ID: "script:left", Inputs: []BuildInput{UpstreamInput{NodeID: "script:shared"}}},
		{ID: "script:right", Inputs: []BuildInput{UpstreamInput{NodeID: "script:shared"}}},
		{ID: "script:top", Inputs: []BuildInput{
			UpstreamInput{NodeID: "script:left"},
			UpstreamInput{NodeID: "script:right"},
		}},
	}}

	plan, err := PlanTargets(graph, []string{"script:top"})
	require.NoError(t, err)
	assert.Len(t, plan.Nodes, 4)

	sharedCount := 0
	for _, n := range plan.Nodes {
		if n.ID == "script:shared" {
			sharedCount++
		}
	}
	assert.Equal(t, 1, sharedCount)
	assert.Equal(t, "script:top", plan.Nodes[len(plan.Nodes)-1].ID)
}

func TestResolveTargetAlias_UsedByPlanTargets(t *testing.T) {
	graph := chainGraph()
	graph.Nodes[2].ID = "script:test"
	plan, err := PlanTargets(graph, []string{"test"})
	require.NoError(t, err)
	assert.Equal(t, "script:test", plan.Nodes[len(plan.Nodes)-1].ID)
}
