package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/unlockgraph/internal/unit"
)

func twoNodeGraph() *Graph {
	g := newGraph("M1")
	g.addNode(&unit.Unit{ID: "a1-id", Kind: unit.KindActivity, Code: "M1O1A1"})
	g.addNode(&unit.Unit{ID: "a2-id", Kind: unit.KindActivity, Code: "M1O1A2"})
	g.Edges = append(g.Edges, unit.Dependency{FromID: "a1-id", ToID: "a2-id", Kind: unit.EdgeActivation})
	return g
}

func TestGraphDeriveIsIndependent(t *testing.T) {
	g := twoNodeGraph()
	d := g.Derive()

	d.Nodes["a1-id"].Label = "changed"
	d.Edges[0].Inferred = true

	orig, _ := g.Node("a1-id")
	assert.Empty(t, orig.Label)
	assert.False(t, g.Edges[0].Inferred)
}

func TestGraphRestrict(t *testing.T) {
	g := twoNodeGraph()

	only1 := g.Restrict(func(n *unit.Unit) bool { return n.ID == "a1-id" })
	assert.Len(t, only1.Nodes, 1)
	assert.Empty(t, only1.Edges, "edges missing an endpoint are dropped")

	both := g.Restrict(func(*unit.Unit) bool { return true })
	assert.Len(t, both.Nodes, 2)
	assert.Len(t, both.Edges, 1)

	// The receiver is untouched either way.
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestGraphAddNodeDeduplicates(t *testing.T) {
	g := newGraph("M1")
	first := g.addNode(&unit.Unit{ID: "a1-id", Code: "M1O1A1"})
	second := g.addNode(&unit.Unit{ID: "a1-id", Code: "M1O1A1", Label: "late"})

	assert.Same(t, first, second, "the first entry for an id wins")
	assert.Len(t, g.Nodes, 1)

	n, ok := g.NodeByCode("M1O1A1")
	require.True(t, ok)
	assert.Same(t, first, n)
}
