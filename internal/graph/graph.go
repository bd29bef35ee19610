// Package graph builds and holds the per-module dependency graph. The
// graph uses arena-style storage: a flat node table keyed by canonical id
// and edges as id pairs, which keeps traversal cycle-safe and avoids
// pointer ownership loops.
//
// A Graph is immutable after construction. Derived views (objective
// filters, overlay merges) are new Graph values; concurrent readers may
// share one built Graph freely.
package graph

import (
	"sort"

	"github.com/vk/unlockgraph/internal/unit"
)

// Graph is the normalized node/edge set of one module.
type Graph struct {
	ModuleID string
	Nodes    map[string]*unit.Unit
	Edges    []unit.Dependency

	// byCode maps a unit code to its node id for bridging and filtering.
	byCode map[string]string
}

// newGraph allocates an empty graph for a module.
func newGraph(moduleID string) *Graph {
	return &Graph{
		ModuleID: moduleID,
		Nodes:    make(map[string]*unit.Unit),
		byCode:   make(map[string]string),
	}
}

// Node returns the unit with the given canonical id.
func (g *Graph) Node(id string) (*unit.Unit, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// NodeByCode returns the unit carrying the given human-facing code.
func (g *Graph) NodeByCode(code string) (*unit.Unit, bool) {
	id, ok := g.byCode[code]
	if !ok {
		return nil, false
	}
	return g.Nodes[id], true
}

// NodeIDs returns all node ids in lexicographic order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Derive returns an independent copy of the graph: units are copied by
// value, the edge slice is duplicated. Mutating the copy never touches the
// original, which is how filtered and overlay-merged views stay pure.
func (g *Graph) Derive() *Graph {
	out := newGraph(g.ModuleID)
	for id, n := range g.Nodes {
		cp := *n
		out.Nodes[id] = &cp
	}
	out.Edges = make([]unit.Dependency, len(g.Edges))
	copy(out.Edges, g.Edges)
	for code, id := range g.byCode {
		out.byCode[code] = id
	}
	return out
}

// Restrict returns a derived graph keeping only the nodes the predicate
// accepts and the edges whose both endpoints survive. The receiver is
// untouched.
func (g *Graph) Restrict(keep func(*unit.Unit) bool) *Graph {
	out := newGraph(g.ModuleID)
	for _, n := range g.Nodes {
		if keep(n) {
			cp := *n
			out.addNode(&cp)
		}
	}
	for _, e := range g.Edges {
		if _, okFrom := out.Nodes[e.FromID]; !okFrom {
			continue
		}
		if _, okTo := out.Nodes[e.ToID]; !okTo {
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	return out
}

// addNode inserts a unit, deduplicating by id. The first non-ghost entry
// for an id wins; a ghost entry never overwrites a real one, and a real
// entry arriving after a ghost does not resurrect the id under a second
// node — exactly one node per id exists.
func (g *Graph) addNode(n *unit.Unit) *unit.Unit {
	if existing, ok := g.Nodes[n.ID]; ok {
		return existing
	}
	g.Nodes[n.ID] = n
	if n.Code != "" {
		if _, taken := g.byCode[n.Code]; !taken {
			g.byCode[n.Code] = n.ID
		}
	}
	return n
}
