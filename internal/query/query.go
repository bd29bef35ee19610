// Package query answers traversal questions over a built dependency graph:
// transitive prerequisite and unlock closures, focus neighborhoods, and
// objective subgraph filtering. Every query is a pure function of the graph
// and its parameters; nothing here mutates a graph.
//
// Only activation edges participate in closures. Deactivation edges express
// a disabling condition, not an unlock chain, and mixing them in would
// produce a semantically wrong closure.
package query

import (
	"github.com/vk/unlockgraph/internal/diag"
	"github.com/vk/unlockgraph/internal/graph"
	"github.com/vk/unlockgraph/internal/unit"
)

// Set is a set of unit ids.
type Set map[string]struct{}

// Contains reports membership.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// bridge records one objective-bridging step taken during an ancestor
// traversal: the traversed activity and its parent objective.
type bridge struct {
	activityID  string
	objectiveID string
}

// Ancestors returns every unit whose mastery transitively gates the given
// unit, following activation edges backwards. Objective bridging applies:
// each traversed activity also pulls in its parent objective, because
// objective-level rules gate at the coarser granularity. The focal unit is
// not part of its own result.
func Ancestors(g *graph.Graph, unitID string) (Set, diag.Diagnostics) {
	set, _, diags := ancestors(g, unitID)
	return set, diags
}

func ancestors(g *graph.Graph, unitID string) (Set, []bridge, diag.Diagnostics) {
	var diags diag.Diagnostics
	result := make(Set)
	if _, ok := g.Node(unitID); !ok {
		return result, nil, diags
	}

	incoming := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Kind == unit.EdgeActivation {
			incoming[e.ToID] = append(incoming[e.ToID], e.FromID)
		}
	}

	var bridges []bridge
	visited := Set{unitID: {}}
	bridged := make(Set)
	queue := []string{unitID}
	cycle := false

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, parent := range incoming[id] {
			if parent == unitID {
				cycle = true
				continue
			}
			if !visited.Contains(parent) {
				visited[parent] = struct{}{}
				result[parent] = struct{}{}
				queue = append(queue, parent)
			}
		}

		// Objective bridging: at most once per traversed activity, and
		// only towards that activity's own parent objective.
		if bridged.Contains(id) {
			continue
		}
		bridged[id] = struct{}{}
		n, _ := g.Node(id)
		if n == nil || n.Kind != unit.KindActivity || n.ObjectiveCode == "" {
			continue
		}
		parentObj, ok := g.NodeByCode(n.ObjectiveCode)
		if !ok || parentObj.ID == unitID {
			continue
		}
		if !visited.Contains(parentObj.ID) {
			visited[parentObj.ID] = struct{}{}
			result[parentObj.ID] = struct{}{}
			queue = append(queue, parentObj.ID)
		}
		bridges = append(bridges, bridge{activityID: id, objectiveID: parentObj.ID})
	}

	if cycle {
		diags.Warnf(diag.CodeGraphIntegrity, unitID, "unit %q appears in its own prerequisite chain", unitID)
	}
	return result, bridges, diags
}

// Descendants returns every unit the given unit transitively unlocks,
// following activation edges forwards. No bridging applies: an objective
// already reaches its activities through direct edges. The focal unit is
// not part of its own result.
func Descendants(g *graph.Graph, unitID string) (Set, diag.Diagnostics) {
	var diags diag.Diagnostics
	result := make(Set)
	if _, ok := g.Node(unitID); !ok {
		return result, diags
	}

	outgoing := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Kind == unit.EdgeActivation {
			outgoing[e.FromID] = append(outgoing[e.FromID], e.ToID)
		}
	}

	visited := Set{unitID: {}}
	queue := []string{unitID}
	cycle := false

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range outgoing[id] {
			if child == unitID {
				cycle = true
				continue
			}
			if !visited.Contains(child) {
				visited[child] = struct{}{}
				result[child] = struct{}{}
				queue = append(queue, child)
			}
		}
	}

	if cycle {
		diags.Warnf(diag.CodeGraphIntegrity, unitID, "unit %q appears in its own unlock chain", unitID)
	}
	return result, diags
}

// FocusNeighborhood returns the focal unit together with its full ancestor
// and descendant closure, plus every edge both of whose endpoints fall in
// that set. The walk is strictly directional: a sibling reachable only
// through a shared ancestor's other branch is excluded.
//
// Bridging steps taken during the ancestor walk surface as synthesized
// activation edges marked Inferred, so the rendering layer can draw the
// implied objective gate.
func FocusNeighborhood(g *graph.Graph, unitID string) (Set, []unit.Dependency, diag.Diagnostics) {
	var diags diag.Diagnostics
	nodes := make(Set)
	if _, ok := g.Node(unitID); !ok {
		return nodes, nil, diags
	}

	anc, bridges, ancDiags := ancestors(g, unitID)
	desc, descDiags := Descendants(g, unitID)
	diags.Extend(ancDiags)
	diags.Extend(descDiags)

	nodes[unitID] = struct{}{}
	for id := range anc {
		nodes[id] = struct{}{}
	}
	for id := range desc {
		nodes[id] = struct{}{}
	}

	var edges []unit.Dependency
	for _, e := range g.Edges {
		if nodes.Contains(e.FromID) && nodes.Contains(e.ToID) {
			edges = append(edges, e)
		}
	}
	for _, b := range bridges {
		if nodes.Contains(b.activityID) && nodes.Contains(b.objectiveID) {
			edges = append(edges, unit.Dependency{
				FromID:   b.objectiveID,
				ToID:     b.activityID,
				Kind:     unit.EdgeActivation,
				Inferred: true,
			})
		}
	}

	return nodes, edges, diags
}

// FilterByObjectives returns a derived graph restricted to the units owned
// by the selected objectives. Selections may name an objective by id or by
// code. An empty selection yields an empty graph.
func FilterByObjectives(g *graph.Graph, objectives []string) *graph.Graph {
	selected := make(map[string]bool, len(objectives)*2)
	for _, sel := range objectives {
		if sel == "" {
			continue
		}
		selected[sel] = true
		if n, ok := g.Node(sel); ok && n.Code != "" {
			selected[n.Code] = true
		}
		if n, ok := g.NodeByCode(sel); ok {
			selected[n.ID] = true
		}
	}

	return g.Restrict(func(n *unit.Unit) bool {
		switch n.Kind {
		case unit.KindObjective:
			return selected[n.ID] || (n.Code != "" && selected[n.Code])
		case unit.KindActivity:
			return n.ObjectiveCode != "" && selected[n.ObjectiveCode]
		default:
			return false
		}
	})
}
