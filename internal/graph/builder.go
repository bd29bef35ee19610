package graph

import (
	"context"
	"sort"

	"github.com/vk/unlockgraph/internal/codes"
	"github.com/vk/unlockgraph/internal/ctxlog"
	"github.com/vk/unlockgraph/internal/diag"
	"github.com/vk/unlockgraph/internal/payload"
	"github.com/vk/unlockgraph/internal/rules"
	"github.com/vk/unlockgraph/internal/unit"
)

// BuildOptions carries the optional inputs of a build.
type BuildOptions struct {
	// Snapshot, when non-nil, is a pre-resolved topology treated as
	// authoritative: rule specs are ignored and only enrichment is
	// applied.
	Snapshot *payload.Snapshot
	// Catalog, when non-nil, seeds real labeled nodes for the module's
	// hierarchy before any rule edge is linked.
	Catalog *payload.CatalogModule
	// Enrichment maps a source code to auxiliary metric annotations
	// attached to matching edges.
	Enrichment map[string]map[string]float64
}

// Build constructs the immutable dependency graph of one module from its
// parsed rule specs. It never fails: unresolved references become ghost
// nodes, conflicts are settled deterministically, and every irregularity is
// reported in the returned diagnostics.
func Build(ctx context.Context, moduleID string, specs []rules.RuleSpec, resolver *codes.Resolver, opts BuildOptions) (*Graph, diag.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	var diags diag.Diagnostics

	if opts.Snapshot != nil {
		logger.Debug("Adopting pre-resolved topology snapshot.", "module", moduleID, "nodes", len(opts.Snapshot.Nodes), "edges", len(opts.Snapshot.Edges))
		g := fromSnapshot(moduleID, opts.Snapshot)
		attachEnrichment(g, opts.Enrichment, &diags)
		detectCycles(g, &diags)
		return g, diags
	}

	b := &build{
		g:        newGraph(moduleID),
		resolver: resolver,
		edges:    make(map[edgeKey]int),
		ambig:    make(map[string]bool),
	}

	if opts.Catalog != nil {
		b.seedCatalog(opts.Catalog)
		logger.Debug("Catalog nodes seeded.", "module", moduleID, "node_count", len(b.g.Nodes))
	}

	for i := range specs {
		b.linkSpec(&specs[i], &diags)
	}
	logger.Debug("Rule specs linked.", "module", moduleID, "node_count", len(b.g.Nodes), "edge_count", len(b.g.Edges))

	b.backfillInitiallyOpen()
	attachEnrichment(b.g, opts.Enrichment, &diags)
	detectCycles(b.g, &diags)

	return b.g, diags
}

// edgeKey identifies an edge for deduplication.
type edgeKey struct {
	from, to string
	kind     unit.EdgeKind
}

// build holds the transient state of one graph construction.
type build struct {
	g        *Graph
	resolver *codes.Resolver
	// edges maps a dedup key to the edge's index in g.Edges.
	edges map[edgeKey]int
	// ambig tracks codes already reported as ambiguous.
	ambig map[string]bool
}

// seedCatalog creates real nodes for every objective and activity of the
// module's catalog entry.
func (b *build) seedCatalog(cat *payload.CatalogModule) {
	for _, obj := range cat.Objectives {
		if obj.Code == "" {
			continue
		}
		b.g.addNode(&unit.Unit{
			ID:            b.catalogID(obj.ID, obj.Code),
			Kind:          unit.KindObjective,
			ModuleID:      b.g.ModuleID,
			Code:          obj.Code,
			Label:         labelOr(obj.Label, obj.Code),
			ObjectiveCode: obj.Code,
		})
		for i, act := range obj.Activities {
			if act.Code == "" {
				continue
			}
			idx := codes.ActivityIndex(act.Code)
			if idx == 0 {
				idx = i + 1
			}
			b.g.addNode(&unit.Unit{
				ID:            b.catalogID(act.ID, act.Code),
				Kind:          unit.KindActivity,
				ModuleID:      b.g.ModuleID,
				Code:          act.Code,
				Label:         labelOr(act.Label, act.Code),
				ObjectiveCode: obj.Code,
				ActivityIndex: idx,
			})
		}
	}
}

// catalogID picks the canonical id of a catalog entry: its own id, else the
// resolver's first candidate for its code, else the code itself.
func (b *build) catalogID(id, code string) string {
	if id != "" {
		return id
	}
	if b.resolver != nil {
		if cands := b.resolver.Resolve(code); len(cands) > 0 {
			return cands[0]
		}
	}
	return code
}

// linkSpec resolves a spec's target and sources and materializes its edges.
func (b *build) linkSpec(spec *rules.RuleSpec, diags *diag.Diagnostics) {
	target := b.unitForCode(spec.TargetCode, diags)
	if spec.InitiallyOpen {
		target.InitiallyOpen = true
	}

	for _, req := range spec.Requirements {
		source := b.unitForCode(req.SourceCode, diags)
		if source.ID == target.ID {
			diags.Warnf(diag.CodeSelfLoop, source.ID, "self-referential rule %q dropped", req.Raw)
			continue
		}
		b.addEdge(unit.Dependency{
			FromID:    source.ID,
			ToID:      target.ID,
			Kind:      spec.Direction,
			Threshold: req.Threshold,
			RuleText:  req.Raw,
		}, diags)
	}
}

// unitForCode resolves a code to its node, creating a real node for a
// resolved id or a ghost node when no resolution exists. Exactly one node
// per id ever exists; a ghost is never promoted afterwards.
func (b *build) unitForCode(code string, diags *diag.Diagnostics) *unit.Unit {
	if n, ok := b.g.NodeByCode(code); ok {
		return n
	}

	var cands []string
	if b.resolver != nil {
		cands = b.resolver.Resolve(code)
	}

	if len(cands) == 0 {
		if n, ok := b.g.Nodes[code]; ok {
			return n
		}
		diags.Warnf(diag.CodeUnresolvedReference, code, "no catalog entity for code %q; ghost node synthesized", code)
		return b.g.addNode(&unit.Unit{
			ID:            code,
			Kind:          kindForCode(code),
			ModuleID:      b.g.ModuleID,
			Code:          code,
			Label:         code,
			ObjectiveCode: codes.ParentObjective(code),
			ActivityIndex: codes.ActivityIndex(code),
			Ghost:         true,
		})
	}

	if len(cands) > 1 && !b.ambig[code] {
		b.ambig[code] = true
		diags.Warnf(diag.CodeAmbiguousCode, code, "code %q resolves to %d ids; picked %q (lexicographic tie-break)", code, len(cands), cands[0])
	}

	id := cands[0]
	if n, ok := b.g.Nodes[id]; ok {
		// Known id reached through a new code alias.
		if _, taken := b.g.byCode[code]; !taken {
			b.g.byCode[code] = id
		}
		return n
	}
	return b.g.addNode(&unit.Unit{
		ID:            id,
		Kind:          kindForCode(code),
		ModuleID:      b.g.ModuleID,
		Code:          code,
		Label:         code,
		ObjectiveCode: codes.ParentObjective(code),
		ActivityIndex: codes.ActivityIndex(code),
	})
}

// addEdge appends an edge, deduplicating by (from, to, kind). Conflicting
// thresholds keep the stricter bar.
func (b *build) addEdge(e unit.Dependency, diags *diag.Diagnostics) {
	key := edgeKey{from: e.FromID, to: e.ToID, kind: e.Kind}
	if i, ok := b.edges[key]; ok {
		existing := &b.g.Edges[i]
		if !thresholdsEqual(existing.Threshold, e.Threshold) {
			if e.Threshold.Stricter(existing.Threshold) {
				diags.Warnf(diag.CodeDuplicateEdge, e.FromID+"->"+e.ToID, "duplicate %s edge; stricter threshold from %q kept", e.Kind, e.RuleText)
				existing.Threshold = e.Threshold
				existing.RuleText = e.RuleText
			} else {
				diags.Warnf(diag.CodeDuplicateEdge, e.FromID+"->"+e.ToID, "duplicate %s edge; threshold from %q discarded", e.Kind, e.RuleText)
			}
		}
		return
	}
	b.edges[key] = len(b.g.Edges)
	b.g.Edges = append(b.g.Edges, e)
}

// backfillInitiallyOpen marks every node that no activation edge targets as
// initially open: nothing gates it, so it is available from the start.
func (b *build) backfillInitiallyOpen() {
	gated := make(map[string]bool)
	for _, e := range b.g.Edges {
		if e.Kind == unit.EdgeActivation {
			gated[e.ToID] = true
		}
	}
	for _, n := range b.g.Nodes {
		if !gated[n.ID] {
			n.InitiallyOpen = true
		}
	}
}

// fromSnapshot copies a pre-resolved topology into a fresh graph.
func fromSnapshot(moduleID string, snap *payload.Snapshot) *Graph {
	g := newGraph(moduleID)
	for i := range snap.Nodes {
		n := snap.Nodes[i]
		if n.ModuleID == "" {
			n.ModuleID = moduleID
		}
		g.addNode(&n)
	}
	g.Edges = make([]unit.Dependency, len(snap.Edges))
	copy(g.Edges, snap.Edges)
	return g
}

// attachEnrichment joins per-code annotations onto edges whose source unit
// carries the code. Entries matching no edge are reported, not dropped
// silently.
func attachEnrichment(g *Graph, enrichment map[string]map[string]float64, diags *diag.Diagnostics) {
	if len(enrichment) == 0 {
		return
	}
	enrichCodes := make([]string, 0, len(enrichment))
	for code := range enrichment {
		enrichCodes = append(enrichCodes, code)
	}
	sort.Strings(enrichCodes)

	for _, code := range enrichCodes {
		metrics := enrichment[code]
		matched := false
		for i := range g.Edges {
			src, ok := g.Nodes[g.Edges[i].FromID]
			if !ok || src.Code != code {
				continue
			}
			matched = true
			if g.Edges[i].Enrichment == nil {
				g.Edges[i].Enrichment = make(map[string]float64, len(metrics))
			}
			for k, v := range metrics {
				g.Edges[i].Enrichment[k] = v
			}
		}
		if !matched {
			diags.Warnf(diag.CodeUnusedEnrichment, code, "enrichment for %q matches no edge source", code)
		}
	}
}

// detectCycles walks activation edges depth-first and reports any cycle as
// a graph-integrity warning. The build still completes; traversal stays
// safe through visited-set tracking.
func detectCycles(g *Graph, diags *diag.Diagnostics) {
	out := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Kind == unit.EdgeActivation {
			out[e.FromID] = append(out[e.FromID], e.ToID)
		}
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	reported := false

	var visit func(id string)
	visit = func(id string) {
		visiting[id] = true
		for _, next := range out[id] {
			if visiting[next] {
				if !reported {
					reported = true
					diags.Warnf(diag.CodeGraphIntegrity, next, "activation cycle detected involving %q", next)
				}
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}
		delete(visiting, id)
		visited[id] = true
	}

	for _, id := range g.NodeIDs() {
		if !visited[id] {
			visit(id)
		}
	}
}

func kindForCode(code string) unit.Kind {
	if codes.Classify(code) == codes.ClassObjective {
		return unit.KindObjective
	}
	return unit.KindActivity
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func thresholdsEqual(a, b *unit.Threshold) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Metric == b.Metric && a.Value == b.Value
}
