package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/unlockgraph/internal/codes"
	"github.com/vk/unlockgraph/internal/ctxlog"
	"github.com/vk/unlockgraph/internal/diag"
	"github.com/vk/unlockgraph/internal/graph"
	"github.com/vk/unlockgraph/internal/query"
	"github.com/vk/unlockgraph/internal/rules"
	"github.com/vk/unlockgraph/internal/unit"
)

// Run executes the main application logic: load the rule document, guard
// the module against the support set, build the graph, and render the
// requested report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	doc, err := a.loader.Load(ctx, a.config.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rule document: %w", err)
	}
	a.logger.Debug("Rule document loaded.", "modules", len(doc.Modules))

	supported := graph.SupportedModules(doc.ModuleCodes(), doc.CatalogModuleCodes(), nil)
	// Modules shipped only as topology snapshots are buildable too.
	for moduleCode := range doc.Topology {
		supported = append(supported, moduleCode)
	}
	if err := graph.EnsureSupported(a.config.Module, supported); err != nil {
		return err
	}

	resolver := codes.NewResolver(doc.Codes.CodeToIDs, doc.Codes.IDToCodes)

	var specs []rules.RuleSpec
	var diags diag.Diagnostics
	if mod, ok := doc.ModuleByCode(a.config.Module); ok {
		mode := rules.Lenient
		if a.config.Strict {
			mode = rules.Strict
		}
		specs, diags, err = rules.ParseModule(mod, mode)
		if err != nil {
			return fmt.Errorf("failed to parse module rules: %w", err)
		}
	}

	opts := graph.BuildOptions{
		Snapshot:   doc.Topology[a.config.Module],
		Enrichment: doc.Enrichment,
	}
	if cat, ok := doc.CatalogByCode(a.config.Module); ok {
		opts.Catalog = cat
	}

	g, buildDiags := graph.Build(ctx, a.config.Module, specs, resolver, opts)
	diags.Extend(buildDiags)
	a.logger.Debug("Dependency graph built.", "node_count", len(g.Nodes), "edge_count", len(g.Edges))

	if len(a.config.Objectives) > 0 {
		g = query.FilterByObjectives(g, a.config.Objectives)
		a.logger.Debug("Graph restricted to selected objectives.", "node_count", len(g.Nodes))
	}

	a.renderGraph(g)

	if a.config.Focus != "" {
		focusID := a.config.Focus
		if n, ok := g.NodeByCode(focusID); ok {
			focusID = n.ID
		}
		nodes, edges, focusDiags := query.FocusNeighborhood(g, focusID)
		diags.Extend(focusDiags)
		a.renderFocus(g, focusID, nodes, edges)
	}

	a.renderDiagnostics(diags)

	a.logger.Debug("App.Run method finished.")
	return nil
}

// renderGraph prints the node and edge tables in deterministic order.
func (a *App) renderGraph(g *graph.Graph) {
	fmt.Fprintf(a.outW, "module %s: %d node(s), %d edge(s)\n", g.ModuleID, len(g.Nodes), len(g.Edges))

	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		marker := ""
		if n.Ghost {
			marker = " [ghost]"
		}
		open := ""
		if n.InitiallyOpen {
			open = " (initially open)"
		}
		fmt.Fprintf(a.outW, "  node %-12s %-9s code=%s %q%s%s\n", n.ID, n.Kind, n.Code, n.Label, marker, open)
	}

	edges := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		line := fmt.Sprintf("  edge %s -> %s (%s", e.FromID, e.ToID, e.Kind)
		if e.Threshold != nil {
			line += fmt.Sprintf(", %s >= %v", e.Threshold.Metric, e.Threshold.Value)
		}
		line += ")"
		edges = append(edges, line)
	}
	sort.Strings(edges)
	for _, line := range edges {
		fmt.Fprintln(a.outW, line)
	}
}

// renderFocus prints the dependency neighborhood of the focused unit.
func (a *App) renderFocus(g *graph.Graph, focusID string, nodes query.Set, edges []unit.Dependency) {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(a.outW, "focus %s: %d related node(s)\n", focusID, len(ids))
	for _, id := range ids {
		role := "related"
		if id == focusID {
			role = "focus"
		}
		fmt.Fprintf(a.outW, "  %-12s %s\n", id, role)
	}
	for _, e := range edges {
		inferred := ""
		if e.Inferred {
			inferred = " [inferred]"
		}
		fmt.Fprintf(a.outW, "  %s -> %s (%s)%s\n", e.FromID, e.ToID, e.Kind, inferred)
	}
}

// renderDiagnostics prints every collected finding.
func (a *App) renderDiagnostics(diags diag.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(a.outW, "%d diagnostic(s):\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(a.outW, "  [%s] %s\n", d.Code, d.Error())
	}
}
