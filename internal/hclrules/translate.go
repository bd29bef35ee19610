package hclrules

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/unlockgraph/internal/payload"
	"github.com/vk/unlockgraph/internal/schema"
	"github.com/vk/unlockgraph/internal/unit"
)

// translateModule converts an HCL module block into the agnostic model.
func translateModule(mod *schema.ModuleBlock) (*payload.Module, error) {
	out := &payload.Module{
		Code:  mod.Code,
		Units: make(map[string]payload.UnitRules, len(mod.Units)),
	}
	for _, u := range mod.Units {
		if _, dup := out.Units[u.Code]; dup {
			return nil, fmt.Errorf("module %s declares unit %q twice", mod.Code, u.Code)
		}
		out.Units[u.Code] = payload.UnitRules{
			Activation:    u.Activation,
			Deactivation:  u.Deactivation,
			InitiallyOpen: u.InitiallyOpen,
		}
	}
	return out, nil
}

// translateCatalog converts an HCL catalog block into the agnostic model.
func translateCatalog(cat *schema.CatalogBlock) payload.CatalogModule {
	out := payload.CatalogModule{
		ID:    cat.ID,
		Code:  cat.Code,
		Label: cat.Label,
	}
	for _, obj := range cat.Objectives {
		translated := payload.CatalogObjective{
			ID:    obj.ID,
			Code:  obj.Code,
			Label: obj.Label,
		}
		for _, act := range obj.Activities {
			translated.Activities = append(translated.Activities, payload.CatalogActivity{
				ID:    act.ID,
				Code:  act.Code,
				Label: act.Label,
			})
		}
		out.Objectives = append(out.Objectives, translated)
	}
	return out
}

// translateMetrics statically evaluates an enrichment block's metrics
// expression into a name/number map.
func translateMetrics(enr *schema.EnrichmentBlock) (map[string]float64, error) {
	val, diags := enr.Metrics.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("enrichment %s: metrics must be statically evaluable: %w", enr.Code, diags)
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, fmt.Errorf("enrichment %s: metrics must be an object of numbers", enr.Code)
	}

	out := make(map[string]float64)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if k.Type() != cty.String {
			return nil, fmt.Errorf("enrichment %s: metric names must be strings", enr.Code)
		}
		if v.Type() != cty.Number || v.IsNull() {
			return nil, fmt.Errorf("enrichment %s: metric %q must be a number", enr.Code, k.AsString())
		}
		f, _ := v.AsBigFloat().Float64()
		out[k.AsString()] = f
	}
	return out, nil
}

// translateTopology converts an HCL topology block into a snapshot.
func translateTopology(topo *schema.TopologyBlock) (*payload.Snapshot, error) {
	snap := &payload.Snapshot{}
	for _, n := range topo.Nodes {
		kind, err := parseKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("topology %s, node %s: %w", topo.Module, n.ID, err)
		}
		snap.Nodes = append(snap.Nodes, unit.Unit{
			ID:            n.ID,
			Kind:          kind,
			ModuleID:      topo.Module,
			Code:          n.Code,
			Label:         n.Label,
			ObjectiveCode: n.Objective,
			InitiallyOpen: n.InitiallyOpen,
			Ghost:         n.Ghost,
		})
	}
	for _, e := range topo.Edges {
		kind, err := parseEdgeKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("topology %s, edge %s->%s: %w", topo.Module, e.From, e.To, err)
		}
		threshold, err := translateThreshold(e)
		if err != nil {
			return nil, fmt.Errorf("topology %s, edge %s->%s: %w", topo.Module, e.From, e.To, err)
		}
		snap.Edges = append(snap.Edges, unit.Dependency{
			FromID:    e.From,
			ToID:      e.To,
			Kind:      kind,
			Threshold: threshold,
		})
	}
	return snap, nil
}

func translateThreshold(e *schema.TopologyEdgeBlock) (*unit.Threshold, error) {
	switch {
	case e.SuccessRate != nil && e.Level != nil:
		return nil, fmt.Errorf("success_rate and level are mutually exclusive")
	case e.SuccessRate != nil:
		if *e.SuccessRate < 0 || *e.SuccessRate > 1 {
			return nil, fmt.Errorf("success_rate %v is outside [0,1]", *e.SuccessRate)
		}
		return &unit.Threshold{Metric: unit.MetricSuccessRate, Value: *e.SuccessRate}, nil
	case e.Level != nil:
		if *e.Level < 0 {
			return nil, fmt.Errorf("level %d must be non-negative", *e.Level)
		}
		return &unit.Threshold{Metric: unit.MetricLevel, Value: float64(*e.Level)}, nil
	default:
		return nil, nil
	}
}

func parseKind(s string) (unit.Kind, error) {
	switch s {
	case "", string(unit.KindActivity):
		return unit.KindActivity, nil
	case string(unit.KindObjective):
		return unit.KindObjective, nil
	default:
		return "", fmt.Errorf("unknown unit kind %q", s)
	}
}

func parseEdgeKind(s string) (unit.EdgeKind, error) {
	switch s {
	case "", string(unit.EdgeActivation):
		return unit.EdgeActivation, nil
	case string(unit.EdgeDeactivation):
		return unit.EdgeDeactivation, nil
	default:
		return "", fmt.Errorf("unknown edge kind %q", s)
	}
}
