package yamlrules

import (
	"fmt"

	"github.com/vk/unlockgraph/internal/payload"
	"github.com/vk/unlockgraph/internal/unit"
)

// mergeInto translates one decoded file and merges it into the accumulated
// document.
func mergeInto(doc *payload.Document, root *fileRoot) error {
	for _, mod := range root.Modules {
		translated := payload.Module{
			Code:  mod.Code,
			Units: make(map[string]payload.UnitRules, len(mod.Units)),
		}
		for code, u := range mod.Units {
			translated.Units[code] = payload.UnitRules{
				Activation:    u.Activation,
				Deactivation:  u.Deactivation,
				InitiallyOpen: u.InitiallyOpen,
			}
		}
		doc.Modules = append(doc.Modules, translated)
	}

	for code, ids := range root.Codes {
		doc.Codes.CodeToIDs[code] = append(doc.Codes.CodeToIDs[code], ids...)
	}

	for _, cat := range root.Catalog {
		translated := payload.CatalogModule{ID: cat.ID, Code: cat.Code, Label: cat.Label}
		for _, obj := range cat.Objectives {
			translatedObj := payload.CatalogObjective{ID: obj.ID, Code: obj.Code, Label: obj.Label}
			for _, act := range obj.Activities {
				translatedObj.Activities = append(translatedObj.Activities, payload.CatalogActivity{
					ID:    act.ID,
					Code:  act.Code,
					Label: act.Label,
				})
			}
			translated.Objectives = append(translated.Objectives, translatedObj)
		}
		doc.Catalog = append(doc.Catalog, translated)
	}

	for code, metrics := range root.Enrichment {
		doc.Enrichment[code] = metrics
	}

	for moduleCode, topo := range root.Topology {
		snap, err := translateTopology(moduleCode, topo)
		if err != nil {
			return err
		}
		doc.Topology[moduleCode] = snap
	}
	return nil
}

func translateTopology(moduleCode string, topo topologyRoot) (*payload.Snapshot, error) {
	snap := &payload.Snapshot{}
	for _, n := range topo.Nodes {
		kind, err := parseKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("topology %s, node %s: %w", moduleCode, n.ID, err)
		}
		snap.Nodes = append(snap.Nodes, unit.Unit{
			ID:            n.ID,
			Kind:          kind,
			ModuleID:      moduleCode,
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
			return nil, fmt.Errorf("topology %s, edge %s->%s: %w", moduleCode, e.From, e.To, err)
		}
		var threshold *unit.Threshold
		switch {
		case e.SuccessRate != nil && e.Level != nil:
			return nil, fmt.Errorf("topology %s, edge %s->%s: success_rate and level are mutually exclusive", moduleCode, e.From, e.To)
		case e.SuccessRate != nil:
			if *e.SuccessRate < 0 || *e.SuccessRate > 1 {
				return nil, fmt.Errorf("topology %s, edge %s->%s: success_rate %v is outside [0,1]", moduleCode, e.From, e.To, *e.SuccessRate)
			}
			threshold = &unit.Threshold{Metric: unit.MetricSuccessRate, Value: *e.SuccessRate}
		case e.Level != nil:
			if *e.Level < 0 {
				return nil, fmt.Errorf("topology %s, edge %s->%s: level %d must be non-negative", moduleCode, e.From, e.To, *e.Level)
			}
			threshold = &unit.Threshold{Metric: unit.MetricLevel, Value: float64(*e.Level)}
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
