// Package overlay joins externally computed per-unit performance metrics
// onto a built dependency graph. Merging is pure: it returns a derived
// graph and never alters topology.
package overlay

import (
	"time"

	"github.com/vk/unlockgraph/internal/graph"
	"github.com/vk/unlockgraph/internal/unit"
)

// Merge returns a derived graph where each node's overlay is set from the
// lookup when present and cleared otherwise. Ghost nodes never receive an
// overlay: no real entity backs them to measure. Merging the same metrics
// twice yields the same graph.
func Merge(g *graph.Graph, metricsByUnitID map[string]unit.Overlay) *graph.Graph {
	out := g.Derive()
	for id, n := range out.Nodes {
		if n.Ghost {
			n.Overlay = nil
			continue
		}
		if m, ok := metricsByUnitID[id]; ok {
			cp := m
			n.Overlay = &cp
		} else {
			n.Overlay = nil
		}
	}
	return out
}

// AttemptRow is one daily per-activity aggregate handed in by the external
// I/O layer.
type AttemptRow struct {
	Date              time.Time
	ModuleID          string
	ObjectiveID       string
	ActivityID        string
	Attempts          float64
	SuccessRate       float64
	RepeatAttemptRate float64
}

// WindowMetrics collapses daily attempt rows inside a date window into
// per-unit overlay metrics: plain attempt sums, and attempt-weighted
// averages for the rate metrics. Activity rows roll up into both the
// activity's own entry and its objective's entry, so objectives reflect
// all attempts beneath them. The window is inclusive on both ends.
func WindowMetrics(rows []AttemptRow, moduleID string, start, end time.Time) map[string]unit.Overlay {
	type acc struct {
		attempts float64
		successW float64
		repeatW  float64
	}
	accs := make(map[string]*acc)

	add := func(id string, r AttemptRow) {
		if id == "" {
			return
		}
		a := accs[id]
		if a == nil {
			a = &acc{}
			accs[id] = a
		}
		a.attempts += r.Attempts
		a.successW += r.SuccessRate * r.Attempts
		a.repeatW += r.RepeatAttemptRate * r.Attempts
	}

	for _, r := range rows {
		if r.ModuleID != moduleID {
			continue
		}
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		add(r.ActivityID, r)
		add(r.ObjectiveID, r)
	}

	out := make(map[string]unit.Overlay, len(accs))
	for id, a := range accs {
		o := unit.Overlay{Attempts: a.attempts}
		if a.attempts > 0 {
			o.SuccessRate = a.successW / a.attempts
			o.RepeatAttemptRate = a.repeatW / a.attempts
		}
		out[id] = o
	}
	return out
}
