package overlay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/unlockgraph/internal/codes"
	"github.com/vk/unlockgraph/internal/graph"
	"github.com/vk/unlockgraph/internal/rules"
	"github.com/vk/unlockgraph/internal/unit"
)

// mergeFixture builds a graph with two real activities and one ghost.
func mergeFixture(t *testing.T) *graph.Graph {
	t.Helper()
	resolver := codes.NewResolver(map[string][]string{
		"M1O1A1": {"a1-id"},
		"M1O1A2": {"a2-id"},
	}, nil)
	specs := []rules.RuleSpec{
		{
			TargetCode: "M1O1A2",
			Direction:  unit.EdgeActivation,
			Requirements: []rules.Requirement{
				{SourceCode: "M1O1A1", Raw: "M1O1A1"},
				{SourceCode: "M9O9A9", Raw: "M9O9A9"},
			},
		},
	}
	g, _ := graph.Build(context.Background(), "M1", specs, resolver, graph.BuildOptions{})
	return g
}

func TestMerge(t *testing.T) {
	g := mergeFixture(t)
	metrics := map[string]unit.Overlay{
		"a1-id":  {Attempts: 20, SuccessRate: 0.85, RepeatAttemptRate: 0.1},
		"M9O9A9": {Attempts: 5, SuccessRate: 0.5},
	}

	merged := Merge(g, metrics)

	a1, _ := merged.Node("a1-id")
	require.NotNil(t, a1.Overlay)
	assert.Equal(t, 20.0, a1.Overlay.Attempts)
	assert.Equal(t, 0.85, a1.Overlay.SuccessRate)

	a2, _ := merged.Node("a2-id")
	assert.Nil(t, a2.Overlay, "a unit without metrics gets no overlay")

	ghost, _ := merged.Node("M9O9A9")
	assert.Nil(t, ghost.Overlay, "ghosts never receive an overlay")

	orig, _ := g.Node("a1-id")
	assert.Nil(t, orig.Overlay, "the source graph stays untouched")
}

func TestMergeIsIdempotent(t *testing.T) {
	g := mergeFixture(t)
	metrics := map[string]unit.Overlay{"a1-id": {Attempts: 3, SuccessRate: 0.6}}

	once := Merge(g, metrics)
	twice := Merge(once, metrics)

	a1Once, _ := once.Node("a1-id")
	a1Twice, _ := twice.Node("a1-id")
	assert.Equal(t, *a1Once.Overlay, *a1Twice.Overlay)
	assert.Equal(t, once.NodeIDs(), twice.NodeIDs())
}

func TestMergeReplacesStaleOverlays(t *testing.T) {
	g := mergeFixture(t)

	first := Merge(g, map[string]unit.Overlay{"a1-id": {Attempts: 3}})
	second := Merge(first, map[string]unit.Overlay{"a2-id": {Attempts: 7}})

	a1, _ := second.Node("a1-id")
	assert.Nil(t, a1.Overlay, "a unit absent from the new metrics is cleared")
	a2, _ := second.Node("a2-id")
	require.NotNil(t, a2.Overlay)
	assert.Equal(t, 7.0, a2.Overlay.Attempts)
}

func TestWindowMetrics(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	rows := []AttemptRow{
		{Date: day(1), ModuleID: "M1", ObjectiveID: "o1-id", ActivityID: "a1-id", Attempts: 10, SuccessRate: 0.8, RepeatAttemptRate: 0.2},
		{Date: day(2), ModuleID: "M1", ObjectiveID: "o1-id", ActivityID: "a1-id", Attempts: 10, SuccessRate: 0.9, RepeatAttemptRate: 0.1},
		{Date: day(2), ModuleID: "M1", ObjectiveID: "o1-id", ActivityID: "a2-id", Attempts: 30, SuccessRate: 0.5},
		// Outside the window and outside the module: both ignored.
		{Date: day(9), ModuleID: "M1", ObjectiveID: "o1-id", ActivityID: "a1-id", Attempts: 99, SuccessRate: 0.1},
		{Date: day(2), ModuleID: "M2", ObjectiveID: "o9-id", ActivityID: "c1-id", Attempts: 99},
	}

	metrics := WindowMetrics(rows, "M1", day(1), day(3))

	require.Len(t, metrics, 3)

	a1 := metrics["a1-id"]
	assert.Equal(t, 20.0, a1.Attempts)
	assert.InDelta(t, 0.85, a1.SuccessRate, 1e-9)
	assert.InDelta(t, 0.15, a1.RepeatAttemptRate, 1e-9)

	// The objective rolls up every attempt beneath it, attempt-weighted.
	o1 := metrics["o1-id"]
	assert.Equal(t, 50.0, o1.Attempts)
	assert.InDelta(t, 0.64, o1.SuccessRate, 1e-9)

	t.Run("window bounds are inclusive", func(t *testing.T) {
		got := WindowMetrics(rows, "M1", day(2), day(2))
		assert.Equal(t, 40.0, got["o1-id"].Attempts)
	})

	t.Run("zero attempts yield zero rates", func(t *testing.T) {
		got := WindowMetrics([]AttemptRow{
			{Date: day(1), ModuleID: "M1", ActivityID: "a1-id", SuccessRate: 0.9},
		}, "M1", day(1), day(3))
		assert.Equal(t, unit.Overlay{}, got["a1-id"])
	})
}
