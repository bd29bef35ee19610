// Package unit defines the core domain types of the dependency engine:
// learning units (graph nodes), dependencies between them (graph edges),
// and the thresholds and performance overlays attached to both.
package unit

// Kind classifies a unit within the module hierarchy.
type Kind string

const (
	// KindActivity is a single exercise a learner can attempt.
	KindActivity Kind = "activity"
	// KindObjective is a pedagogical objective grouping several activities.
	KindObjective Kind = "objective"
)

// EdgeKind classifies a dependency edge.
type EdgeKind string

const (
	// EdgeActivation means mastering the source unlocks the target.
	EdgeActivation EdgeKind = "activation"
	// EdgeDeactivation means the source's state can close or de-prioritize
	// the target. Deactivation edges never participate in unlock-chain
	// traversal.
	EdgeDeactivation EdgeKind = "deactivation"
)

// Metric names the quantity a threshold gates on.
type Metric string

const (
	// MetricSuccessRate gates on a success ratio in [0, 1].
	MetricSuccessRate Metric = "success_rate"
	// MetricLevel gates on an ordinal level (non-negative integer).
	MetricLevel Metric = "level"
)

// Threshold is the performance bar a requirement imposes on its source unit.
// A nil *Threshold on a dependency means mere exposure is enough.
type Threshold struct {
	Metric Metric
	Value  float64
}

// Stricter reports whether t is a harder bar to clear than other. A nil
// other is always less strict. Thresholds on different metrics are not
// comparable; in that case the existing one wins and Stricter returns false.
func (t *Threshold) Stricter(other *Threshold) bool {
	if t == nil {
		return false
	}
	if other == nil {
		return true
	}
	if t.Metric != other.Metric {
		return false
	}
	return t.Value > other.Value
}

// Overlay carries externally computed performance metrics attached to a
// node after graph construction. It never affects topology.
type Overlay struct {
	Attempts          float64
	SuccessRate       float64
	RepeatAttemptRate float64
}

// Unit is one node in a module's dependency graph.
type Unit struct {
	// ID is the canonical identifier, unique within the module's graph.
	// Ghost nodes use their unresolved code as the ID.
	ID       string
	Kind     Kind
	ModuleID string
	// Code is the human-facing short code (e.g. "M1O3A1"); may be empty.
	Code string
	// Label is the display name; may be empty.
	Label string
	// ObjectiveCode is the owning objective's code. For an objective it is
	// its own code; for an activity it is derived from the code grammar.
	ObjectiveCode string
	// ActivityIndex is the 1-based position encoded in an activity code,
	// or 0 when the unit is not an activity.
	ActivityIndex int
	// InitiallyOpen marks units available before any prerequisite is met.
	InitiallyOpen bool
	// Ghost marks a placeholder synthesized for a reference that resolved
	// to no real catalog entity.
	Ghost bool
	// Overlay is attached post-build by the overlay merger; nil otherwise.
	Overlay *Overlay
}

// Dependency is one directed edge: the source unit gates the target unit.
type Dependency struct {
	FromID string
	ToID   string
	Kind   EdgeKind
	// Threshold is the parsed performance bar, nil for unconditional edges.
	Threshold *Threshold
	// Inferred is true only for edges synthesized by objective bridging
	// during traversal, never for edges taken from a rule payload.
	Inferred bool
	// RuleText preserves the raw requirement token for traceability.
	RuleText string
	// Enrichment holds auxiliary per-source-code annotations joined onto
	// the edge at build time (e.g. observed "lvl" / "sr" values).
	Enrichment map[string]float64
}
