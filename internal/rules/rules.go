// Package rules parses raw rule-condition tokens and per-unit rule payloads
// into the structured form consumed by the graph builder. Parsing is the
// validation boundary: heterogeneous input shapes are rejected or
// quarantined here so that no ambiguity reaches graph construction.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/unlockgraph/internal/diag"
	"github.com/vk/unlockgraph/internal/payload"
	"github.com/vk/unlockgraph/internal/unit"
)

// Strictness selects how a module parse reacts to a malformed token.
type Strictness int

const (
	// Lenient drops the offending requirement, records a diagnostic, and
	// keeps importing the rest of the module.
	Lenient Strictness = iota
	// Strict aborts the whole module parse on the first malformed token.
	Strict
)

// Requirement is one parsed rule condition: a source code plus an optional
// performance threshold.
type Requirement struct {
	SourceCode string
	Threshold  *unit.Threshold
	// Raw preserves the original token for diagnostics and edge
	// traceability.
	Raw string
}

// RuleSpec is the parser's output for one target unit and one rule
// direction. RuleSpecs are transient: the graph builder consumes them
// immediately and they are not retained.
type RuleSpec struct {
	TargetCode    string
	Direction     unit.EdgeKind
	Requirements  []Requirement
	InitiallyOpen bool
}

// ParseRequirement parses a single rule-condition token.
//
// Recognized forms:
//
//	CODE        unconditional prerequisite (exposure, no performance bar)
//	CODE@P%     success-rate threshold, P in [0,100], stored as P/100
//	CODE#L      level threshold, L a non-negative integer
func ParseRequirement(token string) (Requirement, error) {
	raw := token
	token = strings.TrimSpace(token)
	if token == "" {
		return Requirement{}, fmt.Errorf("empty requirement token")
	}

	at := strings.IndexByte(token, '@')
	hash := strings.IndexByte(token, '#')
	if at >= 0 && hash >= 0 {
		return Requirement{}, fmt.Errorf("token %q mixes '@' and '#' threshold markers", token)
	}

	code := token
	var threshold *unit.Threshold

	switch {
	case at >= 0:
		code = strings.TrimSpace(token[:at])
		suffix := strings.TrimSpace(token[at+1:])
		if !strings.HasSuffix(suffix, "%") {
			return Requirement{}, fmt.Errorf("success-rate suffix %q must end with '%%'", suffix)
		}
		pctText := strings.TrimSpace(strings.TrimSuffix(suffix, "%"))
		pct, err := strconv.ParseFloat(pctText, 64)
		if err != nil {
			return Requirement{}, fmt.Errorf("invalid success-rate value %q: %w", pctText, err)
		}
		if pct < 0 || pct > 100 {
			return Requirement{}, fmt.Errorf("success-rate %v%% is outside [0,100]", pct)
		}
		threshold = &unit.Threshold{Metric: unit.MetricSuccessRate, Value: clamp01(pct / 100)}
	case hash >= 0:
		code = strings.TrimSpace(token[:hash])
		suffix := strings.TrimSpace(token[hash+1:])
		lvl, err := strconv.Atoi(suffix)
		if err != nil {
			return Requirement{}, fmt.Errorf("invalid level value %q: level must be an integer", suffix)
		}
		if lvl < 0 {
			return Requirement{}, fmt.Errorf("level %d must be non-negative", lvl)
		}
		threshold = &unit.Threshold{Metric: unit.MetricLevel, Value: float64(lvl)}
	}

	if code == "" {
		return Requirement{}, fmt.Errorf("token %q has an empty code", token)
	}
	if strings.ContainsAny(code, " \t") {
		return Requirement{}, fmt.Errorf("code %q contains whitespace", code)
	}

	return Requirement{SourceCode: code, Threshold: threshold, Raw: strings.TrimSpace(raw)}, nil
}

// ParseUnitRules parses one target unit's payload into at most two
// RuleSpecs, one per rule direction with a non-empty requirement list.
//
// A malformed token is attributed to its target and token in the returned
// diagnostics. In Lenient mode the requirement is dropped and parsing
// continues; in Strict mode the first malformed token fails the call.
func ParseUnitRules(targetCode string, ur payload.UnitRules, mode Strictness) ([]RuleSpec, diag.Diagnostics, error) {
	if strings.TrimSpace(targetCode) == "" {
		return nil, nil, fmt.Errorf("rule payload has an empty target code")
	}

	var diags diag.Diagnostics
	var specs []RuleSpec

	directions := []struct {
		kind   unit.EdgeKind
		tokens []string
	}{
		{unit.EdgeActivation, ur.Activation},
		{unit.EdgeDeactivation, ur.Deactivation},
	}

	for _, dir := range directions {
		if len(dir.tokens) == 0 {
			continue
		}
		spec := RuleSpec{
			TargetCode:    targetCode,
			Direction:     dir.kind,
			InitiallyOpen: ur.InitiallyOpen,
		}
		for _, token := range dir.tokens {
			req, err := ParseRequirement(token)
			if err != nil {
				if mode == Strict {
					return nil, diags, fmt.Errorf("target %s: token %q: %w", targetCode, token, err)
				}
				diags.Warnf(diag.CodeTokenParse, targetCode, "dropped requirement %q: %v", token, err)
				continue
			}
			spec.Requirements = append(spec.Requirements, req)
		}
		specs = append(specs, spec)
	}

	if len(specs) == 0 && ur.InitiallyOpen {
		// Carry the initial-availability flag even when the unit has no
		// requirement lists at all.
		specs = append(specs, RuleSpec{
			TargetCode:    targetCode,
			Direction:     unit.EdgeActivation,
			InitiallyOpen: true,
		})
	}

	return specs, diags, nil
}

// ParseModule parses a whole module's rule payload. Target units are
// processed in lexicographic code order so that the resulting specs, and
// everything built from them, are deterministic.
func ParseModule(mod *payload.Module, mode Strictness) ([]RuleSpec, diag.Diagnostics, error) {
	var diags diag.Diagnostics
	var specs []RuleSpec

	for _, targetCode := range sortedKeys(mod.Units) {
		unitSpecs, unitDiags, err := ParseUnitRules(targetCode, mod.Units[targetCode], mode)
		diags.Extend(unitDiags)
		if err != nil {
			return nil, diags, fmt.Errorf("module %s: %w", mod.Code, err)
		}
		specs = append(specs, unitSpecs...)
	}

	return specs, diags, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortedKeys(m map[string]payload.UnitRules) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
