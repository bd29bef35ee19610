package graph

import (
	"fmt"
	"sort"

	"github.com/vk/unlockgraph/internal/codes"
)

// UnsupportedModuleError rejects a build request for a module outside the
// support set, before any build work happens.
type UnsupportedModuleError struct {
	ModuleID string
}

func (e *UnsupportedModuleError) Error() string {
	return fmt.Sprintf("module %q is outside the module support set", e.ModuleID)
}

// SupportedModules computes the module support set: the intersection of the
// modules known to the rule source, the catalog source, and (optionally)
// the modules observed in attempt data. Empty input sets are treated as
// absent. The result is sorted in module-code order.
func SupportedModules(ruleModules, catalogModules, observedModules []string) []string {
	sets := make([]map[string]bool, 0, 3)
	for _, in := range [][]string{ruleModules, catalogModules, observedModules} {
		if len(in) == 0 {
			continue
		}
		set := make(map[string]bool, len(in))
		for _, m := range in {
			if m != "" {
				set[m] = true
			}
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil
	}

	out := make([]string, 0, len(sets[0]))
	for m := range sets[0] {
		supported := true
		for _, set := range sets[1:] {
			if !set[m] {
				supported = false
				break
			}
		}
		if supported {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ki, kj := codes.ModuleSortKey(out[i]), codes.ModuleSortKey(out[j])
		if ki != kj {
			return ki < kj
		}
		return out[i] < out[j]
	})
	return out
}

// EnsureSupported guards a build request against the support set.
func EnsureSupported(moduleID string, supported []string) error {
	for _, m := range supported {
		if m == moduleID {
			return nil
		}
	}
	return &UnsupportedModuleError{ModuleID: moduleID}
}
