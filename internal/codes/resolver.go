package codes

import (
	"sort"
)

// Resolver is the immutable bidirectional mapping between canonical entity
// identifiers and human-facing codes. It is built once from the rule
// source's mapping table and read-only thereafter, so it is safe to share
// across concurrent graph builds.
type Resolver struct {
	codeToIDs map[string][]string
	idToCodes map[string][]string
}

// NewResolver copies the supplied mapping tables into a Resolver. Candidate
// lists are sorted lexicographically so that ambiguous codes resolve
// deterministically.
func NewResolver(codeToIDs map[string][]string, idToCodes map[string][]string) *Resolver {
	r := &Resolver{
		codeToIDs: make(map[string][]string, len(codeToIDs)),
		idToCodes: make(map[string][]string, len(idToCodes)),
	}
	for code, ids := range codeToIDs {
		if code == "" {
			continue
		}
		cp := cleanCopy(ids)
		if len(cp) == 0 {
			continue
		}
		sort.Strings(cp)
		r.codeToIDs[code] = cp
	}
	for id, cs := range idToCodes {
		if id == "" {
			continue
		}
		cp := cleanCopy(cs)
		if len(cp) == 0 {
			continue
		}
		sort.Strings(cp)
		r.idToCodes[id] = cp
	}
	return r
}

// Resolve returns the candidate canonical ids for a code, sorted
// lexicographically. An unknown code yields an empty slice; the caller is
// expected to synthesize a ghost node rather than fail.
func (r *Resolver) Resolve(code string) []string {
	return r.codeToIDs[code]
}

// CodesFor returns the known codes for an id, sorted lexicographically.
// An unknown id yields an empty slice.
func (r *Resolver) CodesFor(id string) []string {
	return r.idToCodes[id]
}

// PreferredCode picks the most specific code for an id: activity codes
// first, then objective, then module, then anything else; longer codes win
// within a class, then lexicographic order breaks the remaining ties.
func (r *Resolver) PreferredCode(id string) string {
	cs := r.idToCodes[id]
	if len(cs) == 0 {
		return ""
	}
	best := cs[0]
	for _, c := range cs[1:] {
		if preferCode(c, best) {
			best = c
		}
	}
	return best
}

func preferCode(a, b string) bool {
	ra, rb := classRank(a), classRank(b)
	if ra != rb {
		return ra < rb
	}
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}

func classRank(code string) int {
	switch Classify(code) {
	case ClassActivity:
		return 0
	case ClassObjective:
		return 1
	case ClassModule:
		return 2
	default:
		return 3
	}
}

func cleanCopy(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
