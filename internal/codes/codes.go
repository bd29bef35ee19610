// Package codes implements the human-facing code grammar (module, objective
// and activity codes such as "M1", "M1O3", "M1O3A1") and the bidirectional
// resolver between codes and canonical catalog identifiers.
package codes

import (
	"regexp"
	"strconv"
)

// Class is the structural shape of a code.
type Class int

const (
	ClassUnknown Class = iota
	ClassModule
	ClassObjective
	ClassActivity
)

var (
	moduleRegex    = regexp.MustCompile(`^M\d+$`)
	objectiveRegex = regexp.MustCompile(`^M\d+O\d+$`)
	activityRegex  = regexp.MustCompile(`^(M\d+O\d+)A(\d+)$`)
)

// Classify reports the structural shape of a code.
func Classify(code string) Class {
	switch {
	case activityRegex.MatchString(code):
		return ClassActivity
	case objectiveRegex.MatchString(code):
		return ClassObjective
	case moduleRegex.MatchString(code):
		return ClassModule
	default:
		return ClassUnknown
	}
}

// ParentObjective returns the owning objective's code: the objective prefix
// for an activity code, the code itself for an objective code, and ""
// otherwise.
func ParentObjective(code string) string {
	if m := activityRegex.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	if objectiveRegex.MatchString(code) {
		return code
	}
	return ""
}

// ActivityIndex returns the 1-based position encoded in an activity code,
// or 0 when the code is not an activity code.
func ActivityIndex(code string) int {
	m := activityRegex.FindStringSubmatch(code)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		// Unreachable due to regex `\d+`.
		return 0
	}
	return n
}

// ModuleSortKey orders module codes numerically ("M2" before "M10"). Codes
// outside the grammar sort last, among themselves lexicographically.
func ModuleSortKey(code string) int {
	if !moduleRegex.MatchString(code) {
		return int(^uint(0) >> 1)
	}
	n, _ := strconv.Atoi(code[1:])
	return n
}
