// Package diag defines the structured diagnostics that every build and
// query operation returns alongside its result. Diagnostics are values, not
// log lines: callers and tests assert on them deterministically, and the
// rendering layer decides what to surface.
//
// The shape follows hcl.Diagnostics: a severity, a stable machine-readable
// code, a one-line summary and an optional subject reference.
package diag

import (
	"fmt"
	"strings"
)

// Severity distinguishes recoverable warnings from hard errors.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Code identifies one class of diagnostic.
type Code string

const (
	// CodeTokenParse marks a malformed requirement token.
	CodeTokenParse Code = "token_parse_error"
	// CodeAmbiguousCode marks a code resolving to more than one id.
	CodeAmbiguousCode Code = "ambiguous_code_resolution"
	// CodeUnresolvedReference marks a code with no resolution; a ghost
	// node stands in for it.
	CodeUnresolvedReference Code = "unresolved_reference"
	// CodeUnsupportedModule marks a build request outside the module
	// support set.
	CodeUnsupportedModule Code = "unsupported_module"
	// CodeGraphIntegrity marks a cycle detected during build or traversal.
	CodeGraphIntegrity Code = "graph_integrity_warning"
	// CodeSelfLoop marks an edge whose endpoints coincide; the edge is
	// dropped.
	CodeSelfLoop Code = "self_loop_rejected"
	// CodeDuplicateEdge marks two rules producing the same edge with
	// conflicting thresholds; the stricter one is kept.
	CodeDuplicateEdge Code = "duplicate_edge"
	// CodeUnusedEnrichment marks enrichment entries matching no edge.
	CodeUnusedEnrichment Code = "unused_enrichment"
)

// Diagnostic is a single structured finding.
type Diagnostic struct {
	Severity Severity
	Code     Code
	// Summary is a short human-readable description.
	Summary string
	// Subject names the entity the finding is about (a code, an id, an
	// edge), when there is one.
	Subject string
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped where an error is expected.
func (d Diagnostic) Error() string {
	if d.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.Subject, d.Summary)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Summary)
}

// Diagnostics is an ordered collection of findings.
type Diagnostics []Diagnostic

// Warnf appends a warning-severity diagnostic.
func (ds *Diagnostics) Warnf(code Code, subject, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Summary:  fmt.Sprintf(format, args...),
		Subject:  subject,
	})
}

// Errorf appends an error-severity diagnostic.
func (ds *Diagnostics) Errorf(code Code, subject, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Summary:  fmt.Sprintf(format, args...),
		Subject:  subject,
	})
}

// Extend appends all findings from another collection.
func (ds *Diagnostics) Extend(other Diagnostics) {
	*ds = append(*ds, other...)
}

// HasErrors reports whether any finding carries error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByCode returns the findings carrying the given code, preserving order.
func (ds Diagnostics) ByCode(code Code) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Error implements the error interface over the whole collection.
func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(ds[0].Error())
	fmt.Fprintf(&sb, ", and %d other diagnostic(s)", len(ds)-1)
	return sb.String()
}
