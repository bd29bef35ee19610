// Package payload defines the format-agnostic representation of a rule
// document — per-module unlock rules, the code/id mapping table, the
// optional catalog hierarchy, enrichment annotations and pre-resolved
// topology snapshots — along with the Loader interface implemented by the
// concrete HCL and YAML frontends.
//
// The payload model is the single source of truth for the graph builder;
// the engine itself performs no I/O.
package payload

import (
	"context"

	"github.com/vk/unlockgraph/internal/unit"
)

// UnitRules holds the raw rule-condition tokens for one target unit.
type UnitRules struct {
	// Activation lists prerequisite tokens (CODE, CODE@P%, CODE#L).
	Activation []string
	// Deactivation lists disabling-condition tokens, same grammar.
	Deactivation []string
	// InitiallyOpen marks the unit available before any prerequisite is
	// met.
	InitiallyOpen bool
}

// Module groups the rules of one module, keyed by target unit code.
type Module struct {
	Code  string
	Units map[string]UnitRules
}

// CodeMap is the rule source's bidirectional code/id mapping table.
type CodeMap struct {
	CodeToIDs map[string][]string
	IDToCodes map[string][]string
}

// CatalogActivity is one activity entry of the catalog hierarchy.
type CatalogActivity struct {
	ID    string
	Code  string
	Label string
}

// CatalogObjective is one objective entry with its activities.
type CatalogObjective struct {
	ID         string
	Code       string
	Label      string
	Activities []CatalogActivity
}

// CatalogModule is one module entry of the catalog hierarchy.
type CatalogModule struct {
	ID         string
	Code       string
	Label      string
	Objectives []CatalogObjective
}

// Snapshot is a pre-resolved topology shipped in place of raw rules. When
// present for a module it is authoritative: the builder adopts it verbatim
// and skips rule parsing.
type Snapshot struct {
	Nodes []unit.Unit
	Edges []unit.Dependency
}

// Document is the complete, materialized input of one build: everything
// the external I/O layer hands to the engine.
type Document struct {
	Modules []Module
	Codes   CodeMap
	Catalog []CatalogModule
	// Enrichment maps a source code to auxiliary metric annotations that
	// are joined onto matching edges at build time.
	Enrichment map[string]map[string]float64
	// Topology maps a module code to its pre-resolved snapshot, if any.
	Topology map[string]*Snapshot
}

// ModuleByCode returns the rules of one module, if present.
func (d *Document) ModuleByCode(code string) (*Module, bool) {
	for i := range d.Modules {
		if d.Modules[i].Code == code {
			return &d.Modules[i], true
		}
	}
	return nil, false
}

// ModuleCodes returns the codes of all modules carrying rules.
func (d *Document) ModuleCodes() []string {
	out := make([]string, 0, len(d.Modules))
	for i := range d.Modules {
		out = append(out, d.Modules[i].Code)
	}
	return out
}

// CatalogModuleCodes returns the codes of all modules in the catalog.
func (d *Document) CatalogModuleCodes() []string {
	out := make([]string, 0, len(d.Catalog))
	for i := range d.Catalog {
		out = append(out, d.Catalog[i].Code)
	}
	return out
}

// CatalogByCode returns the catalog entry of one module, if present.
func (d *Document) CatalogByCode(code string) (*CatalogModule, bool) {
	for i := range d.Catalog {
		if d.Catalog[i].Code == code {
			return &d.Catalog[i], true
		}
	}
	return nil, false
}

// Loader is the interface for a format-specific rule-document loader. It
// reads one or more paths, translates their contents into the
// format-agnostic Document, and leaves all graph semantics to the engine.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Document, error)
}
