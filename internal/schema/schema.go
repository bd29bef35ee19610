// Package schema declares the HCL block structures of a rule document.
// These structs mirror the on-disk format only; the hclrules loader
// translates them into the format-agnostic payload model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// UnitBlock is a `unit` block inside a `module` block: the raw rule payload
// of one target unit.
type UnitBlock struct {
	Code          string   `hcl:"code,label"`
	Activation    []string `hcl:"activation,optional"`
	Deactivation  []string `hcl:"deactivation,optional"`
	InitiallyOpen bool     `hcl:"initially_open,optional"`
}

// ModuleBlock is a top-level `module` block holding one module's rules.
type ModuleBlock struct {
	Code  string       `hcl:"code,label"`
	Units []*UnitBlock `hcl:"unit,block"`
}

// CodeBlock is a top-level `code` block: one entry of the code/id mapping
// table.
type CodeBlock struct {
	Code string   `hcl:"code,label"`
	IDs  []string `hcl:"ids"`
}

// ActivityBlock is an `activity` entry of the catalog hierarchy.
type ActivityBlock struct {
	Code  string `hcl:"code,label"`
	ID    string `hcl:"id,optional"`
	Label string `hcl:"label,optional"`
}

// ObjectiveBlock is an `objective` entry with its activities.
type ObjectiveBlock struct {
	Code       string           `hcl:"code,label"`
	ID         string           `hcl:"id,optional"`
	Label      string           `hcl:"label,optional"`
	Activities []*ActivityBlock `hcl:"activity,block"`
}

// CatalogBlock is a top-level `catalog` block describing one module's
// hierarchy.
type CatalogBlock struct {
	Code       string            `hcl:"code,label"`
	ID         string            `hcl:"id,optional"`
	Label      string            `hcl:"label,optional"`
	Objectives []*ObjectiveBlock `hcl:"objective,block"`
}

// EnrichmentBlock is a top-level `enrichment` block: auxiliary metric
// annotations keyed by source code. The metrics attribute is kept as a raw
// expression and evaluated during translation.
type EnrichmentBlock struct {
	Code    string         `hcl:"code,label"`
	Metrics hcl.Expression `hcl:"metrics"`
}

// TopologyNodeBlock is a `node` entry of a pre-resolved topology snapshot.
type TopologyNodeBlock struct {
	ID            string `hcl:"id,label"`
	Kind          string `hcl:"kind,optional"`
	Code          string `hcl:"code,optional"`
	Label         string `hcl:"label,optional"`
	Objective     string `hcl:"objective,optional"`
	InitiallyOpen bool   `hcl:"initially_open,optional"`
	Ghost         bool   `hcl:"ghost,optional"`
}

// TopologyEdgeBlock is an `edge` entry of a pre-resolved topology snapshot.
// At most one of success_rate and level may be set.
type TopologyEdgeBlock struct {
	From        string   `hcl:"from"`
	To          string   `hcl:"to"`
	Kind        string   `hcl:"kind,optional"`
	SuccessRate *float64 `hcl:"success_rate,optional"`
	Level       *int     `hcl:"level,optional"`
}

// TopologyBlock is a top-level `topology` block shipping a pre-resolved
// snapshot for one module.
type TopologyBlock struct {
	Module string               `hcl:"module,label"`
	Nodes  []*TopologyNodeBlock `hcl:"node,block"`
	Edges  []*TopologyEdgeBlock `hcl:"edge,block"`
}

// Document is the full decoded shape of one rule file. Any combination of
// top-level blocks may appear in any file; the loader merges across files.
type Document struct {
	Modules     []*ModuleBlock     `hcl:"module,block"`
	Codes       []*CodeBlock       `hcl:"code,block"`
	Catalogs    []*CatalogBlock    `hcl:"catalog,block"`
	Enrichments []*EnrichmentBlock `hcl:"enrichment,block"`
	Topologies  []*TopologyBlock   `hcl:"topology,block"`
	Remain      hcl.Body           `hcl:",remain"`
}
