// Package hclrules is the HCL-specific implementation of the
// payload.Loader interface. It parses rule documents — module rules, the
// code/id table, catalog hierarchy, enrichment annotations and topology
// snapshots — and translates them into the format-agnostic payload model.
package hclrules

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/unlockgraph/internal/ctxlog"
	"github.com/vk/unlockgraph/internal/fsutil"
	"github.com/vk/unlockgraph/internal/payload"
	"github.com/vk/unlockgraph/internal/schema"
)

// Loader loads rule documents from .hcl files.
type Loader struct{}

// NewLoader creates a new HCL rule-document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths and merges their blocks
// into a single Document. Any top-level block may appear in any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*payload.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL rule loader started.", "path_count", len(paths))

	var files []string
	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered rule files.", "count", len(files))

	doc := &payload.Document{
		Codes: payload.CodeMap{
			CodeToIDs: make(map[string][]string),
			IDToCodes: make(map[string][]string),
		},
		Enrichment: make(map[string]map[string]float64),
		Topology:   make(map[string]*payload.Snapshot),
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse rule file %s: %w", file, diags)
		}

		var root schema.Document
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode rule file %s: %w", file, diags)
		}

		if err := l.mergeInto(doc, &root); err != nil {
			return nil, fmt.Errorf("invalid rule file %s: %w", file, err)
		}
	}

	invertCodeMap(&doc.Codes)
	logger.Debug("HCL rule loading complete.",
		"modules", len(doc.Modules), "codes", len(doc.Codes.CodeToIDs),
		"catalogs", len(doc.Catalog), "topologies", len(doc.Topology))
	return doc, nil
}

// mergeInto translates one decoded file and merges it into the accumulated
// document.
func (l *Loader) mergeInto(doc *payload.Document, root *schema.Document) error {
	for _, mod := range root.Modules {
		translated, err := translateModule(mod)
		if err != nil {
			return err
		}
		doc.Modules = append(doc.Modules, *translated)
	}
	for _, code := range root.Codes {
		doc.Codes.CodeToIDs[code.Code] = append(doc.Codes.CodeToIDs[code.Code], code.IDs...)
	}
	for _, cat := range root.Catalogs {
		doc.Catalog = append(doc.Catalog, translateCatalog(cat))
	}
	for _, enr := range root.Enrichments {
		metrics, err := translateMetrics(enr)
		if err != nil {
			return err
		}
		doc.Enrichment[enr.Code] = metrics
	}
	for _, topo := range root.Topologies {
		snap, err := translateTopology(topo)
		if err != nil {
			return err
		}
		doc.Topology[topo.Module] = snap
	}
	return nil
}

// invertCodeMap fills the id-to-codes direction from the code-to-ids table.
func invertCodeMap(cm *payload.CodeMap) {
	for code, ids := range cm.CodeToIDs {
		for _, id := range ids {
			cm.IDToCodes[id] = append(cm.IDToCodes[id], code)
		}
	}
}
