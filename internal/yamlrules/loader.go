// Package yamlrules is the YAML-specific implementation of the
// payload.Loader interface. It accepts the same document shape as the HCL
// frontend for environments that ship rule payloads as YAML.
package yamlrules

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/unlockgraph/internal/ctxlog"
	"github.com/vk/unlockgraph/internal/fsutil"
	"github.com/vk/unlockgraph/internal/payload"
)

// Loader loads rule documents from .yaml/.yml files.
type Loader struct{}

// NewLoader creates a new YAML rule-document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is the YAML document shape.
type fileRoot struct {
	Modules []struct {
		Code  string `yaml:"code"`
		Units map[string]struct {
			Activation    []string `yaml:"activation"`
			Deactivation  []string `yaml:"deactivation"`
			InitiallyOpen bool     `yaml:"initially_open"`
		} `yaml:"units"`
	} `yaml:"modules"`
	Codes   map[string][]string `yaml:"codes"`
	Catalog []struct {
		Code       string `yaml:"code"`
		ID         string `yaml:"id"`
		Label      string `yaml:"label"`
		Objectives []struct {
			Code       string `yaml:"code"`
			ID         string `yaml:"id"`
			Label      string `yaml:"label"`
			Activities []struct {
				Code  string `yaml:"code"`
				ID    string `yaml:"id"`
				Label string `yaml:"label"`
			} `yaml:"activities"`
		} `yaml:"objectives"`
	} `yaml:"catalog"`
	Enrichment map[string]map[string]float64 `yaml:"enrichment"`
	Topology   map[string]topologyRoot       `yaml:"topology"`
}

type topologyRoot struct {
	Nodes []topologyNode `yaml:"nodes"`
	Edges []topologyEdge `yaml:"edges"`
}

type topologyNode struct {
	ID            string `yaml:"id"`
	Kind          string `yaml:"kind"`
	Code          string `yaml:"code"`
	Label         string `yaml:"label"`
	Objective     string `yaml:"objective"`
	InitiallyOpen bool   `yaml:"initially_open"`
	Ghost         bool   `yaml:"ghost"`
}

type topologyEdge struct {
	From        string   `yaml:"from"`
	To          string   `yaml:"to"`
	Kind        string   `yaml:"kind"`
	SuccessRate *float64 `yaml:"success_rate"`
	Level       *int     `yaml:"level"`
}

// Load parses every .yaml/.yml file under the given paths and merges their
// contents into a single Document.
func (l *Loader) Load(ctx context.Context, paths ...string) (*payload.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML rule loader started.", "path_count", len(paths))

	var files []string
	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ".yaml", ".yml")
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

	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", file, err)
		}
		var root fileRoot
		if err := yaml.Unmarshal(raw, &root); err != nil {
			return nil, fmt.Errorf("failed to decode rule file %s: %w", file, err)
		}
		if err := mergeInto(doc, &root); err != nil {
			return nil, fmt.Errorf("invalid rule file %s: %w", file, err)
		}
	}

	for code, ids := range doc.Codes.CodeToIDs {
		for _, id := range ids {
			doc.Codes.IDToCodes[id] = append(doc.Codes.IDToCodes[id], code)
		}
	}

	logger.Debug("YAML rule loading complete.",
		"modules", len(doc.Modules), "codes", len(doc.Codes.CodeToIDs),
		"catalogs", len(doc.Catalog), "topologies", len(doc.Topology))
	return doc, nil
}
