// Package templates resolves documentation templates, style guides and the
// glossary across layered lookup roots: an explicitly configured directory,
// the workspace's .docscopilot directory, then the embedded defaults.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/security"
)

//go:embed defaults
var defaultsFS embed.FS

// Source labels identify which lookup root satisfied a request.
const (
	SourceConfigured = "configured"
	SourceWorkspace  = "workspace"
	SourceDefault    = "default"
)

// Template is a resolved documentation template.
type Template struct {
	DocType string `json:"doc_type"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// StyleGuide describes the writing conventions for a product.
type StyleGuide struct {
	Product          string            `json:"product"`
	HeadingStructure []string          `json:"heading_structure" yaml:"heading_structure"`
	Tone             string            `json:"tone" yaml:"tone"`
	Formatting       map[string]string `json:"formatting" yaml:"formatting"`
	Source           string            `json:"source"`
}

// Glossary is the canonical terminology map.
type Glossary struct {
	Terms  map[string]string `json:"terms"`
	Source string            `json:"source"`
}

// lookupRoot pairs a filesystem with its source label.
type lookupRoot struct {
	fsys   fs.FS
	source string
}

// Resolver performs layered lookups. Roots are consulted in order; the
// first hit wins.
type Resolver struct {
	roots []lookupRoot
	log   *logrus.Logger
}

// NewResolver creates a Resolver. configuredPath may be empty or point at a
// directory that does not exist yet; either way that layer is skipped.
func NewResolver(configuredPath, workspaceRoot string, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}

	var roots []lookupRoot
	if configuredPath != "" {
		if info, err := os.Stat(configuredPath); err == nil && info.IsDir() {
			roots = append(roots, lookupRoot{fsys: os.DirFS(configuredPath), source: SourceConfigured})
		} else {
			log.WithField("path", configuredPath).Warn("configured templates path does not exist, skipping")
		}
	}
	if workspaceRoot != "" {
		workspaceDir := filepath.Join(workspaceRoot, ".docscopilot")
		if info, err := os.Stat(workspaceDir); err == nil && info.IsDir() {
			roots = append(roots, lookupRoot{fsys: os.DirFS(workspaceDir), source: SourceWorkspace})
		}
	}

	embedded, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		// Cannot happen with a well-formed embed; fall back to the raw FS.
		embedded = defaultsFS
	}
	roots = append(roots, lookupRoot{fsys: embedded, source: SourceDefault})

	return &Resolver{roots: roots, log: log}
}

// GetTemplate resolves the template for a documentation type, trying the
// .md.j2 name before the bare .j2 name in each root.
func (r *Resolver) GetTemplate(docType string) (*Template, error) {
	docType, err := security.ValidateDocType(docType)
	if err != nil {
		return nil, err
	}

	names := []string{
		path.Join("templates", docType+".md.j2"),
		path.Join("templates", docType+".j2"),
	}
	for _, root := range r.roots {
		for _, name := range names {
			content, err := fs.ReadFile(root.fsys, name)
			if err != nil {
				continue
			}
			return &Template{
				DocType: docType,
				Content: string(content),
				Source:  root.source,
			}, nil
		}
	}

	return nil, errors.TemplateNotFoundError(
		fmt.Sprintf("No template found for doc_type: %s", docType),
		"Checked configured, workspace, and default template directories")
}

// GetStyleGuide resolves the style guide for a product, falling back to the
// default guide when no product-specific file exists. A product guide in any
// root beats a default guide in every root. A guide that is missing
// everywhere yields an empty guide with the default source rather than an
// error.
func (r *Resolver) GetStyleGuide(product string) (*StyleGuide, error) {
	product, err := security.ValidateProductName(product)
	if err != nil {
		return nil, err
	}

	var names []string
	if product != "" {
		names = append(names, path.Join("style_guides", strings.ToLower(product)+".yaml"))
	}
	names = append(names, path.Join("style_guides", "default.yaml"))

	for _, name := range names {
		for _, root := range r.roots {
			content, err := fs.ReadFile(root.fsys, name)
			if err != nil {
				continue
			}
			guide := &StyleGuide{}
			if err := yaml.Unmarshal(content, guide); err != nil {
				r.log.WithField("file", name).WithError(err).Warn("malformed style guide, skipping")
				continue
			}
			guide.Product = product
			guide.Source = root.source
			return guide, nil
		}
	}

	return &StyleGuide{Product: product, Source: SourceDefault}, nil
}

// GetGlossary resolves the terminology glossary. A missing glossary yields
// an empty one.
func (r *Resolver) GetGlossary() (*Glossary, error) {
	name := path.Join("glossaries", "default.yaml")

	for _, root := range r.roots {
		content, err := fs.ReadFile(root.fsys, name)
		if err != nil {
			continue
		}
		var doc struct {
			Terms map[string]string `yaml:"terms"`
		}
		if err := yaml.Unmarshal(content, &doc); err != nil {
			r.log.WithField("file", name).WithError(err).Warn("malformed glossary, skipping")
			continue
		}
		return &Glossary{Terms: doc.Terms, Source: root.source}, nil
	}

	return &Glossary{Terms: map[string]string{}, Source: SourceDefault}, nil
}
