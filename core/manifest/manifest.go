// Package manifest describes where the input tables live and how each one
// is shaped. Manifests are written in HCL.
package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"covid-report/core/reshape"
	"covid-report/core/types"
	"covid-report/internal/errors"
)

// Names of the sources a manifest must declare.
const (
	USCases      = "us_cases"
	USDeaths     = "us_deaths"
	GlobalCases  = "global_cases"
	GlobalDeaths = "global_deaths"
)

// Required lists the sources every manifest must declare, in load order.
var Required = []string{USCases, USDeaths, GlobalCases, GlobalDeaths}

//go:embed default.hcl
var defaultSource []byte

// Manifest is the decoded dataset manifest
type Manifest struct {
	BaseURL string   `hcl:"base_url,optional"`
	Sources []Source `hcl:"source,block"`
	Lookup  *Lookup  `hcl:"lookup,block"`
}

// Source is one wide time-series table
type Source struct {
	Name      string   `hcl:"name,label"`
	File      string   `hcl:"file"`
	URL       string   `hcl:"url,optional"`
	Metric    string   `hcl:"metric"`
	IDColumns []string `hcl:"id_columns"`
	Drop      []string `hcl:"drop,optional"`
}

// Lookup is the UID/population table
type Lookup struct {
	URL  string `hcl:"url,optional"`
	File string `hcl:"file,optional"`
}

// DefaultSource returns the HCL text of the built-in manifest
func DefaultSource() []byte {
	return append([]byte(nil), defaultSource...)
}

// Default returns the built-in manifest for the JHU CSSE repository.
func Default() (*Manifest, error) {
	return Parse("default.hcl", defaultSource)
}

// Load reads a manifest file, or the built-in one when filename is empty.
func Load(filename string) (*Manifest, error) {
	if filename == "" {
		return Default()
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "read manifest %s", filename)
	}
	return Parse(filename, src)
}

// Parse decodes and validates manifest source.
func Parse(filename string, src []byte) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	var m Manifest
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return nil, diagError(filename, diags)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func diagError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if d.Subject != nil {
			line = d.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("line %d: %s: %s", line, d.Summary, d.Detail))
	}
	return errors.Newf(errors.TypeConfig, "manifest %s: %s", filename, strings.Join(msgs, "; ")).
		WithContext("file", filename)
}

// Validate checks that every required source is declared once with a known
// metric and at least one identity column.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Sources))
	for _, s := range m.Sources {
		if seen[s.Name] {
			return errors.Config(fmt.Sprintf("manifest: source %q declared twice", s.Name))
		}
		seen[s.Name] = true

		if !types.Metric(s.Metric).IsValid() {
			return errors.Config(fmt.Sprintf("manifest: source %q has unknown metric %q", s.Name, s.Metric))
		}
		if len(s.IDColumns) == 0 {
			return errors.Config(fmt.Sprintf("manifest: source %q has no id_columns", s.Name))
		}
		if s.URL == "" && m.BaseURL == "" && s.File == "" {
			return errors.Config(fmt.Sprintf("manifest: source %q has no location", s.Name))
		}
	}
	for _, name := range Required {
		if !seen[name] {
			return errors.Config(fmt.Sprintf("manifest: missing source %q", name))
		}
	}
	if m.Lookup == nil || (m.Lookup.URL == "" && m.Lookup.File == "") {
		return errors.Config("manifest: lookup block needs a url or file")
	}
	return nil
}

// Source returns the named source
func (m *Manifest) Source(name string) (Source, bool) {
	for _, s := range m.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// Spec returns the reshape spec of a source
func (s Source) Spec() reshape.Spec {
	return reshape.Spec{
		Metric:      types.Metric(s.Metric),
		IDColumns:   s.IDColumns,
		DropColumns: s.Drop,
	}
}

// Location resolves where a source is read from. A non-empty dataDir wins
// over any URL so runs can be pinned to local copies.
func (m *Manifest) Location(s Source, dataDir string) string {
	switch {
	case dataDir != "":
		return filepath.Join(dataDir, s.File)
	case s.URL != "":
		return s.URL
	default:
		return m.BaseURL + s.File
	}
}

// LookupLocation resolves where the lookup table is read from.
func (m *Manifest) LookupLocation(dataDir string) string {
	if dataDir != "" {
		name := m.Lookup.File
		if name == "" {
			name = path.Base(m.Lookup.URL)
		}
		return filepath.Join(dataDir, filepath.Base(name))
	}
	if m.Lookup.URL != "" {
		return m.Lookup.URL
	}
	return m.Lookup.File
}
