// Package output provides machine-readable report outputs.
package output

import (
	"fmt"
	"io"
	"time"

	"covid-report/core/aggregate"
	"covid-report/core/pipeline"
	"covid-report/core/regression"
	"covid-report/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatJSON is the report document as JSON
	FormatJSON Format = "json"

	// FormatCSV is the summary table as CSV
	FormatCSV Format = "csv"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given document
	Render(w io.Writer, doc *Document) error
}

// Document is the machine-readable report of one run
type Document struct {
	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`

	// Model is the fitted deaths-versus-cases line over US states; null when
	// too few states support a fit
	Model *regression.Model `json:"model"`

	// States holds the ranked and full US state summaries
	States Ranking `json:"states"`

	// Countries holds the ranked and full country summaries
	Countries Ranking `json:"countries"`
}

// Ranking is a summary table with its extremes
type Ranking struct {
	Top     []types.Summary `json:"top"`
	Bottom  []types.Summary `json:"bottom"`
	Summary []types.Summary `json:"summary"`
}

// Metadata contains execution context
type Metadata struct {
	// RunID identifies the run
	RunID string `json:"run_id"`

	// Timestamp is when the run started
	Timestamp string `json:"timestamp"`

	// Duration is how long the run took
	Duration string `json:"duration"`

	// Version is the tool version
	Version string `json:"version"`

	// Inputs lists the hashed input tables
	Inputs []types.InputDigest `json:"inputs"`
}

// NewDocument builds the report document from a run
func NewDocument(res *pipeline.Result, topN int, version string) *Document {
	return &Document{
		Metadata: Metadata{
			RunID:     res.RunID,
			Timestamp: res.StartedAt.Format(time.RFC3339),
			Duration:  res.Duration.String(),
			Version:   version,
			Inputs:    res.Inputs,
		},
		Model: res.Model,
		States: Ranking{
			Top:     aggregate.Top(res.StateSummary, topN),
			Bottom:  aggregate.Bottom(res.StateSummary, topN),
			Summary: res.StateSummary,
		},
		Countries: Ranking{
			Top:     aggregate.Top(res.CountrySummary, topN),
			Bottom:  aggregate.Bottom(res.CountrySummary, topN),
			Summary: res.CountrySummary,
		},
	}
}

// Registry holds formatters by format
type Registry struct {
	formatters map[Format]Formatter
	order      []Format
}

// NewRegistry creates a registry with the built-in formatters
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	_ = r.Register(&JSONFormatter{Indent: true})
	_ = r.Register(&CSVFormatter{})
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	if _, exists := r.formatters[f.Format()]; exists {
		return fmt.Errorf("formatter already registered: %s", f.Format())
	}
	r.formatters[f.Format()] = f
	r.order = append(r.order, f.Format())
	return nil
}

// Get returns the formatter for a format type
func (r *Registry) Get(format Format) (Formatter, bool) {
	f, ok := r.formatters[format]
	return f, ok
}

// Formats returns the registered formats in registration order
func (r *Registry) Formats() []Format {
	return append([]Format(nil), r.order...)
}
