// Package pipeline runs the report end to end:
// load → reshape → merge → enrich → aggregate → model.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"covid-report/adapters/source"
	"covid-report/core/aggregate"
	"covid-report/core/determinism"
	"covid-report/core/enrich"
	"covid-report/core/load"
	"covid-report/core/manifest"
	"covid-report/core/merge"
	"covid-report/core/regression"
	"covid-report/core/reshape"
	"covid-report/core/types"
	"covid-report/internal/errors"
	"covid-report/internal/logging"
)

// Options controls a run
type Options struct {
	// DataDir reads every source from a local directory instead of its URL
	DataDir string

	// FilterZeroCases drops global rows without positive cases before enrichment
	FilterZeroCases bool

	// Concurrency is the number of inputs loaded at once. Zero or one loads
	// them one at a time in manifest order.
	Concurrency int

	// OnInput is called after each input has been read, in completion order
	OnInput func(types.InputDigest)
}

// Result holds every table the report needs
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Inputs    []types.InputDigest

	// Tidy inputs, by source name
	Tidy map[string]types.TidyTable

	// US holds merged county records, Global the enriched global records
	US     []types.Record
	Global []types.Record

	// Daily series with deltas
	States    []types.Aggregate
	USTotals  []types.Aggregate
	Countries []types.Aggregate

	// StateSummary carries predictions from Model. Model is nil when the
	// state summary cannot support a fit, and the summary then has none.
	StateSummary   []types.Summary
	CountrySummary []types.Summary
	Model          *regression.Model
}

// Pipeline orchestrates the full report flow
type Pipeline struct {
	manifest *manifest.Manifest
	source   source.Source
	opts     Options
}

// NewPipeline creates a new report pipeline
func NewPipeline(m *manifest.Manifest, src source.Source, opts Options) *Pipeline {
	return &Pipeline{manifest: m, source: src, opts: opts}
}

// Run executes every stage. Any error aborts the run and no partial result
// is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Tidy:      make(map[string]types.TidyTable, len(manifest.Required)),
	}
	log := logging.ForRun(res.RunID)

	// Load and reshape
	tidy := make([]types.TidyTable, len(manifest.Required))
	res.Inputs = make([]types.InputDigest, len(manifest.Required)+1)
	var lookup []types.LookupRow
	var mu sync.Mutex
	notify := func(d types.InputDigest) {
		if p.opts.OnInput == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		p.opts.OnInput(d)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.opts.Concurrency, 1))
	for i, name := range manifest.Required {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, digest, err := p.loadSeries(gctx, name)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			tidy[i], res.Inputs[i] = t, digest
			notify(digest)
			log.Info("reshaped source",
				zap.String("source", name),
				zap.Int("rows", len(t.Rows)))
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		rows, digest, err := p.loadLookup(gctx)
		if err != nil {
			return fmt.Errorf("load lookup: %w", err)
		}
		lookup, res.Inputs[len(manifest.Required)] = rows, digest
		notify(digest)
		log.Info("loaded lookup", zap.Int("rows", len(rows)))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, name := range manifest.Required {
		res.Tidy[name] = tidy[i]
	}

	// Merge
	var err error
	res.US, err = merge.Outer(res.Tidy[manifest.USCases], res.Tidy[manifest.USDeaths])
	if err != nil {
		return nil, fmt.Errorf("merge us: %w", err)
	}
	global, err := merge.Outer(res.Tidy[manifest.GlobalCases], res.Tidy[manifest.GlobalDeaths])
	if err != nil {
		return nil, fmt.Errorf("merge global: %w", err)
	}
	if p.opts.FilterZeroCases {
		before := len(global)
		global = merge.DropZeroCases(global)
		log.Debug("dropped global rows without cases", zap.Int("dropped", before-len(global)))
	}
	log.Info("merged tables", zap.Int("us_rows", len(res.US)), zap.Int("global_rows", len(global)))

	// Enrich
	res.Global, err = enrich.Population(global, lookup)
	if err != nil {
		return nil, fmt.Errorf("enrich global: %w", err)
	}

	// Aggregate
	states := aggregate.ByState(res.US)
	res.States = aggregate.WithDeltas(states)
	res.USTotals = aggregate.WithDeltas(aggregate.ByCountry(states))
	res.Countries = aggregate.WithDeltas(aggregate.ByCountry(aggregate.FromRecords(res.Global)))
	log.Info("aggregated",
		zap.Int("state_rows", len(res.States)),
		zap.Int("us_total_rows", len(res.USTotals)),
		zap.Int("country_rows", len(res.Countries)))

	// Summarize and model
	summary := aggregate.Summarize(res.States)
	res.CountrySummary = aggregate.Summarize(res.Countries)
	model, predicted, err := regression.Apply(summary)
	switch {
	case err == nil:
		res.Model, res.StateSummary = &model, predicted
		log.Info("fitted model",
			zap.Int("states", len(res.StateSummary)),
			zap.Int("countries", len(res.CountrySummary)),
			zap.Float64("slope", model.Slope),
			zap.Float64("r_squared", model.RSquared))
	case errors.IsType(err, errors.TypeInsufficientData):
		res.StateSummary = summary
		log.Warn("skipped model", zap.Int("states", len(summary)), zap.Error(err))
	default:
		return nil, fmt.Errorf("model state summary: %w", err)
	}

	res.Duration = time.Since(res.StartedAt)
	log.Info("run complete", logging.Elapsed(res.StartedAt))
	return res, nil
}

func (p *Pipeline) loadSeries(ctx context.Context, name string) (types.TidyTable, types.InputDigest, error) {
	src, ok := p.manifest.Source(name)
	if !ok {
		return types.TidyTable{}, types.InputDigest{}, errors.Config(fmt.Sprintf("manifest has no source %q", name))
	}
	location := p.manifest.Location(src, p.opts.DataDir)

	var wide types.WideTable
	digest, err := p.read(ctx, name, location, func(hr *determinism.HashingReader) error {
		var err error
		wide, err = load.ReadWide(name, hr)
		return err
	})
	if err != nil {
		return types.TidyTable{}, digest, err
	}

	tidy, err := reshape.Longer(wide, src.Spec())
	return tidy, digest, err
}

func (p *Pipeline) loadLookup(ctx context.Context) ([]types.LookupRow, types.InputDigest, error) {
	var rows []types.LookupRow
	location := p.manifest.LookupLocation(p.opts.DataDir)
	digest, err := p.read(ctx, "lookup", location, func(hr *determinism.HashingReader) error {
		var err error
		rows, err = load.ReadLookup(hr)
		return err
	})
	return rows, digest, err
}

// read opens location, decodes it and closes it on every path.
func (p *Pipeline) read(ctx context.Context, name, location string, decode func(*determinism.HashingReader) error) (types.InputDigest, error) {
	digest := types.InputDigest{Name: name, Location: location}

	rc, err := p.source.Open(ctx, location)
	if err != nil {
		return digest, err
	}
	defer rc.Close()

	hr := determinism.NewHashingReader(rc)
	if err := decode(hr); err != nil {
		return digest, err
	}
	digest.SHA256 = hr.Sum().Hex()
	digest.Size = hr.Size()
	logging.Debug("read input",
		zap.String("name", name),
		zap.String("location", location),
		zap.String("sha256", digest.SHA256),
		zap.Int64("bytes", digest.Size))
	return digest, nil
}
