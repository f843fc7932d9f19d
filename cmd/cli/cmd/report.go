// Package cmd - report command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"covid-report/adapters/charts"
	"covid-report/adapters/source"
	"covid-report/adapters/storage"
	"covid-report/core/aggregate"
	"covid-report/core/manifest"
	"covid-report/core/output"
	"covid-report/core/pipeline"
	"covid-report/core/types"
	"covid-report/core/ui"
	"covid-report/internal/config"
	"covid-report/internal/logging"
)

var (
	manifestFile string
	dataDir      string
	outDir       string
	stateName    string
	countryName  string
	topN         int
	previewRows  int
	dbFile       string
	writeJSON    bool
	writeCSV     bool
	noHTML       bool
	noColor      bool
	keepZeros    bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the time series and build the report",
	Long: `Load the four JHU time series and the UID lookup table, reshape and join
them, aggregate by state and by country, fit deaths per thousand against
cases per thousand, and write the results.

The terminal report is always printed. report.html is written to the output
directory unless --no-html is given; --json, --csv and --db add exports.

Examples:
  covid-report report
  covid-report report --state Ohio --country Canada
  covid-report report --data-dir ./data --out ./out --json --csv
  covid-report report --db runs.db`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&manifestFile, "manifest", "m", "", "HCL dataset manifest (default is built in)")
	reportCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "read source files from this directory instead of the network")
	reportCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	reportCmd.Flags().StringVarP(&stateName, "state", "s", "", "US state charted on its own")
	reportCmd.Flags().StringVarP(&countryName, "country", "c", "", "country whose totals are charted")
	reportCmd.Flags().IntVarP(&topN, "top", "n", 0, "size of the ranked tables")
	reportCmd.Flags().IntVar(&previewRows, "preview", 0, "rows shown per intermediate table")
	reportCmd.Flags().StringVar(&dbFile, "db", "", "SQLite file to export the run into")
	reportCmd.Flags().BoolVar(&writeJSON, "json", false, "write report.json")
	reportCmd.Flags().BoolVar(&writeCSV, "csv", false, "write the aggregate and summary tables as CSV")
	reportCmd.Flags().BoolVar(&noHTML, "no-html", false, "skip report.html")
	reportCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	reportCmd.Flags().BoolVar(&keepZeros, "keep-zero-cases", false, "keep global rows without cases")
}

// applyFlags overlays explicitly set flags on the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Source.Manifest = manifestFile
	}
	if flags.Changed("data-dir") {
		cfg.Source.DataDir = dataDir
	}
	if flags.Changed("out") {
		cfg.Report.OutDir = outDir
	}
	if flags.Changed("state") {
		cfg.Report.State = stateName
	}
	if flags.Changed("country") {
		cfg.Report.Country = countryName
	}
	if flags.Changed("top") {
		cfg.Report.TopN = topN
	}
	if flags.Changed("preview") {
		cfg.Report.PreviewRows = previewRows
	}
	if flags.Changed("db") {
		cfg.Report.Database = dbFile
	}
	if flags.Changed("json") {
		cfg.Report.JSON = writeJSON
	}
	if flags.Changed("csv") {
		cfg.Report.CSV = writeCSV
	}
	if flags.Changed("no-html") {
		cfg.Report.HTML = !noHTML
	}
	if flags.Changed("no-color") {
		cfg.Report.NoColor = noColor
	}
	if flags.Changed("keep-zero-cases") {
		cfg.Pipeline.FilterZeroCases = !keepZeros
	}
	return cfg
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg := applyFlags(cmd, *config.Get())
	if err := cfg.Validate(); err != nil {
		return err
	}

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Report.NoColor)
	if verbose {
		w.SetVerbosity(2)
	}

	m, err := manifest.Load(cfg.Source.Manifest)
	if err != nil {
		w.Error("%v", err)
		return err
	}

	bar := w.NewProgressBar(len(manifest.Required)+1, "Loading inputs")
	p := pipeline.NewPipeline(m, source.NewRouter(cfg.Source.Timeout, cfg.Source.UserAgent), pipeline.Options{
		DataDir:         cfg.Source.DataDir,
		FilterZeroCases: cfg.Pipeline.FilterZeroCases,
		Concurrency:     cfg.Pipeline.Concurrency,
		OnInput:         func(d types.InputDigest) { bar.Increment(d.Name) },
	})

	res, err := p.Run(ctx)
	bar.Done()
	if err != nil {
		logging.Error("report failed", zap.Error(err))
		w.Error("%v", err)
		return err
	}

	w.RenderReport(res, ui.ReportOptions{
		Preview: cfg.Report.PreviewRows,
		TopN:    cfg.Report.TopN,
		State:   cfg.Report.State,
	})

	written, err := writeArtifacts(ctx, res, cfg.Report)
	for _, path := range written {
		w.Success("wrote %s", path)
	}
	if err != nil {
		logging.Error("writing report artifacts failed", zap.Error(err))
		w.Error("%v", err)
		return err
	}
	return nil
}

// writeArtifacts writes every enabled output and returns the paths written,
// including those written before a failure.
func writeArtifacts(ctx context.Context, res *pipeline.Result, rc config.ReportConfig) ([]string, error) {
	var written []string
	if rc.HTML || rc.JSON || rc.CSV {
		if err := os.MkdirAll(rc.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	write := func(name string, render func(f *os.File) error) error {
		path := filepath.Join(rc.OutDir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := render(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if rc.HTML {
		report := chartReport(res, rc)
		if err := write("report.html", func(f *os.File) error { return charts.Render(f, report) }); err != nil {
			return written, err
		}
	}

	if rc.JSON {
		formatter, _ := output.NewRegistry().Get(output.FormatJSON)
		doc := output.NewDocument(res, rc.TopN, Version)
		if err := write("report.json", func(f *os.File) error { return formatter.Render(f, doc) }); err != nil {
			return written, err
		}
	}

	if rc.CSV {
		summaries := []struct {
			name string
			rows []types.Summary
		}{
			{"state_summary.csv", res.StateSummary},
			{"country_summary.csv", res.CountrySummary},
		}
		for _, s := range summaries {
			rows := s.rows
			if err := write(s.name, func(f *os.File) error { return output.WriteSummaryCSV(f, rows) }); err != nil {
				return written, err
			}
		}

		series := []struct {
			name string
			rows []types.Aggregate
		}{
			{"us_by_state.csv", res.States},
			{"us_totals.csv", res.USTotals},
			{"global_by_country.csv", res.Countries},
		}
		for _, s := range series {
			rows := s.rows
			if err := write(s.name, func(f *os.File) error { return output.WriteAggregatesCSV(f, rows) }); err != nil {
				return written, err
			}
		}
	}

	if rc.Database != "" {
		if err := exportRun(ctx, res, rc.Database); err != nil {
			return written, err
		}
		written = append(written, rc.Database)
	}
	return written, nil
}

func chartReport(res *pipeline.Result, rc config.ReportConfig) charts.Report {
	country := res.USTotals
	if !strings.EqualFold(rc.Country, "US") {
		country = aggregate.Region(res.Countries, "", rc.Country)
	}
	state := aggregate.Region(res.States, rc.State, "US")
	if len(country) == 0 {
		logging.Warn("no rows for charted country", zap.String("country", rc.Country))
	}
	if len(state) == 0 {
		logging.Warn("no rows for charted state", zap.String("state", rc.State))
	}
	return charts.Report{
		Title:       "COVID-19 report",
		CountryName: rc.Country,
		Country:     country,
		StateName:   rc.State,
		State:       state,
		Summary:     res.StateSummary,
	}
}

func exportRun(ctx context.Context, res *pipeline.Result, dsn string) error {
	store, err := storage.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(ctx, &storage.Run{
		ID:             res.RunID,
		CreatedAt:      res.StartedAt,
		Inputs:         res.Inputs,
		Model:          res.Model,
		StateSummary:   res.StateSummary,
		CountrySummary: res.CountrySummary,
		StateDaily:     res.States,
	})
}
