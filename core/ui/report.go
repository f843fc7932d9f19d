package ui

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"covid-report/core/aggregate"
	"covid-report/core/manifest"
	"covid-report/core/pipeline"
	"covid-report/core/types"
)

// ReportOptions controls the terminal report
type ReportOptions struct {
	// Preview is the number of rows shown per intermediate table
	Preview int

	// TopN is the size of the ranked tables
	TopN int

	// State is the state whose series is highlighted
	State string
}

// RenderReport prints the full terminal report for a run
func (w *Writer) RenderReport(res *pipeline.Result, opts ReportOptions) {
	w.Header("COVID-19 report")
	w.Info("run %s, %s", res.RunID, res.Duration.Round(time.Millisecond))
	w.renderInputs(res.Inputs)

	if opts.Preview > 0 {
		w.Header("Previews")
		for _, name := range manifest.Required {
			w.renderTidy(res.Tidy[name], opts.Preview)
		}
		w.renderRecords("us (merged)", res.US, opts.Preview)
		w.renderRecords("global (enriched)", res.Global, opts.Preview)
		w.renderAggregates("us by state", res.States, opts.Preview)
		w.renderAggregates("us totals", res.USTotals, opts.Preview)
	}

	state := aggregate.Region(res.States, opts.State, "US")
	if len(state) == 0 {
		w.Warning("no rows for state %q", opts.State)
	} else {
		last := state[len(state)-1]
		w.Info("%s on %s: %s cases, %s deaths", opts.State, types.FormatDate(last.Date), last.Cases, last.Deaths)
	}
	if n := nonFinite(res.States); n > 0 {
		w.Warning("%d state rows have no finite deaths per million (zero or missing population)", n)
	}

	w.Header("US states by deaths per thousand")
	w.SubHeader(fmt.Sprintf("Highest %d", opts.TopN))
	w.renderSummary(aggregate.Top(res.StateSummary, opts.TopN), true)
	w.Line("")
	w.SubHeader(fmt.Sprintf("Lowest %d", opts.TopN))
	w.renderSummary(aggregate.Bottom(res.StateSummary, opts.TopN), true)

	w.Header("Countries by deaths per thousand")
	w.SubHeader(fmt.Sprintf("Highest %d", opts.TopN))
	w.renderSummary(aggregate.Top(res.CountrySummary, opts.TopN), false)
	w.Line("")
	w.SubHeader(fmt.Sprintf("Lowest %d", opts.TopN))
	w.renderSummary(aggregate.Bottom(res.CountrySummary, opts.TopN), false)

	w.Header("Model: deaths_per_thou ~ cases_per_thou")
	m := res.Model
	if m == nil {
		w.Warning("not fitted: fewer than two states with distinct cases per thousand")
		return
	}
	t := w.NewTable("term", "value").AlignRight(1)
	t.AddRow("intercept", FormatFloat(m.Intercept))
	t.AddRow("slope", FormatFloat(m.Slope))
	t.AddRow("r squared", FormatFloat(m.RSquared))
	t.AddRow("residual std err", FormatFloat(m.ResidualStdErr))
	t.AddRow("observations", strconv.Itoa(m.N))
	t.Render()
}

func (w *Writer) renderInputs(inputs []types.InputDigest) {
	w.SubHeader("Inputs")
	t := w.NewTable("name", "sha256", "bytes", "location").AlignRight(2)
	for _, in := range inputs {
		t.AddRow(in.Name, shortHash(in.SHA256), strconv.FormatInt(in.Size, 10), in.Location)
	}
	t.Render()
}

func (w *Writer) renderTidy(tidy types.TidyTable, n int) {
	w.SubHeader(fmt.Sprintf("%s (%d rows)", tidy.Name, len(tidy.Rows)))
	headers := append(append([]string(nil), tidy.Columns...), "date", tidy.Metric.String())
	t := w.NewTable(headers...).AlignRight(len(headers) - 1)
	for _, r := range head(tidy.Rows, n) {
		t.AddRow(append(append([]string(nil), r.Identity...), r.Date, r.Value.String())...)
	}
	t.Render()
	w.Line("")
}

func (w *Writer) renderRecords(title string, records []types.Record, n int) {
	w.SubHeader(fmt.Sprintf("%s (%d rows)", title, len(records)))
	t := w.NewTable("combined key", "date", "cases", "deaths", "population").AlignRight(2, 3, 4)
	for _, r := range head(records, n) {
		t.AddRow(r.Region.CombinedKey, types.FormatDate(r.Date), r.Cases.String(), r.Deaths.String(), r.Population.String())
	}
	t.Render()
	w.Line("")
}

func (w *Writer) renderAggregates(title string, rows []types.Aggregate, n int) {
	w.SubHeader(fmt.Sprintf("%s (%d rows)", title, len(rows)))
	t := w.NewTable("region", "date", "cases", "deaths", "deaths/mill", "new cases", "new deaths").AlignRight(2, 3, 4, 5, 6)
	for _, r := range head(rows, n) {
		t.AddRow(r.RegionName(), types.FormatDate(r.Date), r.Cases.String(), r.Deaths.String(),
			FormatFloat(r.DeathsPerMill), r.NewCases.String(), r.NewDeaths.String())
	}
	t.Render()
	w.Line("")
}

func (w *Writer) renderSummary(rows []types.Summary, withPrediction bool) {
	headers := []string{"region", "cases", "deaths", "population", "cases/thou", "deaths/thou"}
	if withPrediction {
		headers = append(headers, "predicted")
	}
	t := w.NewTable(headers...).AlignRight(1, 2, 3, 4, 5, 6)
	for _, s := range rows {
		cells := []string{
			s.RegionName(),
			strconv.FormatInt(s.Cases, 10),
			strconv.FormatInt(s.Deaths, 10),
			strconv.FormatInt(s.Population, 10),
			FormatFloat(s.CasesPerThou),
			FormatFloat(s.DeathsPerThou),
		}
		if withPrediction {
			pred := "NA"
			if s.Predicted != nil {
				pred = FormatFloat(*s.Predicted)
			}
			cells = append(cells, pred)
		}
		t.AddRow(cells...)
	}
	if t.Len() == 0 {
		w.Warning("no regions")
		return
	}
	t.Render()
}

// FormatFloat renders a rate with four decimals; non-finite values are
// spelled out.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func nonFinite(rows []types.Aggregate) int {
	n := 0
	for _, r := range rows {
		if math.IsNaN(r.DeathsPerMill) || math.IsInf(r.DeathsPerMill, 0) {
			n++
		}
	}
	return n
}

func head[T any](s []T, n int) []T {
	if n < len(s) {
		return s[:n]
	}
	return s
}
