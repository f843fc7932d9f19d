// Package charts renders the report's HTML page with go-echarts.
package charts

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"covid-report/core/types"
)

// gap is how ECharts spells a missing point. Log axes cannot show zero or
// negative values, so those become gaps too.
const gap = "-"

// Report is the data shown on the page
type Report struct {
	Title       string
	CountryName string
	Country     []types.Aggregate
	StateName   string
	State       []types.Aggregate
	Summary     []types.Summary
}

func boolPtr(b bool) *bool { return &b }

// BuildPage assembles every chart of the report onto one page.
func BuildPage(r Report) *components.Page {
	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(
		Cumulative(fmt.Sprintf("%s: cumulative cases and deaths", r.CountryName), r.Country),
		Cumulative(fmt.Sprintf("%s: cumulative cases and deaths", r.StateName), r.State),
		Daily(fmt.Sprintf("%s: new cases and deaths per day", r.CountryName), r.Country),
		Daily(fmt.Sprintf("%s: new cases and deaths per day", r.StateName), r.State),
		Scatter("Deaths per thousand vs cases per thousand", r.Summary),
	)
	return page
}

// Render writes the report page as HTML
func Render(w io.Writer, r Report) error {
	if err := BuildPage(r).Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

// Cumulative plots cases and deaths over time on a log scale.
func Cumulative(title string, rows []types.Aggregate) *charts.Line {
	line := newLogLine(title)
	line.SetXAxis(dates(rows)).
		AddSeries("cases", logSeries(rows, func(a types.Aggregate) types.Count { return a.Cases })).
		AddSeries("deaths", logSeries(rows, func(a types.Aggregate) types.Count { return a.Deaths }))
	return line
}

// Daily plots new cases and deaths per day on a log scale.
func Daily(title string, rows []types.Aggregate) *charts.Line {
	line := newLogLine(title)
	line.SetXAxis(dates(rows)).
		AddSeries("new cases", logSeries(rows, func(a types.Aggregate) types.Count { return a.NewCases })).
		AddSeries("new deaths", logSeries(rows, func(a types.Aggregate) types.Count { return a.NewDeaths }))
	return line
}

func newLogLine(title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "date"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "count"}),
		charts.WithGridOpts(opts.Grid{
			ContainLabel: boolPtr(true),
			Left:         "3%",
			Right:        "4%",
			Bottom:       "12%",
		}),
	)
	return line
}

func dates(rows []types.Aggregate) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = types.FormatDate(r.Date)
	}
	return out
}

func logSeries(rows []types.Aggregate, pick func(types.Aggregate) types.Count) []opts.LineData {
	out := make([]opts.LineData, len(rows))
	for i, r := range rows {
		out[i] = LogPoint(pick(r))
	}
	return out
}

// LogPoint converts a count to a point on a log axis.
func LogPoint(c types.Count) opts.LineData {
	if !c.Positive() {
		return opts.LineData{Value: gap}
	}
	return opts.LineData{Value: c.Value}
}

// Scatter plots each region's deaths per thousand against cases per
// thousand, with the fitted predictions as a second series.
func Scatter(title string, summaries []types.Summary) *charts.Scatter {
	sorted := append([]types.Summary(nil), summaries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CasesPerThou < sorted[j].CasesPerThou })

	actual := make([]opts.ScatterData, 0, len(sorted))
	predicted := make([]opts.ScatterData, 0, len(sorted))
	for _, s := range sorted {
		actual = append(actual, opts.ScatterData{
			Name:  s.RegionName(),
			Value: []interface{}{s.CasesPerThou, s.DeathsPerThou},
		})
		if s.Predicted != nil {
			predicted = append(predicted, opts.ScatterData{
				Name:  s.RegionName(),
				Value: []interface{}{s.CasesPerThou, *s.Predicted},
			})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "480px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true)}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "cases per thousand"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "deaths per thousand"}),
	)
	scatter.AddSeries("actual", actual)
	if len(predicted) > 0 {
		scatter.AddSeries("predicted", predicted)
	}
	return scatter
}
