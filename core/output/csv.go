package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"covid-report/core/types"
)

// CSVFormatter writes the US state summary as CSV
type CSVFormatter struct{}

// Format returns FormatCSV
func (f *CSVFormatter) Format() Format {
	return FormatCSV
}

// Render writes the document's state summary
func (f *CSVFormatter) Render(w io.Writer, doc *Document) error {
	return WriteSummaryCSV(w, doc.States.Summary)
}

// WriteSummaryCSV writes a summary table. Missing predictions are "NA".
func WriteSummaryCSV(w io.Writer, rows []types.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		types.ColProvinceState, types.ColCountryRegion, "cases", "deaths", "population",
		"cases_per_thou", "deaths_per_thou", "pred",
	}); err != nil {
		return err
	}
	for _, s := range rows {
		pred := "NA"
		if s.Predicted != nil {
			pred = formatFloat(*s.Predicted)
		}
		if err := cw.Write([]string{
			s.ProvinceState,
			s.CountryRegion,
			strconv.FormatInt(s.Cases, 10),
			strconv.FormatInt(s.Deaths, 10),
			strconv.FormatInt(s.Population, 10),
			formatFloat(s.CasesPerThou),
			formatFloat(s.DeathsPerThou),
			pred,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAggregatesCSV writes a daily aggregate table. Absent counts are
// "NA"; non-finite rates are written as NaN or Inf.
func WriteAggregatesCSV(w io.Writer, rows []types.Aggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		types.ColProvinceState, types.ColCountryRegion, "date", "cases", "deaths", "population",
		"deaths_per_mill", "new_cases", "new_deaths",
	}); err != nil {
		return err
	}
	for _, a := range rows {
		if err := cw.Write([]string{
			a.ProvinceState,
			a.CountryRegion,
			types.FormatDate(a.Date),
			a.Cases.String(),
			a.Deaths.String(),
			a.Population.String(),
			formatFloat(a.DeathsPerMill),
			a.NewCases.String(),
			a.NewDeaths.String(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
