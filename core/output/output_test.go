package output

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-report/core/pipeline"
	"covid-report/core/regression"
	"covid-report/core/types"
)

func testResult() *pipeline.Result {
	pred := 0.3
	return &pipeline.Result{
		RunID:     "0b7c3f8e-0000-4000-8000-000000000001",
		StartedAt: time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Inputs:    []types.InputDigest{{Name: "lookup", Location: "l.csv", SHA256: "ff", Size: 3}},
		StateSummary: []types.Summary{
			{ProvinceState: "A", CountryRegion: "US", Cases: 500, Deaths: 10, Population: 200000, CasesPerThou: 2.5, DeathsPerThou: 0.05, Predicted: &pred},
			{ProvinceState: "B", CountryRegion: "US", Cases: 100, Deaths: 10, Population: 1000, CasesPerThou: 100, DeathsPerThou: 10},
		},
		CountrySummary: []types.Summary{
			{CountryRegion: "Chad", Cases: 1, Deaths: 0, Population: 10, CasesPerThou: 100},
		},
		Model: &regression.Model{Intercept: 0.1, Slope: 0.2, RSquared: 0.9, N: 2},
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(testResult(), 1, "1.2.3")

	assert.Equal(t, "2024-05-01T08:00:00Z", doc.Metadata.Timestamp)
	assert.Equal(t, "1.5s", doc.Metadata.Duration)
	assert.Equal(t, "1.2.3", doc.Metadata.Version)
	require.Len(t, doc.States.Top, 1)
	assert.Equal(t, "B", doc.States.Top[0].ProvinceState)
	assert.Equal(t, "A", doc.States.Bottom[0].ProvinceState)
	assert.Len(t, doc.States.Summary, 2)
	assert.Len(t, doc.Countries.Top, 1)
}

func TestJSONFormatter(t *testing.T) {
	reg := NewRegistry()
	f, ok := reg.Get(FormatJSON)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, NewDocument(testResult(), 10, "dev")))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	meta := decoded["metadata"].(map[string]interface{})
	assert.Equal(t, "0b7c3f8e-0000-4000-8000-000000000001", meta["run_id"])

	states := decoded["states"].(map[string]interface{})
	top := states["top"].([]interface{})
	first := top[0].(map[string]interface{})
	assert.Equal(t, "B", first["province_state"])
	assert.NotContains(t, first, "predicted")
	assert.Equal(t, 0.2, decoded["model"].(map[string]interface{})["slope"])
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []Format{FormatJSON, FormatCSV}, reg.Formats())
	assert.Error(t, reg.Register(&CSVFormatter{}))
	_, ok := reg.Get("xml")
	assert.False(t, ok)
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, testResult().StateSummary))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Province_State,Country_Region,cases,deaths,population,cases_per_thou,deaths_per_thou,pred",
		"A,US,500,10,200000,2.5,0.05,0.3",
		"B,US,100,10,1000,100,10,NA",
	}, lines)
}

func TestCSVFormatterWritesStates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVFormatter{}).Render(&buf, NewDocument(testResult(), 10, "dev")))
	assert.Contains(t, buf.String(), "A,US,500")
	assert.NotContains(t, buf.String(), "Chad")
}

func TestWriteAggregatesCSV(t *testing.T) {
	rows := []types.Aggregate{
		{
			ProvinceState: "New York", CountryRegion: "US",
			Date:  time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
			Cases: types.Some(10), Deaths: types.Some(0), Population: types.Some(0),
			DeathsPerMill: math.NaN(),
		},
		{
			CountryRegion: "US",
			Date:          time.Date(2020, time.March, 2, 0, 0, 0, 0, time.UTC),
			Cases:         types.Some(12), Deaths: types.Some(1), Population: types.Some(0),
			DeathsPerMill: math.Inf(1), NewCases: types.Some(2), NewDeaths: types.Some(1),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAggregatesCSV(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "New York,US,2020-03-01,10,0,0,NaN,NA,NA", lines[1])
	assert.Equal(t, ",US,2020-03-02,12,1,0,+Inf,2,1", lines[2])
}
