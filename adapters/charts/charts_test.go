package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-report/core/types"
)

func rows(name string) []types.Aggregate {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	cases := []int64{0, 3, 9}
	out := make([]types.Aggregate, len(cases))
	for i, c := range cases {
		out[i] = types.Aggregate{
			ProvinceState: name,
			CountryRegion: "US",
			Date:          start.AddDate(0, 0, i),
			Cases:         types.Some(c),
			Deaths:        types.Some(c / 3),
		}
	}
	return out
}

func TestLogPoint(t *testing.T) {
	assert.Equal(t, gap, LogPoint(types.None()).Value)
	assert.Equal(t, gap, LogPoint(types.Some(0)).Value)
	assert.Equal(t, gap, LogPoint(types.Some(-4)).Value)
	assert.Equal(t, int64(7), LogPoint(types.Some(7)).Value)
}

func TestBuildPage(t *testing.T) {
	p := 0.5
	r := Report{
		Title:       "COVID-19 report",
		CountryName: "US",
		Country:     rows(""),
		StateName:   "New York",
		State:       rows("New York"),
		Summary: []types.Summary{
			{ProvinceState: "New York", CountryRegion: "US", CasesPerThou: 2, DeathsPerThou: 0.4, Predicted: &p},
			{ProvinceState: "Ohio", CountryRegion: "US", CasesPerThou: 1, DeathsPerThou: 0.1},
		},
	}

	page := BuildPage(r)
	assert.Len(t, page.Charts, 5)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	html := buf.String()
	assert.Contains(t, html, "COVID-19 report")
	assert.Contains(t, html, "New York: cumulative cases and deaths")
	assert.Contains(t, html, "US: new cases and deaths per day")
	assert.Contains(t, html, "cases per thousand")
	assert.Contains(t, html, `"log"`)
	assert.Contains(t, html, "2020-03-02")
}
