package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"covid-report/core/types"
	"covid-report/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	require.Len(t, m.Sources, 4)
	for _, name := range Required {
		_, ok := m.Source(name)
		assert.True(t, ok, name)
	}

	deaths, _ := m.Source(USDeaths)
	assert.Contains(t, deaths.IDColumns, "Population")
	assert.Equal(t, types.MetricDeaths, deaths.Spec().Metric)

	global, _ := m.Source(GlobalCases)
	assert.Equal(t, []string{"Province/State", "Country/Region"}, global.IDColumns)
	assert.Equal(t, []string{"Lat", "Long"}, global.Spec().DropColumns)

	assert.Equal(t,
		"https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series/time_series_covid19_confirmed_global.csv",
		m.Location(global, ""))
	assert.Equal(t, filepath.Join("data", "time_series_covid19_confirmed_global.csv"), m.Location(global, "data"))
	assert.Equal(t, filepath.Join("data", "UID_ISO_FIPS_LookUp_Table.csv"), m.LookupLocation("data"))
	assert.Contains(t, m.LookupLocation(""), "UID_ISO_FIPS_LookUp_Table.csv")
}

func TestDefaultSourceIsCopy(t *testing.T) {
	src := DefaultSource()
	src[0] = 'X'
	assert.NotEqual(t, src[0], DefaultSource()[0])
}

const minimal = `
source "us_cases" {
  file       = "a.csv"
  url        = "https://example.com/a.csv"
  metric     = "cases"
  id_columns = ["Province_State", "Country_Region"]
}
source "us_deaths" {
  file       = "b.csv"
  metric     = "deaths"
  id_columns = ["Province_State", "Country_Region"]
}
source "global_cases" {
  file       = "c.csv"
  metric     = "cases"
  id_columns = ["Country/Region"]
}
source "global_deaths" {
  file       = "d.csv"
  metric     = "deaths"
  id_columns = ["Country/Region"]
}
lookup {
  file = "lookup.csv"
}
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.hcl")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	m, err := Load(path)
	require.NoError(t, err)

	cases, _ := m.Source(USCases)
	assert.Equal(t, "https://example.com/a.csv", m.Location(cases, ""))
	deaths, _ := m.Source(USDeaths)
	assert.Equal(t, "b.csv", m.Location(deaths, ""))
	assert.Equal(t, "lookup.csv", m.LookupLocation(""))
	assert.Equal(t, filepath.Join("d", "lookup.csv"), m.LookupLocation("d"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `source "x" {`},
		{"missing source", `lookup { file = "l.csv" }`},
		{"unknown attribute", minimal + "\nfoo = 1\n"},
		{"bad metric", `
source "us_cases" {
  file = "a.csv"
  metric = "recovered"
  id_columns = ["a"]
}
lookup { file = "l.csv" }
`},
		{"duplicate source", minimal + `
source "us_cases" {
  file = "a.csv"
  metric = "cases"
  id_columns = ["a"]
}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}
