package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-report/adapters/source"
	"covid-report/core/aggregate"
	"covid-report/core/manifest"
	"covid-report/core/types"
	"covid-report/internal/errors"
	"covid-report/internal/logging"
)

var fixtures = map[string]string{
	"time_series_covid19_confirmed_US.csv": "UID,iso2,iso3,code3,FIPS,Admin2,Province_State,Country_Region,Lat,Long_,Combined_Key,3/1/20,3/2/20,3/3/20\n" +
		"1,US,USA,840,1,A1,Alpha,US,0,0,\"A1, Alpha, US\",1,5,10\n" +
		"2,US,USA,840,2,B1,Beta,US,0,0,\"B1, Beta, US\",2,4,20\n",
	"time_series_covid19_deaths_US.csv": "UID,iso2,iso3,code3,FIPS,Admin2,Province_State,Country_Region,Lat,Long_,Combined_Key,Population,3/1/20,3/2/20,3/3/20\n" +
		"1,US,USA,840,1,A1,Alpha,US,0,0,\"A1, Alpha, US\",1000,0,1,2\n" +
		"2,US,USA,840,2,B1,Beta,US,0,0,\"B1, Beta, US\",4000,0,0,1\n",
	"time_series_covid19_confirmed_global.csv": "Province/State,Country/Region,Lat,Long,3/1/20,3/2/20,3/3/20\n" +
		",Chad,0,0,0,1,2\n" +
		"Ontario,Canada,0,0,3,4,5\n",
	"time_series_covid19_deaths_global.csv": "Province/State,Country/Region,Lat,Long,3/1/20,3/2/20,3/3/20\n" +
		",Chad,0,0,0,0,1\n" +
		"Ontario,Canada,0,0,0,1,1\n",
	"UID_ISO_FIPS_LookUp_Table.csv": "UID,iso2,iso3,code3,FIPS,Admin2,Province_State,Country_Region,Lat,Long_,Combined_Key,Population\n" +
		"148,TD,TCD,148,,,,Chad,0,0,Chad,10000\n" +
		"12401,CA,CAN,124,,,Ontario,Canada,0,0,\"Ontario, Canada\",1000\n",
}

func writeFixtures(t *testing.T, override map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range fixtures {
		if o, ok := override[name]; ok {
			body = o
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func newTestPipeline(t *testing.T, dir string, opts Options) *Pipeline {
	t.Helper()
	logging.UseNop()
	m, err := manifest.Default()
	require.NoError(t, err)
	opts.DataDir = dir
	return NewPipeline(m, source.File{}, opts)
}

func TestRunEndToEnd(t *testing.T) {
	dir := writeFixtures(t, nil)

	var seen []string
	p := newTestPipeline(t, dir, Options{
		FilterZeroCases: true,
		OnInput:         func(d types.InputDigest) { seen = append(seen, d.Name) },
	})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"us_cases", "us_deaths", "global_cases", "global_deaths", "lookup"}, seen)
	require.Len(t, res.Inputs, 5)
	assert.Equal(t, "us_cases", res.Inputs[0].Name)
	assert.Equal(t, "lookup", res.Inputs[4].Name)
	for _, in := range res.Inputs {
		assert.Len(t, in.SHA256, 64, in.Name)
		assert.Positive(t, in.Size, in.Name)
	}

	assert.Len(t, res.US, 6)
	assert.Len(t, res.Global, 5, "Chad's zero-case day is dropped")
	assert.Equal(t, "Ontario, Canada", res.Global[len(res.Global)-1].Region.CombinedKey)

	require.Len(t, res.States, 6)
	require.Len(t, res.USTotals, 3)
	assert.Equal(t, types.Some(30), res.USTotals[2].Cases)
	assert.Equal(t, types.Some(5000), res.USTotals[2].Population)
	assert.Equal(t, []types.Count{types.None(), types.Some(6), types.Some(21)},
		[]types.Count{res.USTotals[0].NewCases, res.USTotals[1].NewCases, res.USTotals[2].NewCases})

	require.Len(t, res.StateSummary, 2)
	ranked := aggregate.Top(res.StateSummary, 10)
	assert.Equal(t, "Alpha", ranked[0].ProvinceState)
	assert.Equal(t, 2.0, ranked[0].DeathsPerThou)
	assert.Equal(t, 10.0, ranked[0].CasesPerThou)
	assert.Equal(t, "Beta", ranked[1].ProvinceState)
	assert.Equal(t, 0.25, ranked[1].DeathsPerThou)
	for _, s := range res.StateSummary {
		require.NotNil(t, s.Predicted)
		assert.InDelta(t, s.DeathsPerThou, *s.Predicted, 1e-9)
	}
	require.NotNil(t, res.Model)
	assert.Equal(t, 2, res.Model.N)

	require.Len(t, res.CountrySummary, 2)
	assert.Equal(t, "Canada", res.CountrySummary[0].CountryRegion)
	assert.Equal(t, 5.0, res.CountrySummary[0].CasesPerThou)
}

func TestRunKeepsZeroCaseRowsWhenNotFiltering(t *testing.T) {
	dir := writeFixtures(t, nil)
	res, err := newTestPipeline(t, dir, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Global, 6)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
		remove   string
		errType  errors.Type
	}{
		{
			name:    "missing source",
			remove:  "time_series_covid19_deaths_global.csv",
			errType: errors.TypeFetch,
		},
		{
			name: "bad date header",
			override: map[string]string{
				"time_series_covid19_confirmed_global.csv": "Province/State,Country/Region,Lat,Long,March 1\n,Chad,0,0,1\n",
			},
			errType: errors.TypeDateParse,
		},
		{
			name: "ambiguous lookup",
			override: map[string]string{
				"UID_ISO_FIPS_LookUp_Table.csv": "Province_State,Country_Region,Population\n,Chad,1\n,Chad,2\n",
			},
			errType: errors.TypeJoinAmbiguity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFixtures(t, tt.override)
			if tt.remove != "" {
				require.NoError(t, os.Remove(filepath.Join(dir, tt.remove)))
			}

			res, err := newTestPipeline(t, dir, Options{FilterZeroCases: true}).Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.errType, errors.TypeOf(err), "got %v", err)
		})
	}
}

func TestRunParallelLoads(t *testing.T) {
	dir := writeFixtures(t, nil)

	var seen []string
	res, err := newTestPipeline(t, dir, Options{
		FilterZeroCases: true,
		Concurrency:     5,
		OnInput:         func(d types.InputDigest) { seen = append(seen, d.Name) },
	}).Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"us_cases", "us_deaths", "global_cases", "global_deaths", "lookup"}, seen)
	require.Len(t, res.Inputs, 5)
	assert.Equal(t, "us_cases", res.Inputs[0].Name)
	assert.Len(t, res.States, 6)
	assert.Len(t, res.StateSummary, 2)
}

func TestRunSingleStateSkipsModel(t *testing.T) {
	dir := writeFixtures(t, map[string]string{
		"time_series_covid19_confirmed_US.csv": "Admin2,Province_State,Country_Region,Combined_Key,3/1/20\nA1,Alpha,US,x,1\n",
		"time_series_covid19_deaths_US.csv":    "Admin2,Province_State,Country_Region,Combined_Key,Population,3/1/20\nA1,Alpha,US,x,10,0\n",
	})

	res, err := newTestPipeline(t, dir, Options{FilterZeroCases: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Model)
	require.Len(t, res.StateSummary, 1)
	assert.Nil(t, res.StateSummary[0].Predicted)
	assert.NotEmpty(t, res.CountrySummary)
}
