package aggregate

import (
	"math"
	"testing"
	"time"

	"covid-report/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2020, time.March, d, 0, 0, 0, 0, time.UTC)
}

func county(admin2, state string, d int, cases, deaths, pop types.Count) types.Record {
	return types.Record{
		Region:     types.Region{Admin2: admin2, ProvinceState: state, CountryRegion: "US"},
		Date:       day(d),
		Cases:      cases,
		Deaths:     deaths,
		Population: pop,
	}
}

func TestByState(t *testing.T) {
	us := []types.Record{
		county("Kings", "New York", 1, types.Some(10), types.Some(1), types.Some(1000)),
		county("Queens", "New York", 1, types.Some(5), types.None(), types.Some(500)),
		county("Adams", "Ohio", 1, types.None(), types.None(), types.None()),
		county("Kings", "New York", 2, types.Some(12), types.Some(2), types.Some(1000)),
	}

	got := ByState(us)
	require.Len(t, got, 3)

	ny1 := got[0]
	assert.Equal(t, "New York", ny1.ProvinceState)
	assert.Equal(t, day(1), ny1.Date)
	assert.Equal(t, types.Some(15), ny1.Cases)
	assert.Equal(t, types.Some(1), ny1.Deaths, "absent values are skipped")
	assert.Equal(t, types.Some(1500), ny1.Population)
	assert.InDelta(t, 666.6667, ny1.DeathsPerMill, 1e-3)

	assert.Equal(t, day(2), got[1].Date)

	ohio := got[2]
	assert.Equal(t, "Ohio", ohio.ProvinceState)
	assert.False(t, ohio.Cases.Valid, "all-absent group stays absent")
	assert.True(t, math.IsNaN(ohio.DeathsPerMill))
}

func TestRollupConsistency(t *testing.T) {
	us := []types.Record{
		county("Kings", "New York", 1, types.Some(10), types.Some(1), types.Some(1000)),
		county("Adams", "Ohio", 1, types.Some(3), types.Some(0), types.Some(200)),
		county("Kings", "New York", 2, types.Some(12), types.Some(2), types.Some(1000)),
		county("Adams", "Ohio", 2, types.Some(4), types.Some(1), types.Some(200)),
	}

	states := ByState(us)
	countries := ByCountry(states)
	require.Len(t, countries, 2)

	for _, c := range countries {
		var sum int64
		for _, s := range states {
			if s.Date.Equal(c.Date) {
				sum += s.Cases.Value
			}
		}
		assert.Equal(t, sum, c.Cases.Value)
		assert.Equal(t, "", c.ProvinceState)
		assert.Equal(t, "US", c.CountryRegion)
	}
	assert.Equal(t, types.Some(1200), countries[1].Population)
}

func TestDeathsPerMill(t *testing.T) {
	tests := []struct {
		name   string
		deaths types.Count
		pop    types.Count
		check  func(t *testing.T, v float64)
	}{
		{"regular", types.Some(3), types.Some(1000000), func(t *testing.T, v float64) { assert.Equal(t, 3.0, v) }},
		{"zero over zero", types.Some(0), types.Some(0), func(t *testing.T, v float64) { assert.True(t, math.IsNaN(v)) }},
		{"positive over zero", types.Some(2), types.Some(0), func(t *testing.T, v float64) { assert.True(t, math.IsInf(v, 1)) }},
		{"absent population", types.Some(2), types.None(), func(t *testing.T, v float64) { assert.True(t, math.IsNaN(v)) }},
		{"absent deaths", types.None(), types.Some(5), func(t *testing.T, v float64) { assert.True(t, math.IsNaN(v)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DeathsPerMill(tt.deaths, tt.pop))
		})
	}
}

func series(name string, values ...int64) []types.Aggregate {
	out := make([]types.Aggregate, len(values))
	for i, v := range values {
		out[i] = types.Aggregate{
			ProvinceState: name,
			CountryRegion: "US",
			Date:          day(i + 1),
			Cases:         types.Some(v),
			Deaths:        types.Some(v / 2),
		}
	}
	return out
}

func TestWithDeltas(t *testing.T) {
	rows := append(series("B", 10, 10, 15, 12), series("A", 1, 4)...)

	got := WithDeltas(rows)
	require.Len(t, got, 6)

	var newCases []types.Count
	for _, r := range got {
		newCases = append(newCases, r.NewCases)
	}
	assert.Equal(t, []types.Count{
		types.None(), types.Some(3),
		types.None(), types.Some(0), types.Some(5), types.Some(-3),
	}, newCases)
	assert.Equal(t, types.Some(2), got[4].NewDeaths)

	assert.False(t, rows[1].NewCases.Valid, "input is not modified")
}

func TestWithDeltasAbsentOperand(t *testing.T) {
	rows := series("A", 1, 2, 3)
	rows[1].Cases = types.None()

	got := WithDeltas(rows)
	assert.False(t, got[1].NewCases.Valid)
	assert.False(t, got[2].NewCases.Valid)
}

func TestRegion(t *testing.T) {
	rows := append(series("B", 1, 2), series("A", 3)...)
	got := Region(rows, "B", "US")
	require.Len(t, got, 2)
	assert.Equal(t, day(1), got[0].Date)
	assert.Empty(t, Region(rows, "C", "US"))
}

func TestFromRecords(t *testing.T) {
	recs := []types.Record{
		{Region: types.Region{CountryRegion: "B"}, Date: day(1), Cases: types.Some(1), Deaths: types.Some(1), Population: types.Some(10)},
		{Region: types.Region{ProvinceState: "P", CountryRegion: "A"}, Date: day(1), Cases: types.Some(2)},
	}
	got := FromRecords(recs)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].CountryRegion, "empty province sorts first")
	assert.Equal(t, 100000.0, got[0].DeathsPerMill)
	assert.True(t, math.IsNaN(got[1].DeathsPerMill))
}
