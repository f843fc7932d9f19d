package aggregate

import (
	"testing"

	"covid-report/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(state string, d int, cases, deaths, pop types.Count) types.Aggregate {
	return types.Aggregate{ProvinceState: state, CountryRegion: "US", Date: day(d), Cases: cases, Deaths: deaths, Population: pop}
}

func TestSummarizeExactRates(t *testing.T) {
	rows := []types.Aggregate{
		point("X", 1, types.Some(400), types.Some(20), types.Some(200000)),
		point("X", 2, types.Some(500), types.Some(30), types.Some(200000)),
	}

	got := Summarize(rows)
	require.Len(t, got, 1)
	assert.Equal(t, int64(500), got[0].Cases)
	assert.Equal(t, int64(30), got[0].Deaths)
	assert.Equal(t, 2.5, got[0].CasesPerThou)
	assert.Equal(t, 0.15, got[0].DeathsPerThou)
}

func TestSummarizeFilters(t *testing.T) {
	rows := []types.Aggregate{
		point("NoCases", 1, types.Some(0), types.Some(0), types.Some(100)),
		point("NoPop", 1, types.Some(5), types.Some(1), types.Some(0)),
		point("AbsentPop", 1, types.Some(5), types.Some(1), types.None()),
		point("NoDeaths", 1, types.Some(5), types.None(), types.Some(100)),
		point("Kept", 1, types.Some(5), types.Some(0), types.Some(100)),
	}

	got := Summarize(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].ProvinceState)
	assert.Equal(t, 0.0, got[0].DeathsPerThou)
	for _, s := range got {
		assert.Positive(t, s.Cases)
		assert.Positive(t, s.Population)
	}
}

func TestSummarizeUsesMaxToDate(t *testing.T) {
	rows := []types.Aggregate{
		point("X", 1, types.Some(10), types.Some(3), types.Some(1000)),
		point("X", 2, types.Some(8), types.Some(2), types.Some(1000)),
	}
	got := Summarize(rows)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].Cases)
	assert.Equal(t, int64(3), got[0].Deaths)
}

func TestTopBottom(t *testing.T) {
	s := []types.Summary{
		{ProvinceState: "A", DeathsPerThou: 1},
		{ProvinceState: "B", DeathsPerThou: 3},
		{ProvinceState: "C", DeathsPerThou: 2},
		{ProvinceState: "D", DeathsPerThou: 3},
	}

	names := func(in []types.Summary) []string {
		var out []string
		for _, r := range in {
			out = append(out, r.RegionName())
		}
		return out
	}

	assert.Equal(t, []string{"B", "D"}, names(Top(s, 2)))
	assert.Equal(t, []string{"A", "C"}, names(Bottom(s, 2)))
	assert.Equal(t, []string{"B", "D", "C", "A"}, names(Top(s, 10)))
	assert.Equal(t, "A", s[0].ProvinceState, "input order is preserved")
}
