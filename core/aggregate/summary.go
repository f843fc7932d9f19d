package aggregate

import (
	"covid-report/core/determinism"
	"covid-report/core/types"
)

type extent struct {
	key        regionKey
	cases      types.Count
	deaths     types.Count
	population types.Count
}

// Summarize reduces each region's series to its maximum cases, deaths and
// population and derives per-thousand rates. Regions without positive cases,
// positive population or any death count are left out.
func Summarize(rows []types.Aggregate) []types.Summary {
	index := make(map[regionKey]int)
	var groups []extent
	for _, r := range rows {
		k := regionKey{r.ProvinceState, r.CountryRegion}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, extent{key: k})
		}
		g := &groups[i]
		g.cases = g.cases.Max(r.Cases)
		g.deaths = g.deaths.Max(r.Deaths)
		g.population = g.population.Max(r.Population)
	}

	out := make([]types.Summary, 0, len(groups))
	for _, g := range groups {
		if !g.cases.Positive() || !g.population.Positive() || !g.deaths.Valid {
			continue
		}
		casesPerThou, _ := determinism.Rate(g.cases.Value, g.population.Value, 1000)
		deathsPerThou, _ := determinism.Rate(g.deaths.Value, g.population.Value, 1000)
		out = append(out, types.Summary{
			ProvinceState: g.key.province,
			CountryRegion: g.key.country,
			Cases:         g.cases.Value,
			Deaths:        g.deaths.Value,
			Population:    g.population.Value,
			CasesPerThou:  casesPerThou,
			DeathsPerThou: deathsPerThou,
		})
	}
	determinism.SortSlice(out, func(a, b types.Summary) bool {
		if a.ProvinceState != b.ProvinceState {
			return a.ProvinceState < b.ProvinceState
		}
		return a.CountryRegion < b.CountryRegion
	})
	return out
}

// Top returns the n regions with the highest deaths per thousand.
func Top(s []types.Summary, n int) []types.Summary {
	return rank(s, n, func(a, b types.Summary) bool {
		if a.DeathsPerThou != b.DeathsPerThou {
			return a.DeathsPerThou > b.DeathsPerThou
		}
		return a.RegionName() < b.RegionName()
	})
}

// Bottom returns the n regions with the lowest deaths per thousand.
func Bottom(s []types.Summary, n int) []types.Summary {
	return rank(s, n, func(a, b types.Summary) bool {
		if a.DeathsPerThou != b.DeathsPerThou {
			return a.DeathsPerThou < b.DeathsPerThou
		}
		return a.RegionName() < b.RegionName()
	})
}

func rank(s []types.Summary, n int, less func(a, b types.Summary) bool) []types.Summary {
	out := append([]types.Summary(nil), s...)
	determinism.SortSlice(out, less)
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
