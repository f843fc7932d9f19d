// Package aggregate rolls records up to state and country level and derives
// per-capita rates, daily deltas and the max-to-date summary.
package aggregate

import (
	"math"
	"time"

	"covid-report/core/determinism"
	"covid-report/core/types"
)

type groupKey struct {
	province string
	country  string
	date     time.Time
}

type regionKey struct {
	province string
	country  string
}

// ByState sums US records per (Province_State, Country_Region, date).
func ByState(us []types.Record) []types.Aggregate {
	rows := make([]types.Aggregate, 0, len(us))
	for _, r := range us {
		rows = append(rows, types.Aggregate{
			ProvinceState: r.Region.ProvinceState,
			CountryRegion: r.Region.CountryRegion,
			Date:          r.Date,
			Cases:         r.Cases,
			Deaths:        r.Deaths,
			Population:    r.Population,
		})
	}
	return rollup(rows, func(a types.Aggregate) groupKey {
		return groupKey{a.ProvinceState, a.CountryRegion, a.Date}
	})
}

// ByCountry sums aggregate rows per (Country_Region, date).
func ByCountry(rows []types.Aggregate) []types.Aggregate {
	return rollup(rows, func(a types.Aggregate) groupKey {
		return groupKey{country: a.CountryRegion, date: a.Date}
	})
}

// FromRecords lifts records to aggregate rows without grouping.
func FromRecords(records []types.Record) []types.Aggregate {
	out := make([]types.Aggregate, 0, len(records))
	for _, r := range records {
		out = append(out, types.Aggregate{
			ProvinceState: r.Region.ProvinceState,
			CountryRegion: r.Region.CountryRegion,
			Date:          r.Date,
			Cases:         r.Cases,
			Deaths:        r.Deaths,
			Population:    r.Population,
			DeathsPerMill: DeathsPerMill(r.Deaths, r.Population),
		})
	}
	sortRows(out)
	return out
}

func rollup(rows []types.Aggregate, keyOf func(types.Aggregate) groupKey) []types.Aggregate {
	index := make(map[groupKey]int)
	var out []types.Aggregate
	for _, r := range rows {
		k := keyOf(r)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, types.Aggregate{
				ProvinceState: k.province,
				CountryRegion: k.country,
				Date:          k.date,
			})
		}
		g := &out[i]
		g.Cases = g.Cases.Plus(r.Cases)
		g.Deaths = g.Deaths.Plus(r.Deaths)
		g.Population = g.Population.Plus(r.Population)
	}
	for i := range out {
		out[i].DeathsPerMill = DeathsPerMill(out[i].Deaths, out[i].Population)
	}
	sortRows(out)
	return out
}

// DeathsPerMill returns deaths per million inhabitants. The result is NaN
// when either value is absent or both are zero, and infinite when only the
// population is zero.
func DeathsPerMill(deaths, population types.Count) float64 {
	if !deaths.Valid || !population.Valid {
		return math.NaN()
	}
	return float64(deaths.Value) * 1e6 / float64(population.Value)
}

func sortRows(rows []types.Aggregate) {
	determinism.SortSlice(rows, func(a, b types.Aggregate) bool {
		if a.ProvinceState != b.ProvinceState {
			return a.ProvinceState < b.ProvinceState
		}
		if a.CountryRegion != b.CountryRegion {
			return a.CountryRegion < b.CountryRegion
		}
		return a.Date.Before(b.Date)
	})
}

// WithDeltas returns a copy of rows with NewCases and NewDeaths set to the
// day-over-day difference within each region. The first row of a region has
// absent deltas. Negative deltas are kept.
func WithDeltas(rows []types.Aggregate) []types.Aggregate {
	out := append([]types.Aggregate(nil), rows...)
	sortRows(out)

	for i := range out {
		if i == 0 || !sameRegion(out[i-1], out[i]) {
			out[i].NewCases = types.None()
			out[i].NewDeaths = types.None()
			continue
		}
		out[i].NewCases = out[i].Cases.Minus(out[i-1].Cases)
		out[i].NewDeaths = out[i].Deaths.Minus(out[i-1].Deaths)
	}
	return out
}

func sameRegion(a, b types.Aggregate) bool {
	return a.ProvinceState == b.ProvinceState && a.CountryRegion == b.CountryRegion
}

// Region returns the rows of one region in date order.
func Region(rows []types.Aggregate, province, country string) []types.Aggregate {
	var out []types.Aggregate
	for _, r := range rows {
		if r.ProvinceState == province && r.CountryRegion == country {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out
}
