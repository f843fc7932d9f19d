// Package enrich attaches population and display keys to global records.
package enrich

import (
	"fmt"
	"strings"

	"covid-report/core/types"
	"covid-report/internal/errors"
)

type regionKey struct {
	province string
	country  string
}

// Population left-joins global records onto the lookup table by
// (Province_State, Country_Region). Unmatched records keep an absent
// population. County rows (non-empty Admin2) never match. Every output
// record carries a Combined_Key.
func Population(global []types.Record, lookup []types.LookupRow) ([]types.Record, error) {
	index := make(map[regionKey]types.Count)
	dup := make(map[regionKey]bool)
	for _, l := range lookup {
		if l.Admin2 != "" {
			continue
		}
		k := regionKey{l.ProvinceState, l.CountryRegion}
		if _, ok := index[k]; ok {
			dup[k] = true
		}
		index[k] = l.Population
	}

	out := make([]types.Record, len(global))
	for i, r := range global {
		k := regionKey{r.Region.ProvinceState, r.Region.CountryRegion}
		if dup[k] {
			return nil, errors.JoinAmbiguity("population lookup", fmt.Sprintf("%s | %s", k.province, k.country))
		}
		if pop, ok := index[k]; ok {
			r.Population = pop
		} else {
			r.Population = types.None()
		}
		r.Region.CombinedKey = CombinedKey(r.Region.ProvinceState, r.Region.CountryRegion)
		out[i] = r
	}
	return out, nil
}

// CombinedKey joins the non-empty region parts with ", ".
func CombinedKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
