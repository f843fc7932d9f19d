// Package merge joins the cases and deaths tables of one region class.
package merge

import (
	"fmt"
	"strings"
	"time"

	"covid-report/core/types"
	"covid-report/internal/errors"
)

// side is one input of the join, indexed by canonical column name.
type side struct {
	table   types.TidyTable
	columns map[string]int
	keys    []string
	index   map[string]int
	dates   []time.Time
}

func newSide(t types.TidyTable) *side {
	s := &side{table: t, columns: make(map[string]int, len(t.Columns))}
	for i, c := range t.Columns {
		s.columns[types.CanonicalColumn(c)] = i
	}
	return s
}

func (s *side) value(row types.TidyRow, col string) string {
	if i, ok := s.columns[col]; ok {
		return row.Identity[i]
	}
	return ""
}

// Outer performs a full outer join of cases and deaths on the identity
// columns they share plus the date. A metric missing from one side is
// absent in the output. Output follows cases order, then deaths-only rows.
func Outer(cases, deaths types.TidyTable) ([]types.Record, error) {
	if cases.Metric != types.MetricCases || deaths.Metric != types.MetricDeaths {
		return nil, errors.Input(fmt.Sprintf("merge %s/%s: expected cases and deaths tables, got %s and %s",
			cases.Name, deaths.Name, cases.Metric, deaths.Metric))
	}

	left, right := newSide(cases), newSide(deaths)
	shared, err := sharedColumns(left, right)
	if err != nil {
		return nil, err
	}

	join := fmt.Sprintf("merge %s/%s", cases.Name, deaths.Name)
	dates := make(map[string]time.Time)
	parse := func(raw string) (time.Time, error) {
		if d, ok := dates[raw]; ok {
			return d, nil
		}
		d, err := types.ParseDate(raw)
		if err != nil {
			return time.Time{}, errors.DateParse(raw, err).WithContext("join", join)
		}
		dates[raw] = d
		return d, nil
	}
	for _, s := range []*side{left, right} {
		if err := s.buildIndex(join, shared, parse); err != nil {
			return nil, err
		}
	}

	out := make([]types.Record, 0, len(left.keys)+len(right.keys))
	emit := func(li, ri int) error {
		var l, r *types.TidyRow
		from, idx := left, li
		if li >= 0 {
			l = &cases.Rows[li]
		} else {
			from, idx = right, ri
		}
		if ri >= 0 {
			r = &deaths.Rows[ri]
		}
		first := &from.table.Rows[idx]

		var err error
		rec := types.Record{
			Region: types.Region{
				Admin2:        from.value(*first, types.ColAdmin2),
				ProvinceState: from.value(*first, types.ColProvinceState),
				CountryRegion: from.value(*first, types.ColCountryRegion),
				CombinedKey:   from.value(*first, types.ColCombinedKey),
			},
			Date: from.dates[idx],
		}
		if l != nil {
			rec.Cases = l.Value
			if rec.Population, err = population(left, *l); err != nil {
				return err
			}
		}
		if r != nil {
			rec.Deaths = r.Value
			if !rec.Population.Valid {
				if rec.Population, err = population(right, *r); err != nil {
					return err
				}
			}
		}
		out = append(out, rec)
		return nil
	}

	for _, k := range left.keys {
		j, ok := right.index[k]
		if !ok {
			j = -1
		}
		if err := emit(left.index[k], j); err != nil {
			return nil, err
		}
	}
	for _, k := range right.keys {
		if _, ok := left.index[k]; ok {
			continue
		}
		if err := emit(-1, right.index[k]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sharedColumns returns the canonical identity columns present on both
// sides. Only Population may appear on one side alone, and it is never part
// of the join key.
func sharedColumns(left, right *side) ([]string, error) {
	var shared []string
	for _, c := range left.table.Columns {
		name := types.CanonicalColumn(c)
		if name == types.ColPopulation {
			continue
		}
		if _, ok := right.columns[name]; ok {
			shared = append(shared, name)
		} else {
			return nil, errors.Schema(left.table.Name, fmt.Sprintf("identity column %q has no counterpart in %s", c, right.table.Name))
		}
	}
	for _, c := range right.table.Columns {
		name := types.CanonicalColumn(c)
		if _, ok := left.columns[name]; !ok && name != types.ColPopulation {
			return nil, errors.Schema(right.table.Name, fmt.Sprintf("identity column %q has no counterpart in %s", c, left.table.Name))
		}
	}
	if len(shared) == 0 {
		return nil, errors.Schema(left.table.Name, "no shared identity columns")
	}
	return shared, nil
}

// buildIndex keys every row by its shared identity values and calendar
// date, so headers spelling the same day differently land on one key.
func (s *side) buildIndex(join string, shared []string, parse func(string) (time.Time, error)) error {
	s.index = make(map[string]int, len(s.table.Rows))
	s.keys = make([]string, 0, len(s.table.Rows))
	s.dates = make([]time.Time, len(s.table.Rows))
	parts := make([]string, len(shared)+1)
	for n, row := range s.table.Rows {
		d, err := parse(row.Date)
		if err != nil {
			return err
		}
		s.dates[n] = d
		for i, col := range shared {
			parts[i] = s.value(row, col)
		}
		parts[len(shared)] = types.FormatDate(d)
		key := strings.Join(parts, "\x00")
		if _, dup := s.index[key]; dup {
			return errors.JoinAmbiguity(join, strings.Join(parts, " | ")).WithContext("table", s.table.Name)
		}
		s.index[key] = n
		s.keys = append(s.keys, key)
	}
	return nil
}

func population(s *side, row types.TidyRow) (types.Count, error) {
	i, ok := s.columns[types.ColPopulation]
	if !ok {
		return types.None(), nil
	}
	raw := strings.TrimSpace(row.Identity[i])
	c, err := types.ParseCount(raw)
	if err != nil {
		return types.None(), errors.Schema(s.table.Name, fmt.Sprintf("invalid population %q", raw))
	}
	return c, nil
}

// DropZeroCases keeps only records with a positive case count.
func DropZeroCases(records []types.Record) []types.Record {
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if r.Cases.Positive() {
			out = append(out, r)
		}
	}
	return out
}
