// Package reshape converts wide time-series tables to long form and back.
package reshape

import (
	"fmt"
	"strings"

	"covid-report/core/types"
	"covid-report/internal/errors"
)

// Spec says which columns of a wide table identify a unit and which are
// discarded. Every remaining column must be a date.
type Spec struct {
	Metric      types.Metric
	IDColumns   []string
	DropColumns []string
}

// Longer pivots the date columns of table into rows. The output holds one row
// per (unit, date column) in input row order, then date column order.
func Longer(table types.WideTable, spec Spec) (types.TidyTable, error) {
	if !spec.Metric.IsValid() {
		return types.TidyTable{}, errors.Input(fmt.Sprintf("%s: unknown metric %q", table.Name, spec.Metric))
	}

	idIdx := make([]int, len(spec.IDColumns))
	claimed := make(map[int]bool, len(table.Header))
	for i, col := range spec.IDColumns {
		idx := table.ColumnIndex(col)
		if idx < 0 {
			return types.TidyTable{}, errors.Schema(table.Name, fmt.Sprintf("missing identity column %q", col))
		}
		idIdx[i] = idx
		claimed[idx] = true
	}
	for _, col := range spec.DropColumns {
		if idx := table.ColumnIndex(col); idx >= 0 {
			claimed[idx] = true
		}
	}

	var dateIdx []int
	for i, h := range table.Header {
		if claimed[i] {
			continue
		}
		if _, err := types.ParseDate(h); err != nil {
			return types.TidyTable{}, errors.DateParse(h, err).WithContext("table", table.Name)
		}
		dateIdx = append(dateIdx, i)
	}

	out := types.TidyTable{
		Name:    table.Name,
		Metric:  spec.Metric,
		Columns: append([]string(nil), spec.IDColumns...),
		Rows:    make([]types.TidyRow, 0, len(table.Rows)*len(dateIdx)),
	}

	for n, row := range table.Rows {
		if len(row) != len(table.Header) {
			return types.TidyTable{}, errors.Schema(table.Name, fmt.Sprintf("row %d has %d fields, header has %d", n+1, len(row), len(table.Header)))
		}
		identity := make([]string, len(idIdx))
		for i, idx := range idIdx {
			identity[i] = row[idx]
		}
		for _, idx := range dateIdx {
			v, err := types.ParseCount(strings.TrimSpace(row[idx]))
			if err != nil {
				return types.TidyTable{}, errors.Schema(table.Name,
					fmt.Sprintf("row %d, column %q: invalid %s value %q", n+1, table.Header[idx], spec.Metric, row[idx]))
			}
			out.Rows = append(out.Rows, types.TidyRow{
				Identity: identity,
				Date:     table.Header[idx],
				Value:    v,
			})
		}
	}
	return out, nil
}

// Wider is the inverse of Longer. Units and dates keep their order of first
// appearance; repeated (unit, date) values are summed.
func Wider(t types.TidyTable) types.WideTable {
	var (
		dates []string
		units [][]string
		cells [][]types.Count
	)
	dateCol := make(map[string]int)
	unitRow := make(map[string]int)

	for _, r := range t.Rows {
		if _, ok := dateCol[r.Date]; !ok {
			dateCol[r.Date] = len(dates)
			dates = append(dates, r.Date)
		}
	}

	for _, r := range t.Rows {
		key := strings.Join(r.Identity, "\x00")
		i, ok := unitRow[key]
		if !ok {
			i = len(units)
			unitRow[key] = i
			units = append(units, r.Identity)
			cells = append(cells, make([]types.Count, len(dates)))
		}
		j := dateCol[r.Date]
		cells[i][j] = cells[i][j].Plus(r.Value)
	}

	out := types.WideTable{
		Name:   t.Name,
		Header: append(append([]string(nil), t.Columns...), dates...),
		Rows:   make([][]string, len(units)),
	}
	for i, id := range units {
		row := append([]string(nil), id...)
		for _, c := range cells[i] {
			if c.Valid {
				row = append(row, c.String())
			} else {
				row = append(row, "")
			}
		}
		out.Rows[i] = row
	}
	return out
}
