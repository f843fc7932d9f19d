// Package load decodes the raw CSV resources into tables.
package load

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"covid-report/core/types"
	"covid-report/internal/errors"
)

// ReadWide decodes a CSV stream with a header row into a WideTable. Every
// row must have as many fields as the header.
func ReadWide(name string, r io.Reader) (types.WideTable, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return types.WideTable{}, errors.Schema(name, "empty table")
	}
	if err != nil {
		return types.WideTable{}, decodeError(name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := types.WideTable{Name: name, Header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.WideTable{}, decodeError(name, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func decodeError(name string, err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return errors.Schema(name, fmt.Sprintf("line %d: %v", pe.Line, pe.Err))
	}
	return errors.Wrapf(errors.TypeFetch, err, "read %s", name)
}

// Lookup columns
var (
	lookupRequired = []string{types.ColProvinceState, types.ColCountryRegion, types.ColPopulation}
	lookupOptional = []string{types.ColUID, types.ColFIPS, types.ColAdmin2}
)

// ReadLookup decodes the UID/population lookup table.
func ReadLookup(r io.Reader) ([]types.LookupRow, error) {
	const name = "lookup"

	table, err := ReadWide(name, r)
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(lookupRequired)+len(lookupOptional))
	for _, col := range lookupRequired {
		i := table.ColumnIndex(col)
		if i < 0 {
			return nil, errors.Schema(name, fmt.Sprintf("missing column %q", col))
		}
		idx[col] = i
	}
	for _, col := range lookupOptional {
		idx[col] = table.ColumnIndex(col)
	}

	cell := func(row []string, col string) string {
		if i := idx[col]; i >= 0 {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rows := make([]types.LookupRow, 0, len(table.Rows))
	for n, row := range table.Rows {
		pop, err := types.ParseCount(cell(row, types.ColPopulation))
		if err != nil {
			return nil, errors.Schema(name, fmt.Sprintf("row %d: invalid population %q", n+1, row[idx[types.ColPopulation]]))
		}
		rows = append(rows, types.LookupRow{
			UID:           cell(row, types.ColUID),
			FIPS:          cell(row, types.ColFIPS),
			Admin2:        cell(row, types.ColAdmin2),
			ProvinceState: cell(row, types.ColProvinceState),
			CountryRegion: cell(row, types.ColCountryRegion),
			Population:    pop,
		})
	}
	return rows, nil
}
