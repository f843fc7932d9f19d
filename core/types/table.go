package types

// WideTable is a raw CSV relation: one row per geographic unit, identity
// columns followed by one column per date.
type WideTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the named header column, or -1.
func (t *WideTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// TidyTable is the long form of a WideTable: one row per (unit, date).
type TidyTable struct {
	Name    string
	Metric  Metric
	Columns []string
	Rows    []TidyRow
}

// TidyRow holds the identity values aligned with TidyTable.Columns, the raw
// date header and the metric value for that date.
type TidyRow struct {
	Identity []string
	Date     string
	Value    Count
}
