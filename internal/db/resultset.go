package db

import "time"

type Column struct {
	Ordinal  int
	Name     string
	Type     string
	Nullable bool
}

// ResultSet holds the rows of one query as scanned from the driver.
// Values are driver-native; see package normalize for JSON-safe records.
type ResultSet struct {
	Columns  []Column
	Rows     [][]any
	RowCount int
	Duration time.Duration
}

// ColumnNames returns the column names in projection order.
func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		names[i] = col.Name
	}
	return names
}
