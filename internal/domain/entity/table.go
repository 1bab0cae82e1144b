package entity

// Table is the uniform tabular result every crawler returns. The column
// order is fixed per source so that callers always receive the same schema,
// including on market holidays where a table has a full column set and zero
// rows. Row values may be nil where the source had no value (a closed-market
// date column, an empty publication time).
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// NewTable creates an empty table with the given fixed column set.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. Keys not present in the column set are dropped;
// columns missing from the row are filled with nil at serialization time.
func (t *Table) Append(row map[string]any) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Records materializes the table in records orientation: one ordered map
// per row, every column present, nil for missing values. This is the shape
// serialized into the HTTP data field.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			if v, ok := row[col]; ok {
				rec[col] = v
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return records
}
