package domain

// Record is one row of tabular input. Columns keeps the header order of the
// source file; cells missing from the row are absent from Values.
type Record struct {
	RowIndex int
	Columns  []string
	Values   map[string]string
}

// NewRecord builds a record from a header and a row. Cells beyond the end of
// row are treated as missing.
func NewRecord(rowIndex int, columns []string, row []string) Record {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		if i >= len(row) {
			break
		}
		values[col] = row[i]
	}
	return Record{RowIndex: rowIndex, Columns: columns, Values: values}
}

// Get returns the raw cell value for col and whether it was present.
func (r Record) Get(col string) (string, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// String returns the raw cell value for col, or "" when it is missing.
func (r Record) String(col string) string {
	return r.Values[col]
}

// Metadata returns the record's cells as a payload map. When fillMissing is
// set, absent columns are included with an empty value.
func (r Record) Metadata(fillMissing bool) map[string]any {
	md := make(map[string]any, len(r.Columns))
	for _, col := range r.Columns {
		v, ok := r.Values[col]
		if !ok && !fillMissing {
			continue
		}
		md[col] = v
	}
	return md
}
