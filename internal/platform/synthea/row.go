package synthea

import "strings"

// Row is a single CSV record keyed by column name. Values are kept as
// strings; an empty string means the field is absent. Synthea never
// distinguishes empty from missing.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when the column is
// absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// GetAny returns the first non-empty value among the given column
// names. Synthea exports vary in header casing between versions, so
// mappers list the variants they accept.
func (r Row) GetAny(cols ...string) string {
	for _, col := range cols {
		if v := r.Get(col); v != "" {
			return v
		}
	}
	return ""
}
