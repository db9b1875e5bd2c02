package etl

import "time"

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// Sources emit RawRows, the transform stage turns them into Records,
// the loader and collector consume Records.

// DateLayout is the only accepted date format, both in the source
// datasets and in the repository sort key.
const DateLayout = "2006-01-02"

// Field describes a single column in a dataset.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number" | "date"
}

// Schema describes the shape of rows coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// RawRow is a single row as produced by acquisition: field name → value.
// A nil RawRow is not a field mapping.
type RawRow map[string]string

// RowSet is the ordered output of one source.
type RowSet []RawRow

// Record is a canonical daily record. Before the merge only the fields
// contributed by one source are populated.
type Record struct {
	Date      time.Time `json:"date"`
	Cases     int64     `json:"cases"`
	Deaths    int64     `json:"deaths"`
	Recovered int64     `json:"recovered"`
}

// DateString renders the record date as YYYY-MM-DD.
func (r Record) DateString() string {
	return r.Date.Format(DateLayout)
}

// ParseDate parses a strict YYYY-MM-DD date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Dates returns the record dates in order.
func Dates(records []Record) []time.Time {
	out := make([]time.Time, len(records))
	for i, r := range records {
		out[i] = r.Date
	}
	return out
}
