package etl

import "strings"

// ── Transformer ────────────────────────────────────────────
// Transformers modify raw rows in-flight between acquisition and
// normalization. They are composable: each takes a row, returns a
// (possibly modified) row and a boolean indicating whether to keep it.

// Transformer processes a single row.
// Returns (transformed row, keep). If keep is false, the row is dropped.
type Transformer interface {
	Transform(RawRow) (RawRow, bool)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(RawRow) (RawRow, bool)

func (f TransformerFunc) Transform(r RawRow) (RawRow, bool) { return f(r) }

// ── Built-in Transforms ────────────────────────────────────

// FilterTransform drops rows where the given field does not match the value.
type FilterTransform struct {
	Field string
	Op    string // "eq" | "neq" | "contains"
	Value string
}

func (t *FilterTransform) Transform(r RawRow) (RawRow, bool) {
	v, ok := r[t.Field]
	if !ok {
		return r, false
	}
	switch t.Op {
	case "eq":
		return r, v == t.Value
	case "neq":
		return r, v != t.Value
	case "contains":
		return r, strings.Contains(v, t.Value)
	default:
		return r, true
	}
}

// SelectTransform keeps only the specified fields. It always returns a
// fresh row, so transforms after it never touch the caller's data.
type SelectTransform struct {
	Fields []string
}

func (t *SelectTransform) Transform(r RawRow) (RawRow, bool) {
	filtered := make(RawRow, len(t.Fields))
	for _, f := range t.Fields {
		if v, ok := r[f]; ok {
			filtered[f] = v
		}
	}
	return filtered, true
}

// RenameTransform renames fields in a row.
type RenameTransform struct {
	Mapping map[string]string // oldName → newName
}

func (t *RenameTransform) Transform(r RawRow) (RawRow, bool) {
	for old, new_ := range t.Mapping {
		if v, ok := r[old]; ok {
			delete(r, old)
			r[new_] = v
		}
	}
	return r, true
}

// ApplyTransformers runs a chain of transformers on a row.
func ApplyTransformers(r RawRow, ts []Transformer) (RawRow, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}

// ── Pipeline ───────────────────────────────────────────────

// Transform classifies the row sets, normalizes both roles and merges them.
func Transform(sets []RowSet) ([]Record, error) {
	classified, err := Classify(sets)
	if err != nil {
		return nil, err
	}
	aggregate, err := NormalizeAggregate(classified.Aggregate)
	if err != nil {
		return nil, err
	}
	regional, err := NormalizeRegional(classified.Regional)
	if err != nil {
		return nil, err
	}
	return Merge(aggregate, regional), nil
}
