// Package gviz builds Google Visualization DataTables and encodes them in
// the JSON form accepted by the google.visualization.DataTable constructor.
package gviz

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Column types understood by the charts library.
const (
	TypeDate   = "date"
	TypeNumber = "number"
	TypeString = "string"
)

// Column describes one DataTable column.
type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// DataTable is an in-memory table of typed columns. Rows are stored by
// column ID so the output column order can be chosen at encode time.
type DataTable struct {
	cols []Column
	rows []map[string]any
}

// NewDataTable creates an empty table with the given columns.
func NewDataTable(cols ...Column) *DataTable {
	return &DataTable{cols: cols}
}

// Columns returns the table's column definitions.
func (t *DataTable) Columns() []Column {
	return t.cols
}

// Len returns the number of rows.
func (t *DataTable) Len() int {
	return len(t.rows)
}

// AddRow appends a row keyed by column ID. Unknown IDs are rejected.
func (t *DataTable) AddRow(row map[string]any) error {
	for id := range row {
		if _, ok := t.column(id); !ok {
			return fmt.Errorf("gviz: unknown column %q", id)
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

func (t *DataTable) column(id string) (Column, bool) {
	for _, c := range t.cols {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

type cell struct {
	V any `json:"v"`
}

type row struct {
	C []cell `json:"c"`
}

type table struct {
	Cols []Column `json:"cols"`
	Rows []row    `json:"rows"`
}

// JSON encodes the table with columns in columnsOrder (all columns when
// empty) and rows sorted ascending by orderBy (insertion order when empty).
func (t *DataTable) JSON(columnsOrder []string, orderBy string) ([]byte, error) {
	cols := t.cols
	if len(columnsOrder) > 0 {
		cols = make([]Column, 0, len(columnsOrder))
		for _, id := range columnsOrder {
			c, ok := t.column(id)
			if !ok {
				return nil, fmt.Errorf("gviz: unknown column %q", id)
			}
			cols = append(cols, c)
		}
	}

	rows := make([]map[string]any, len(t.rows))
	copy(rows, t.rows)
	if orderBy != "" {
		if _, ok := t.column(orderBy); !ok {
			return nil, fmt.Errorf("gviz: unknown order column %q", orderBy)
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return less(rows[i][orderBy], rows[j][orderBy])
		})
	}

	out := table{Cols: cols, Rows: make([]row, 0, len(rows))}
	for _, r := range rows {
		cells := make([]cell, len(cols))
		for i, c := range cols {
			v, err := encodeValue(c.Type, r[c.ID])
			if err != nil {
				return nil, fmt.Errorf("gviz: column %q: %w", c.ID, err)
			}
			cells[i] = cell{V: v}
		}
		out.Rows = append(out.Rows, row{C: cells})
	}
	return json.Marshal(out)
}

// encodeValue converts a Go value to its DataTable JSON representation.
// Dates use the "Date(y,m,d)" string form with a zero-based month.
func encodeValue(typ string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case TypeDate:
		d, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
		return fmt.Sprintf("Date(%d,%d,%d)", d.Year(), int(d.Month())-1, d.Day()), nil
	case TypeNumber:
		switch n := v.(type) {
		case int, int32, int64, float32, float64:
			return n, nil
		default:
			return nil, fmt.Errorf("expected a number, got %T", v)
		}
	default:
		return fmt.Sprint(v), nil
	}
}

func less(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Before(y)
	case int64:
		y, ok := b.(int64)
		return ok && x < y
	case int:
		y, ok := b.(int)
		return ok && x < y
	case float64:
		y, ok := b.(float64)
		return ok && x < y
	case string:
		y, ok := b.(string)
		return ok && x < y
	default:
		return false
	}
}
