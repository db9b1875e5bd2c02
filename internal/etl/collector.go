package etl

import (
	"context"
	"fmt"

	"casetrack/internal/gviz"
)

// DatasetKey is the name the visualization script is published under.
const DatasetKey = "dataset.js"

// ColumnOrder is the column order of the published table.
var ColumnOrder = []string{"date", "cases", "deaths", "recovered"}

// Sink accepts a published artifact.
type Sink interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Collector accumulates the records of one run and renders them as a
// DataTable script. It does not deduplicate: add each record once.
type Collector struct {
	records []Record
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one or more records.
func (c *Collector) Add(records ...Record) {
	c.records = append(c.records, records...)
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	return len(c.records)
}

// Records returns a copy of the collected records in insertion order.
func (c *Collector) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Table builds the DataTable holding every collected record.
func (c *Collector) Table() (*gviz.DataTable, error) {
	dt := gviz.NewDataTable(
		gviz.Column{ID: "date", Label: "Date", Type: gviz.TypeDate},
		gviz.Column{ID: "cases", Label: "Cases", Type: gviz.TypeNumber},
		gviz.Column{ID: "deaths", Label: "Deaths", Type: gviz.TypeNumber},
		gviz.Column{ID: "recovered", Label: "Recovered", Type: gviz.TypeNumber},
	)
	for _, r := range c.records {
		err := dt.AddRow(map[string]any{
			"date":      r.Date,
			"cases":     r.Cases,
			"deaths":    r.Deaths,
			"recovered": r.Recovered,
		})
		if err != nil {
			return nil, err
		}
	}
	return dt, nil
}

// Render serializes the table ordered by date and wraps it in the
// createDataset() script expected by the chart page.
func (c *Collector) Render() ([]byte, error) {
	dt, err := c.Table()
	if err != nil {
		return nil, err
	}
	data, err := dt.JSON(ColumnOrder, "date")
	if err != nil {
		return nil, err
	}
	code := fmt.Sprintf("function createDataset() { return { getDataTable: function () { return new google.visualization.DataTable(%s); } }; }", data)
	return []byte(code), nil
}

// Flush renders the script and hands it to the sink under DatasetKey.
func (c *Collector) Flush(ctx context.Context, sink Sink) error {
	body, err := c.Render()
	if err != nil {
		return err
	}
	return sink.Put(ctx, DatasetKey, body)
}
