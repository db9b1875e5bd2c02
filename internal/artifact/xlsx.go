package artifact

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"casetrack/internal/etl"
)

// WorkbookSheet is the name of the sheet written by WriteWorkbook.
const WorkbookSheet = "dataset"

// WriteWorkbook exports records to an xlsx file with the same columns as
// the visualization table, ascending by date.
func WriteWorkbook(path string, records []etl.Record) error {
	sorted := make([]etl.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", WorkbookSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Date", "Cases", "Deaths", "Recovered"}
	if err := f.SetSheetRow(WorkbookSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range sorted {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.DateString(), r.Cases, r.Deaths, r.Recovered}
		if err := f.SetSheetRow(WorkbookSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
