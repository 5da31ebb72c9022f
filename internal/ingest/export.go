package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/xuri/excelize/v2"
)

// WriteCSV writes the table with a header row. Nulls are written as empty fields.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	header, rows := t.Records()
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteXLSX writes the table to a single worksheet. Datetimes are written as
// text so the workbook reads back without locale-dependent date formats.
func WriteXLSX(w io.Writer, t *table.Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}
	header := make([]any, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		row := make([]any, t.NumCols())
		for j, v := range t.Row(i) {
			row[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v table.Value) any {
	switch v.Kind {
	case table.KindNumeric:
		if math.IsInf(v.Num, 0) {
			return v.String()
		}
		return v.Num
	case table.KindBool:
		return v.Bool
	case table.KindNull:
		return nil
	}
	return v.String()
}
