package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	dbq "github.com/carrelhq/carrel/internal/db/queries"
)

const excelSheet = "Reservations"

// WriteExcel renders the report as an .xlsx workbook with a styled header
// row and sized columns.
func WriteExcel(w io.Writer, rows []dbq.BookingReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(excelSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range columnHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(excelSheet, cell, header); err != nil {
			return err
		}
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(columnHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(excelSheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		values := formatRow(row)
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(excelSheet, cell, value); err != nil {
				return err
			}
		}
	}

	widths := []float64{8, 24, 28, 10, 24, 12, 8, 8, 12, 10, 18}
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(excelSheet, name, name, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}
