package export

import (
	"encoding/csv"
	"io"

	dbq "github.com/carrelhq/carrel/internal/db/queries"
)

// WriteCSV streams the report as RFC 4180 CSV with a header row.
func WriteCSV(w io.Writer, rows []dbq.BookingReportRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columnHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(formatRow(row)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
