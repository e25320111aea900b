package export

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	dbq "github.com/carrelhq/carrel/internal/db/queries"
)

// WritePDF renders the report as a landscape A4 table with a title line.
func WritePDF(w io.Writer, rows []dbq.BookingReportRow, from, to time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, ReportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	period := from.UTC().Format("Jan 2, 2006") + " - " + to.UTC().Format("Jan 2, 2006")
	pdf.CellFormat(0, 6, period, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{12, 40, 50, 16, 40, 22, 15, 15, 22, 18, 27}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)
		for i, header := range columnHeaders {
			pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(235, 240, 250)
	}
	writeHeader()

	fill := false
	for _, row := range rows {
		if pdf.GetY() > 180 {
			pdf.AddPage()
			writeHeader()
		}
		values := formatRow(row)
		for i, value := range values {
			pdf.CellFormat(widths[i], 7, value, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	if len(rows) == 0 {
		pdf.Ln(4)
		pdf.CellFormat(0, 8, "No reservations in the selected period.", "", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}
