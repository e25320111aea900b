// Package export renders booking reports as CSV, Excel, and PDF downloads.
package export

import (
	"fmt"
	"strings"
	"time"

	dbq "github.com/carrelhq/carrel/internal/db/queries"
)

// ReportTitle labels exported files and the PDF heading.
const ReportTitle = "Reservations Report"

var columnHeaders = []string{
	"ID", "Member", "Email", "Type", "Resource", "Date", "Start", "End", "Status", "Attendees", "Requested At",
}

// Filename builds a download filename like reservations_2026-08-01_2026-08-28.csv.
func Filename(extension string, from, to time.Time) string {
	return fmt.Sprintf("reservations_%s_%s.%s",
		from.UTC().Format("2006-01-02"),
		to.UTC().Format("2006-01-02"),
		strings.TrimPrefix(extension, "."))
}

func formatRow(row dbq.BookingReportRow) []string {
	return []string{
		fmt.Sprintf("%d", row.BookingID),
		row.UserName,
		row.UserEmail,
		titleCase(row.ResourceType),
		row.ResourceName,
		row.StartTime.UTC().Format("2006-01-02"),
		row.StartTime.UTC().Format("15:04"),
		row.EndTime.UTC().Format("15:04"),
		row.Status,
		fmt.Sprintf("%d", row.Attendees),
		row.CreatedAt.UTC().Format("2006-01-02 15:04"),
	}
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
