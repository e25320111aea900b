// Package exports serves admin report downloads in CSV, Excel, and PDF.
package exports

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/analytics"
	"github.com/carrelhq/carrel/internal/api/apiutil"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/export"
)

var (
	queries  *dbq.Queries
	initOnce sync.Once
)

func InitHandlers(q *dbq.Queries) {
	initOnce.Do(func() {
		queries = q
	})
}

// GET /api/v1/admin/exports/bookings.csv?range=this_month
func HandleCSV(w http.ResponseWriter, r *http.Request) {
	window, rows, ok := loadReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	setAttachment(w, export.Filename("csv", window.Start, window.End.AddDate(0, 0, -1)))

	if err := export.WriteCSV(w, rows); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write CSV export")
	}
}

// GET /api/v1/admin/exports/bookings.xlsx?range=this_month
func HandleExcel(w http.ResponseWriter, r *http.Request) {
	window, rows, ok := loadReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	setAttachment(w, export.Filename("xlsx", window.Start, window.End.AddDate(0, 0, -1)))

	if err := export.WriteExcel(w, rows); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write Excel export")
	}
}

// GET /api/v1/admin/exports/bookings.pdf?range=this_month
func HandlePDF(w http.ResponseWriter, r *http.Request) {
	window, rows, ok := loadReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	setAttachment(w, export.Filename("pdf", window.Start, window.End.AddDate(0, 0, -1)))

	if err := export.WritePDF(w, rows, window.Start, window.End.AddDate(0, 0, -1)); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write PDF export")
	}
}

// loadReport authorizes the admin, resolves the range, and fetches rows. On
// failure it writes the response and returns ok=false.
func loadReport(w http.ResponseWriter, r *http.Request) (analytics.Range, []dbq.BookingReportRow, bool) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireAdmin(w, r) == nil {
		return analytics.Range{}, nil, false
	}

	query := r.URL.Query()
	window, err := analytics.ResolveRange(query.Get("range"), query.Get("from"), query.Get("to"), time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return analytics.Range{}, nil, false
	}

	status := strings.TrimSpace(query.Get("status"))
	switch status {
	case "", dbq.BookingStatusPending, dbq.BookingStatusApproved, dbq.BookingStatusRejected,
		dbq.BookingStatusCancelled, dbq.BookingStatusCompleted:
	default:
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return analytics.Range{}, nil, false
	}

	rows, err := queries.ListBookingReportRows(r.Context(), dbq.ListBookingReportRowsParams{
		StartTime: window.Start,
		EndTime:   window.End,
		Status:    status,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load bookings for export")
		http.Error(w, "Failed to build export", http.StatusInternalServerError)
		return analytics.Range{}, nil, false
	}

	return window, rows, true
}

func setAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
