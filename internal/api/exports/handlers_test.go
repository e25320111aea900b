package exports

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carrelhq/carrel/internal/api/authz"
	"github.com/carrelhq/carrel/internal/db"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/testutil"
)

func setupHandlers(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	queries = nil
	initOnce = sync.Once{}
	InitHandlers(database.Queries)
	t.Cleanup(func() {
		queries = nil
		initOnce = sync.Once{}
	})
	return database
}

func adminRequest(target string) *http.Request {
	r := httptest.NewRequest("GET", target, nil)
	admin := &authz.AuthUser{ID: 99, Email: "admin@example.com", Role: authz.RoleAdmin}
	return r.WithContext(authz.ContextWithUser(r.Context(), admin))
}

func seedBooking(t *testing.T, q *dbq.Queries, status string) {
	t.Helper()
	ctx := t.Context()

	user, err := q.CreateUser(ctx, dbq.CreateUserParams{
		Email:        "member@example.com",
		PasswordHash: "x",
		FullName:     "Ada Lovelace",
		Role:         dbq.RoleMember,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	room, err := q.CreateRoom(ctx, dbq.CreateRoomParams{
		Name:     "Study Room A",
		Capacity: 8,
		OpensAt:  "08:00",
		ClosesAt: "20:00",
	})
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}

	start := time.Now().UTC().Add(-24 * time.Hour)
	booking, err := q.CreateBooking(ctx, dbq.CreateBookingParams{
		UserID:    user.ID,
		RoomID:    sql.NullInt64{Int64: room.ID, Valid: true},
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Attendees: 2,
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if status != dbq.BookingStatusPending {
		if _, err := q.UpdateBookingStatus(ctx, dbq.UpdateBookingStatusParams{ID: booking.ID, Status: status}); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}
}

func TestHandleCSV(t *testing.T) {
	database := setupHandlers(t)
	seedBooking(t, database.Queries, dbq.BookingStatusApproved)

	w := httptest.NewRecorder()
	HandleCSV(w, adminRequest("/api/v1/admin/exports/bookings.csv?range=last_7_days"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, `attachment; filename="reservations_`) || !strings.Contains(disposition, ".csv") {
		t.Errorf("Content-Disposition = %q", disposition)
	}

	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want header + 1 row", len(records))
	}
	if records[1][1] != "Ada Lovelace" || records[1][8] != "approved" {
		t.Errorf("row = %v", records[1])
	}
}

func TestHandleCSV_StatusFilter(t *testing.T) {
	database := setupHandlers(t)
	seedBooking(t, database.Queries, dbq.BookingStatusPending)

	w := httptest.NewRecorder()
	HandleCSV(w, adminRequest("/api/v1/admin/exports/bookings.csv?range=last_7_days&status=approved"))

	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want header only for non-matching filter", len(records))
	}

	w = httptest.NewRecorder()
	HandleCSV(w, adminRequest("/api/v1/admin/exports/bookings.csv?status=bogus"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bogus filter status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleCSV_MemberForbidden(t *testing.T) {
	setupHandlers(t)

	r := httptest.NewRequest("GET", "/api/v1/admin/exports/bookings.csv", nil)
	member := &authz.AuthUser{ID: 1, Email: "member@example.com", Role: authz.RoleMember}
	r = r.WithContext(authz.ContextWithUser(r.Context(), member))
	w := httptest.NewRecorder()
	HandleCSV(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestHandleExcel(t *testing.T) {
	database := setupHandlers(t)
	seedBooking(t, database.Queries, dbq.BookingStatusApproved)

	w := httptest.NewRecorder()
	HandleExcel(w, adminRequest("/api/v1/admin/exports/bookings.xlsx?range=last_7_days"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body does not look like a zip archive")
	}
}

func TestHandlePDF(t *testing.T) {
	database := setupHandlers(t)
	seedBooking(t, database.Queries, dbq.BookingStatusApproved)

	w := httptest.NewRecorder()
	HandlePDF(w, adminRequest("/api/v1/admin/exports/bookings.pdf?range=last_7_days"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("body does not start with a PDF header")
	}
}
