package rooms

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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

func withUser(r *http.Request, user *authz.AuthUser) *http.Request {
	return r.WithContext(authz.ContextWithUser(r.Context(), user))
}

func memberUser() *authz.AuthUser {
	return &authz.AuthUser{ID: 1, Email: "member@example.com", Role: authz.RoleMember}
}

func adminUser() *authz.AuthUser {
	return &authz.AuthUser{ID: 2, Email: "admin@example.com", Role: authz.RoleAdmin}
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func seedRoom(t *testing.T, q *dbq.Queries, name string) dbq.Room {
	t.Helper()

	room, err := q.CreateRoom(t.Context(), dbq.CreateRoomParams{
		Name:     name,
		Capacity: 8,
		Location: "2nd floor",
		OpensAt:  "08:00",
		ClosesAt: "20:00",
	})
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

func TestHandleList_ActiveOnly(t *testing.T) {
	database := setupHandlers(t)
	ctx := t.Context()

	active := seedRoom(t, database.Queries, "Study Room A")
	retired := seedRoom(t, database.Queries, "Study Room B")
	if err := database.Queries.SetRoomActive(ctx, retired.ID, false); err != nil {
		t.Fatalf("deactivate room: %v", err)
	}

	r := withUser(httptest.NewRequest("GET", "/api/v1/rooms", nil), memberUser())
	w := httptest.NewRecorder()
	HandleList(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var rooms []dbq.Room
	if err := json.NewDecoder(w.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != active.ID {
		t.Errorf("rooms = %+v, want only the active room", rooms)
	}

	r = withUser(httptest.NewRequest("GET", "/api/v1/rooms?include_inactive=1", nil), adminUser())
	w = httptest.NewRecorder()
	HandleList(w, r)

	rooms = nil
	if err := json.NewDecoder(w.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("len(rooms) = %d, want 2 with include_inactive", len(rooms))
	}

	// include_inactive is admin-only; members still get the active subset.
	r = withUser(httptest.NewRequest("GET", "/api/v1/rooms?include_inactive=1", nil), memberUser())
	w = httptest.NewRecorder()
	HandleList(w, r)

	rooms = nil
	if err := json.NewDecoder(w.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != active.ID {
		t.Errorf("rooms = %+v, want only the active room for members", rooms)
	}
}

func TestHandleList_Unauthenticated(t *testing.T) {
	setupHandlers(t)

	w := httptest.NewRecorder()
	HandleList(w, httptest.NewRequest("GET", "/api/v1/rooms", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	setupHandlers(t)

	r := withUser(httptest.NewRequest("GET", "/api/v1/rooms/99", nil), memberUser())
	r.SetPathValue("id", "99")
	w := httptest.NewRecorder()
	HandleGet(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleCreate(t *testing.T) {
	setupHandlers(t)

	payload := map[string]any{
		"name":      "Reading Room",
		"capacity":  12,
		"location":  "3rd floor",
		"opens_at":  "9:00",
		"closes_at": "17:30",
	}

	r := withUser(jsonRequest(t, "POST", "/api/v1/admin/rooms", payload), adminUser())
	w := httptest.NewRecorder()
	HandleCreate(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var room dbq.Room
	if err := json.NewDecoder(w.Body).Decode(&room); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if room.Name != "Reading Room" || room.OpensAt != "09:00" || !room.IsActive {
		t.Errorf("room = %+v", room)
	}
}

func TestHandleCreate_Forbidden(t *testing.T) {
	setupHandlers(t)

	payload := map[string]any{"name": "Reading Room", "capacity": 4, "opens_at": "08:00", "closes_at": "18:00"}

	r := withUser(jsonRequest(t, "POST", "/api/v1/admin/rooms", payload), memberUser())
	w := httptest.NewRecorder()
	HandleCreate(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want %d", w.Code, http.StatusForbidden)
	}

	w = httptest.NewRecorder()
	HandleCreate(w, jsonRequest(t, "POST", "/api/v1/admin/rooms", payload))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHandleCreate_InvalidHours(t *testing.T) {
	setupHandlers(t)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"closes before opens", map[string]any{"name": "Room", "capacity": 4, "opens_at": "18:00", "closes_at": "08:00"}},
		{"bad clock value", map[string]any{"name": "Room", "capacity": 4, "opens_at": "25:00", "closes_at": "26:00"}},
		{"zero capacity", map[string]any{"name": "Room", "capacity": 0, "opens_at": "08:00", "closes_at": "18:00"}},
		{"missing name", map[string]any{"capacity": 4, "opens_at": "08:00", "closes_at": "18:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := withUser(jsonRequest(t, "POST", "/api/v1/admin/rooms", tt.payload), adminUser())
			w := httptest.NewRecorder()
			HandleCreate(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleUpdate_TogglesActive(t *testing.T) {
	database := setupHandlers(t)
	room := seedRoom(t, database.Queries, "Study Room A")

	inactive := false
	payload := map[string]any{
		"name":      room.Name,
		"capacity":  room.Capacity,
		"opens_at":  room.OpensAt,
		"closes_at": room.ClosesAt,
		"is_active": inactive,
	}

	r := withUser(jsonRequest(t, "PUT", fmt.Sprintf("/api/v1/admin/rooms/%d", room.ID), payload), adminUser())
	r.SetPathValue("id", fmt.Sprintf("%d", room.ID))
	w := httptest.NewRecorder()
	HandleUpdate(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var updated dbq.Room
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.IsActive {
		t.Error("room should be inactive after update")
	}
}

func TestHandleDelete(t *testing.T) {
	database := setupHandlers(t)
	room := seedRoom(t, database.Queries, "Study Room A")

	r := withUser(httptest.NewRequest("DELETE", "/api/v1/admin/rooms/1", nil), adminUser())
	r.SetPathValue("id", fmt.Sprintf("%d", room.ID))
	w := httptest.NewRecorder()
	HandleDelete(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestHandleDelete_WithHistoryDeactivates(t *testing.T) {
	database := setupHandlers(t)
	ctx := t.Context()
	room := seedRoom(t, database.Queries, "Study Room A")

	user, err := database.Queries.CreateUser(ctx, dbq.CreateUserParams{
		Email:        "member@example.com",
		PasswordHash: "x",
		FullName:     "Member",
		Role:         dbq.RoleMember,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	if _, err := database.Queries.CreateBooking(ctx, dbq.CreateBookingParams{
		UserID:    user.ID,
		RoomID:    sql.NullInt64{Int64: room.ID, Valid: true},
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Attendees: 2,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	r := withUser(httptest.NewRequest("DELETE", "/api/v1/admin/rooms/1", nil), adminUser())
	r.SetPathValue("id", fmt.Sprintf("%d", room.ID))
	w := httptest.NewRecorder()
	HandleDelete(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "deactivated" {
		t.Errorf("status = %q, want deactivated", resp["status"])
	}

	kept, err := database.Queries.GetRoomByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("room should still exist: %v", err)
	}
	if kept.IsActive {
		t.Error("room with booking history should be deactivated")
	}
}

func TestHandleAvailability(t *testing.T) {
	database := setupHandlers(t)
	ctx := t.Context()
	room := seedRoom(t, database.Queries, "Study Room A")

	user, err := database.Queries.CreateUser(ctx, dbq.CreateUserParams{
		Email:        "member@example.com",
		PasswordHash: "x",
		FullName:     "Member",
		Role:         dbq.RoleMember,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	if _, err := database.Queries.CreateBooking(ctx, dbq.CreateBookingParams{
		UserID:    user.ID,
		RoomID:    sql.NullInt64{Int64: room.ID, Valid: true},
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Attendees: 3,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	r := withUser(httptest.NewRequest("GET", "/api/v1/rooms/1/availability?date=2026-09-01", nil), memberUser())
	r.SetPathValue("id", fmt.Sprintf("%d", room.ID))
	w := httptest.NewRecorder()
	HandleAvailability(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp availabilityResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RoomID != room.ID || resp.OpensAt != "08:00" || resp.ClosesAt != "20:00" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Busy) != 1 {
		t.Fatalf("len(busy) = %d, want 1", len(resp.Busy))
	}
	if resp.Busy[0].Status != dbq.BookingStatusPending {
		t.Errorf("busy status = %q, want pending", resp.Busy[0].Status)
	}

	// A different day has no busy slots.
	r = withUser(httptest.NewRequest("GET", "/api/v1/rooms/1/availability?date=2026-09-02", nil), memberUser())
	r.SetPathValue("id", fmt.Sprintf("%d", room.ID))
	w = httptest.NewRecorder()
	HandleAvailability(w, r)

	resp = availabilityResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Busy) != 0 {
		t.Errorf("len(busy) = %d, want 0", len(resp.Busy))
	}
}

func TestHandleAvailability_BadDate(t *testing.T) {
	database := setupHandlers(t)
	room := seedRoom(t, database.Queries, "Study Room A")

	r := withUser(httptest.NewRequest("GET", "/api/v1/rooms/1/availability?date=Sept-1", nil), memberUser())
	r.SetPathValue("id", fmt.Sprintf("%d", room.ID))
	w := httptest.NewRecorder()
	HandleAvailability(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
