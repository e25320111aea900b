// Package rooms exposes room management and availability lookups.
package rooms

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/api/apiutil"
	"github.com/carrelhq/carrel/internal/api/authz"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
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

type roomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int64  `json:"capacity"`
	Location    string `json:"location"`
	OpensAt     string `json:"opens_at"`
	ClosesAt    string `json:"closes_at"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// GET /api/v1/rooms
func HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	// Members only see bookable rooms; admins may ask for everything.
	activeOnly := true
	if authz.IsAdmin(user) && apiutil.ParseBoolField(r.URL.Query().Get("include_inactive")) {
		activeOnly = false
	}

	rooms, err := queries.ListRooms(r.Context(), activeOnly)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list rooms")
		http.Error(w, "Failed to list rooms", http.StatusInternalServerError)
		return
	}
	if rooms == nil {
		rooms = []dbq.Room{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, rooms); err != nil {
		logger.Error().Err(err).Msg("Failed to write rooms response")
	}
}

// GET /api/v1/rooms/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireUser(w, r) == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	room, err := queries.GetRoomByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to load room")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, room); err != nil {
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to write room response")
	}
}

// POST /api/v1/admin/rooms
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	var req roomRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := validateRoomRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	room, err := queries.CreateRoom(r.Context(), params)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create room")
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("room_id", room.ID).Int64("admin_id", admin.ID).Msg("Room created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, room); err != nil {
		logger.Error().Err(err).Int64("room_id", room.ID).Msg("Failed to write room response")
	}
}

// PUT /api/v1/admin/rooms/{id}
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	existing, err := queries.GetRoomByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to load room")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req roomRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := validateRoomRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	room, err := queries.UpdateRoom(r.Context(), dbq.UpdateRoomParams{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
		Capacity:    params.Capacity,
		Location:    params.Location,
		OpensAt:     params.OpensAt,
		ClosesAt:    params.ClosesAt,
		IsActive:    isActive,
	})
	if err != nil {
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to update room")
		http.Error(w, "Failed to update room", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("room_id", id).Int64("admin_id", admin.ID).Msg("Room updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, room); err != nil {
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to write room response")
	}
}

// DELETE /api/v1/admin/rooms/{id}
//
// Rooms with booking history cannot be deleted; they get deactivated instead
// so historical reports keep their room names.
func HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	affected, err := queries.DeleteRoom(r.Context(), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			if err := queries.SetRoomActive(r.Context(), id, false); err != nil {
				logger.Error().Err(err).Int64("room_id", id).Msg("Failed to deactivate room")
				http.Error(w, "Failed to delete room", http.StatusInternalServerError)
				return
			}
			logger.Info().Int64("room_id", id).Int64("admin_id", admin.ID).Msg("Room deactivated instead of deleted")
			if err := apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"}); err != nil {
				logger.Error().Err(err).Int64("room_id", id).Msg("Failed to write room response")
			}
			return
		}
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to delete room")
		http.Error(w, "Failed to delete room", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	logger.Info().Int64("room_id", id).Int64("admin_id", admin.ID).Msg("Room deleted")
	w.WriteHeader(http.StatusNoContent)
}

type availabilitySlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type availabilityResponse struct {
	RoomID   int64              `json:"room_id"`
	Date     string             `json:"date"`
	OpensAt  string             `json:"opens_at"`
	ClosesAt string             `json:"closes_at"`
	Busy     []availabilitySlot `json:"busy"`
}

// GET /api/v1/rooms/{id}/availability?date=YYYY-MM-DD
//
// Returns the pending and approved bookings intersecting that day so the
// calendar can paint busy blocks.
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireUser(w, r) == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	dateParam := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateParam == "" {
		dateParam = time.Now().UTC().Format("2006-01-02")
	}
	day, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}

	room, err := queries.GetRoomByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to load room")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)

	bookings, err := queries.ListRoomBookingsForDay(r.Context(), dbq.ListRoomBookingsForDayParams{
		RoomID:   id,
		DayStart: dayStart,
		DayEnd:   dayEnd,
	})
	if err != nil {
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to load room bookings")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	busy := make([]availabilitySlot, 0, len(bookings))
	for _, b := range bookings {
		busy = append(busy, availabilitySlot{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Status:    b.Status,
		})
	}

	resp := availabilityResponse{
		RoomID:   room.ID,
		Date:     dateParam,
		OpensAt:  room.OpensAt,
		ClosesAt: room.ClosesAt,
		Busy:     busy,
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("room_id", id).Msg("Failed to write availability response")
	}
}

func validateRoomRequest(req roomRequest) (dbq.CreateRoomParams, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return dbq.CreateRoomParams{}, apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if req.Capacity <= 0 {
		return dbq.CreateRoomParams{}, apiutil.FieldError{Field: "capacity", Reason: "must be greater than zero"}
	}

	opensAt, err := apiutil.ParseClockValue(req.OpensAt, "opens_at")
	if err != nil {
		return dbq.CreateRoomParams{}, err
	}
	closesAt, err := apiutil.ParseClockValue(req.ClosesAt, "closes_at")
	if err != nil {
		return dbq.CreateRoomParams{}, err
	}
	if closesAt <= opensAt {
		return dbq.CreateRoomParams{}, apiutil.FieldError{Field: "closes_at", Reason: "must be after opens_at"}
	}

	return dbq.CreateRoomParams{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Capacity:    req.Capacity,
		Location:    strings.TrimSpace(req.Location),
		OpensAt:     opensAt,
		ClosesAt:    closesAt,
	}, nil
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
