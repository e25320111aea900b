// Package tours exposes guided tour management and seat availability.
package tours

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

type tourRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	GuideName       string    `json:"guide_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	Capacity        int64     `json:"capacity"`
	IsActive        *bool     `json:"is_active,omitempty"`
}

type tourResponse struct {
	dbq.Tour
	SeatsTaken     int64 `json:"seats_taken"`
	SeatsRemaining int64 `json:"seats_remaining"`
}

// GET /api/v1/tours
//
// Lists upcoming tours with remaining seat counts. Past tours are omitted
// unless include_past=1.
func HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	startingAfter := time.Now()
	if apiutil.ParseBoolField(r.URL.Query().Get("include_past")) {
		startingAfter = time.Time{}
	}
	// Inactive tours stay hidden from members even when requested.
	activeOnly := true
	if authz.IsAdmin(user) && apiutil.ParseBoolField(r.URL.Query().Get("include_inactive")) {
		activeOnly = false
	}

	tours, err := queries.ListTours(r.Context(), dbq.ListToursParams{
		StartingAfter: startingAfter,
		ActiveOnly:    activeOnly,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list tours")
		http.Error(w, "Failed to list tours", http.StatusInternalServerError)
		return
	}

	resp := make([]tourResponse, 0, len(tours))
	for _, tour := range tours {
		taken, err := queries.SumTourAttendees(r.Context(), tour.ID)
		if err != nil {
			logger.Error().Err(err).Int64("tour_id", tour.ID).Msg("Failed to sum tour attendees")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		resp = append(resp, buildTourResponse(tour, taken))
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write tours response")
	}
}

// GET /api/v1/tours/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireUser(w, r) == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid tour ID", http.StatusBadRequest)
		return
	}

	tour, err := queries.GetTourByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tour not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to load tour")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	taken, err := queries.SumTourAttendees(r.Context(), tour.ID)
	if err != nil {
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to sum tour attendees")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, buildTourResponse(tour, taken)); err != nil {
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to write tour response")
	}
}

// POST /api/v1/admin/tours
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	var req tourRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := validateTourRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tour, err := queries.CreateTour(r.Context(), params)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create tour")
		http.Error(w, "Failed to create tour", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("tour_id", tour.ID).Int64("admin_id", admin.ID).Msg("Tour created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, buildTourResponse(tour, 0)); err != nil {
		logger.Error().Err(err).Int64("tour_id", tour.ID).Msg("Failed to write tour response")
	}
}

// PUT /api/v1/admin/tours/{id}
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid tour ID", http.StatusBadRequest)
		return
	}

	existing, err := queries.GetTourByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tour not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to load tour")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req tourRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := validateTourRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Shrinking capacity below seats already claimed would oversell the tour.
	taken, err := queries.SumTourAttendees(r.Context(), id)
	if err != nil {
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to sum tour attendees")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if params.Capacity < taken {
		http.Error(w, "Capacity cannot be lower than seats already booked", http.StatusConflict)
		return
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tour, err := queries.UpdateTour(r.Context(), dbq.UpdateTourParams{
		ID:              id,
		Title:           params.Title,
		Description:     params.Description,
		GuideName:       params.GuideName,
		StartTime:       params.StartTime,
		DurationMinutes: params.DurationMinutes,
		Capacity:        params.Capacity,
		IsActive:        isActive,
	})
	if err != nil {
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to update tour")
		http.Error(w, "Failed to update tour", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("tour_id", id).Int64("admin_id", admin.ID).Msg("Tour updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, buildTourResponse(tour, taken)); err != nil {
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to write tour response")
	}
}

// DELETE /api/v1/admin/tours/{id}
func HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid tour ID", http.StatusBadRequest)
		return
	}

	affected, err := queries.DeleteTour(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			tour, getErr := queries.GetTourByID(r.Context(), id)
			if getErr != nil {
				logger.Error().Err(getErr).Int64("tour_id", id).Msg("Failed to load tour")
				http.Error(w, "Failed to delete tour", http.StatusInternalServerError)
				return
			}
			if _, err := queries.UpdateTour(r.Context(), dbq.UpdateTourParams{
				ID:              id,
				Title:           tour.Title,
				Description:     tour.Description,
				GuideName:       tour.GuideName,
				StartTime:       tour.StartTime,
				DurationMinutes: tour.DurationMinutes,
				Capacity:        tour.Capacity,
				IsActive:        false,
			}); err != nil {
				logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to deactivate tour")
				http.Error(w, "Failed to delete tour", http.StatusInternalServerError)
				return
			}
			logger.Info().Int64("tour_id", id).Int64("admin_id", admin.ID).Msg("Tour deactivated instead of deleted")
			if err := apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"}); err != nil {
				logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to write tour response")
			}
			return
		}
		logger.Error().Err(err).Int64("tour_id", id).Msg("Failed to delete tour")
		http.Error(w, "Failed to delete tour", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.Error(w, "Tour not found", http.StatusNotFound)
		return
	}

	logger.Info().Int64("tour_id", id).Int64("admin_id", admin.ID).Msg("Tour deleted")
	w.WriteHeader(http.StatusNoContent)
}

func buildTourResponse(tour dbq.Tour, taken int64) tourResponse {
	remaining := tour.Capacity - taken
	if remaining < 0 {
		remaining = 0
	}
	return tourResponse{Tour: tour, SeatsTaken: taken, SeatsRemaining: remaining}
}

func validateTourRequest(req tourRequest) (dbq.CreateTourParams, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return dbq.CreateTourParams{}, apiutil.FieldError{Field: "title", Reason: "is required"}
	}
	if req.StartTime.IsZero() {
		return dbq.CreateTourParams{}, apiutil.FieldError{Field: "start_time", Reason: "is required"}
	}
	if req.DurationMinutes <= 0 {
		return dbq.CreateTourParams{}, apiutil.FieldError{Field: "duration_minutes", Reason: "must be greater than zero"}
	}
	if req.Capacity <= 0 {
		return dbq.CreateTourParams{}, apiutil.FieldError{Field: "capacity", Reason: "must be greater than zero"}
	}

	return dbq.CreateTourParams{
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		GuideName:       strings.TrimSpace(req.GuideName),
		StartTime:       req.StartTime.UTC(),
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
	}, nil
}
