// Package analyticsapi serves the admin dashboard aggregates.
package analyticsapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/analytics"
	"github.com/carrelhq/carrel/internal/api/apiutil"
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

type summaryResponse struct {
	Range struct {
		Preset string `json:"preset"`
		From   string `json:"from"`
		To     string `json:"to"`
	} `json:"range"`
	analytics.Summary
	NewUsers int64 `json:"new_users"`
}

type seriesResponse struct {
	ByDay     []analytics.DayCount   `json:"by_day"`
	ByMonth   []analytics.MonthCount `json:"by_month"`
	PeakHours []analytics.HourCount  `json:"peak_hours"`
}

type roomUtilization struct {
	RoomID      int64   `json:"room_id"`
	Name        string  `json:"name"`
	BookedHours float64 `json:"booked_hours"`
	OpenHours   float64 `json:"open_hours"`
	Utilization float64 `json:"utilization"`
}

type tourFill struct {
	TourID    int64   `json:"tour_id"`
	Title     string  `json:"title"`
	Capacity  int64   `json:"capacity"`
	Taken     int64   `json:"seats_taken"`
	FillRate  float64 `json:"fill_rate"`
	StartTime string  `json:"start_time"`
}

type usageResponse struct {
	Rooms    []roomUtilization         `json:"rooms"`
	Tours    []tourFill                `json:"tours"`
	Ranking  []analytics.ResourceUsage `json:"ranking"`
	TopUsers []analytics.TopUser       `json:"top_users"`
}

// GET /api/v1/admin/analytics/summary?range=last_30_days
func HandleSummary(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireAdmin(w, r) == nil {
		return
	}

	window, rows, ok := loadWindow(w, r)
	if !ok {
		return
	}

	newUsers, err := queries.ListUsersCreatedInRange(r.Context(), dbq.ListUsersCreatedInRangeParams{
		StartTime: window.Start,
		EndTime:   window.End,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count new users")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := summaryResponse{
		Summary:  analytics.Summarize(rows),
		NewUsers: int64(len(newUsers)),
	}
	resp.Range.Preset = window.Preset
	resp.Range.From = window.Start.Format("2006-01-02")
	resp.Range.To = window.End.AddDate(0, 0, -1).Format("2006-01-02")

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write summary response")
	}
}

// GET /api/v1/admin/analytics/series?range=this_month
//
// Returns the day, month, and hour series in one payload so the dashboard
// renders with a single request.
func HandleSeries(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireAdmin(w, r) == nil {
		return
	}

	window, rows, ok := loadWindow(w, r)
	if !ok {
		return
	}

	resp := seriesResponse{
		ByDay:     analytics.CountByDay(rows, window.Start, window.End),
		ByMonth:   analytics.CountByMonth(rows, window.Start, window.End),
		PeakHours: analytics.PeakHours(rows),
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write series response")
	}
}

const defaultTopUsers = 10

// GET /api/v1/admin/analytics/usage?range=last_30_days&limit=10
func HandleUsage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireAdmin(w, r) == nil {
		return
	}

	topLimit := int64(defaultTopUsers)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := apiutil.ParseIntField(raw, "limit")
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		topLimit = parsed
	}

	window, rows, ok := loadWindow(w, r)
	if !ok {
		return
	}

	rooms, err := queries.ListRooms(r.Context(), false)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list rooms")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Booked hours per room name from approved and completed bookings.
	bookedHours := make(map[string]float64)
	for _, row := range rows {
		if row.ResourceType != "room" {
			continue
		}
		if row.Status != dbq.BookingStatusApproved && row.Status != dbq.BookingStatusCompleted {
			continue
		}
		bookedHours[row.ResourceName] += row.EndTime.Sub(row.StartTime).Hours()
	}

	days := float64(window.Days())
	roomStats := make([]roomUtilization, 0, len(rooms))
	for _, room := range rooms {
		openPerDay, err := analytics.OpenHoursPerDay(room.OpensAt, room.ClosesAt)
		if err != nil {
			logger.Warn().Err(err).Int64("room_id", room.ID).Msg("Skipping room with invalid hours")
			continue
		}
		open := openPerDay * days
		booked := bookedHours[room.Name]
		roomStats = append(roomStats, roomUtilization{
			RoomID:      room.ID,
			Name:        room.Name,
			BookedHours: booked,
			OpenHours:   open,
			Utilization: analytics.Utilization(booked, open),
		})
	}

	tours, err := queries.ListTours(r.Context(), dbq.ListToursParams{StartingAfter: window.Start, ActiveOnly: false})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list tours")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tourStats := make([]tourFill, 0, len(tours))
	for _, tour := range tours {
		if !tour.StartTime.Before(window.End) {
			continue
		}
		taken, err := queries.SumTourAttendees(r.Context(), tour.ID)
		if err != nil {
			logger.Error().Err(err).Int64("tour_id", tour.ID).Msg("Failed to sum tour attendees")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		tourStats = append(tourStats, tourFill{
			TourID:    tour.ID,
			Title:     tour.Title,
			Capacity:  tour.Capacity,
			Taken:     taken,
			FillRate:  analytics.FillRate(taken, tour.Capacity),
			StartTime: tour.StartTime.UTC().Format(time.RFC3339),
		})
	}

	resp := usageResponse{
		Rooms:    roomStats,
		Tours:    tourStats,
		Ranking:  analytics.ResourceUsageRanking(rows),
		TopUsers: analytics.TopUsers(rows, int(topLimit)),
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write usage response")
	}
}

// loadWindow resolves the requested reporting range and fetches its booking
// rows. On failure it writes the response and returns ok=false.
func loadWindow(w http.ResponseWriter, r *http.Request) (analytics.Range, []analytics.Row, bool) {
	logger := log.Ctx(r.Context())

	query := r.URL.Query()
	window, err := analytics.ResolveRange(query.Get("range"), query.Get("from"), query.Get("to"), time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return analytics.Range{}, nil, false
	}

	reportRows, err := queries.ListBookingReportRows(r.Context(), dbq.ListBookingReportRowsParams{
		StartTime: window.Start,
		EndTime:   window.End,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load bookings for analytics")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return analytics.Range{}, nil, false
	}

	rows := make([]analytics.Row, 0, len(reportRows))
	for _, row := range reportRows {
		rows = append(rows, analytics.Row{
			UserName:     row.UserName,
			UserEmail:    row.UserEmail,
			ResourceType: row.ResourceType,
			ResourceName: row.ResourceName,
			StartTime:    row.StartTime,
			EndTime:      row.EndTime,
			Status:       row.Status,
			Attendees:    row.Attendees,
		})
	}

	return window, rows, true
}
