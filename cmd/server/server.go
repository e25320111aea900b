// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/carrelhq/carrel/internal/api"
	"github.com/carrelhq/carrel/internal/api/analyticsapi"
	"github.com/carrelhq/carrel/internal/api/auth"
	"github.com/carrelhq/carrel/internal/api/bookings"
	"github.com/carrelhq/carrel/internal/api/exports"
	"github.com/carrelhq/carrel/internal/api/profiles"
	"github.com/carrelhq/carrel/internal/api/rooms"
	"github.com/carrelhq/carrel/internal/api/tours"
	"github.com/carrelhq/carrel/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithAuth,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", auth.HandleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.HandleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", auth.HandleMe)

	// Profile
	mux.HandleFunc("GET /api/v1/profile", profiles.HandleGet)
	mux.HandleFunc("PUT /api/v1/profile", profiles.HandleUpdate)
	mux.HandleFunc("POST /api/v1/profile/avatar", profiles.HandleUploadAvatar)
	mux.HandleFunc("GET /api/v1/profile/avatar", profiles.HandleGetAvatar)

	// Rooms
	mux.HandleFunc("GET /api/v1/rooms", rooms.HandleList)
	mux.HandleFunc("GET /api/v1/rooms/{id}", rooms.HandleGet)
	mux.HandleFunc("GET /api/v1/rooms/{id}/availability", rooms.HandleAvailability)

	// Tours
	mux.HandleFunc("GET /api/v1/tours", tours.HandleList)
	mux.HandleFunc("GET /api/v1/tours/{id}", tours.HandleGet)

	// Bookings
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleCreate)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleListMine)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.HandleGet)
	mux.HandleFunc("PUT /api/v1/bookings/{id}", bookings.HandleUpdate)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookings.HandleCancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/proposal", bookings.HandleUploadProposal)
	mux.HandleFunc("GET /api/v1/bookings/{id}/proposal", bookings.HandleDownloadProposal)

	// Admin: resource management
	mux.HandleFunc("POST /api/v1/admin/rooms", rooms.HandleCreate)
	mux.HandleFunc("PUT /api/v1/admin/rooms/{id}", rooms.HandleUpdate)
	mux.HandleFunc("DELETE /api/v1/admin/rooms/{id}", rooms.HandleDelete)
	mux.HandleFunc("POST /api/v1/admin/tours", tours.HandleCreate)
	mux.HandleFunc("PUT /api/v1/admin/tours/{id}", tours.HandleUpdate)
	mux.HandleFunc("DELETE /api/v1/admin/tours/{id}", tours.HandleDelete)

	// Admin: review queue
	mux.HandleFunc("GET /api/v1/admin/bookings", bookings.HandleAdminList)
	mux.HandleFunc("POST /api/v1/admin/bookings/{id}/approve", bookings.HandleApprove)
	mux.HandleFunc("POST /api/v1/admin/bookings/{id}/reject", bookings.HandleReject)

	// Admin: analytics and exports
	mux.HandleFunc("GET /api/v1/admin/analytics/summary", analyticsapi.HandleSummary)
	mux.HandleFunc("GET /api/v1/admin/analytics/series", analyticsapi.HandleSeries)
	mux.HandleFunc("GET /api/v1/admin/analytics/usage", analyticsapi.HandleUsage)
	mux.HandleFunc("GET /api/v1/admin/exports/bookings.csv", exports.HandleCSV)
	mux.HandleFunc("GET /api/v1/admin/exports/bookings.xlsx", exports.HandleExcel)
	mux.HandleFunc("GET /api/v1/admin/exports/bookings.pdf", exports.HandlePDF)
}
