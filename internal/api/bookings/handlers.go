// Package bookings implements reservation requests against rooms and tours,
// the member booking lifecycle, and the admin review queue.
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/api/apiutil"
	"github.com/carrelhq/carrel/internal/api/authz"
	"github.com/carrelhq/carrel/internal/db"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/email"
	"github.com/carrelhq/carrel/internal/storage"
)

var (
	database *db.DB
	queries  *dbq.Queries
	sender   email.EmailSender
	store    *storage.Store
	initOnce sync.Once
)

// minRoomBookingDuration is the shortest room slot a member can reserve.
const minRoomBookingDuration = 30 * time.Minute

// ErrBookingConflict marks a room time conflict so handlers can answer 409.
var ErrBookingConflict = errors.New("booking conflicts with an approved reservation")

// ErrTourFull marks a sold-out tour.
var ErrTourFull = errors.New("tour does not have enough seats remaining")

func InitHandlers(d *db.DB, emailSender email.EmailSender, objectStore *storage.Store) {
	initOnce.Do(func() {
		database = d
		if d != nil {
			queries = d.Queries
		}
		sender = emailSender
		store = objectStore
	})
}

type createBookingRequest struct {
	RoomID    int64     `json:"room_id,omitempty"`
	TourID    int64     `json:"tour_id,omitempty"`
	StartTime time.Time `json:"start_time,omitzero"`
	EndTime   time.Time `json:"end_time,omitzero"`
	Purpose   string    `json:"purpose"`
	Attendees int64     `json:"attendees"`
}

type updateBookingRequest struct {
	StartTime time.Time `json:"start_time,omitzero"`
	EndTime   time.Time `json:"end_time,omitzero"`
	Purpose   string    `json:"purpose"`
	Attendees int64     `json:"attendees"`
}

type decisionRequest struct {
	Note string `json:"note"`
}

// POST /api/v1/bookings
//
// Creates a pending reservation against exactly one room or tour. Room
// requests are checked against approved bookings inside a transaction so two
// concurrent approvals cannot both land on the same slot.
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if (req.RoomID > 0) == (req.TourID > 0) {
		http.Error(w, "Exactly one of room_id or tour_id is required", http.StatusBadRequest)
		return
	}
	if req.Attendees <= 0 {
		http.Error(w, "attendees must be greater than zero", http.StatusBadRequest)
		return
	}

	var booking dbq.Booking
	var txErr error
	if req.RoomID > 0 {
		txErr = database.RunInTx(r.Context(), func(tx *db.DB) error {
			var err error
			booking, err = createRoomBooking(r.Context(), tx.Queries, user.ID, req)
			return err
		})
	} else {
		txErr = database.RunInTx(r.Context(), func(tx *db.DB) error {
			var err error
			booking, err = createTourBooking(r.Context(), tx.Queries, user.ID, req)
			return err
		})
	}
	if txErr != nil {
		writeBookingError(w, logger, txErr, "Failed to create booking")
		return
	}

	notifyBooking(r.Context(), booking, email.BuildSubmittedEmail)

	logger.Info().Int64("booking_id", booking.ID).Int64("user_id", user.ID).Msg("Booking created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, booking); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to write booking response")
	}
}

// GET /api/v1/bookings
func HandleListMine(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !isKnownStatus(status) {
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return
	}

	bookings, err := queries.ListBookingsForUser(r.Context(), dbq.ListBookingsForUserParams{
		UserID: user.ID,
		Status: status,
	})
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list bookings")
		http.Error(w, "Failed to list bookings", http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []dbq.Booking{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, bookings); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write bookings response")
	}
}

// GET /api/v1/bookings/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	booking, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, booking); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to write booking response")
	}
}

// PUT /api/v1/bookings/{id}
//
// Members may edit time, purpose, and attendees while the request is still
// pending. Edits rerun the same validation as creation.
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	booking, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}
	if booking.Status != dbq.BookingStatusPending {
		http.Error(w, "Only pending bookings can be edited", http.StatusConflict)
		return
	}

	var req updateBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Attendees <= 0 {
		http.Error(w, "attendees must be greater than zero", http.StatusBadRequest)
		return
	}

	var updated dbq.Booking
	txErr := database.RunInTx(r.Context(), func(tx *db.DB) error {
		var err error
		updated, err = applyBookingUpdate(r.Context(), tx.Queries, booking, req)
		return err
	})
	if txErr != nil {
		writeBookingError(w, logger, txErr, "Failed to update booking")
		return
	}

	logger.Info().Int64("booking_id", updated.ID).Msg("Booking updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Int64("booking_id", updated.ID).Msg("Failed to write booking response")
	}
}

// POST /api/v1/bookings/{id}/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	booking, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}
	if booking.Status != dbq.BookingStatusPending && booking.Status != dbq.BookingStatusApproved {
		http.Error(w, "Only pending or approved bookings can be cancelled", http.StatusConflict)
		return
	}

	cancelled, err := queries.UpdateBookingStatus(r.Context(), dbq.UpdateBookingStatusParams{
		ID:     booking.ID,
		Status: dbq.BookingStatusCancelled,
	})
	if err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to cancel booking")
		http.Error(w, "Failed to cancel booking", http.StatusInternalServerError)
		return
	}

	notifyBooking(r.Context(), cancelled, email.BuildCancelledEmail)

	logger.Info().Int64("booking_id", booking.ID).Msg("Booking cancelled")
	if err := apiutil.WriteJSON(w, http.StatusOK, cancelled); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to write booking response")
	}
}

// GET /api/v1/admin/bookings?from=YYYY-MM-DD&to=YYYY-MM-DD&status=
//
// Admin review queue. Returns joined report rows so the dashboard can show
// who booked what without extra lookups.
func HandleAdminList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if apiutil.RequireAdmin(w, r) == nil {
		return
	}

	from, to, err := parseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !isKnownStatus(status) {
		http.Error(w, "Unknown status filter", http.StatusBadRequest)
		return
	}

	rows, err := queries.ListBookingReportRows(r.Context(), dbq.ListBookingReportRowsParams{
		StartTime: from,
		EndTime:   to,
		Status:    status,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list bookings for review")
		http.Error(w, "Failed to list bookings", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []dbq.BookingReportRow{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, rows); err != nil {
		logger.Error().Err(err).Msg("Failed to write bookings response")
	}
}

// POST /api/v1/admin/bookings/{id}/approve
//
// Approval re-checks room conflicts inside the transaction; of two pending
// requests on the same slot only the first approval wins.
func HandleApprove(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid booking ID", http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	var approved dbq.Booking
	txErr := database.RunInTx(r.Context(), func(tx *db.DB) error {
		booking, err := tx.Queries.GetBookingByID(r.Context(), id)
		if err != nil {
			return err
		}
		if booking.Status != dbq.BookingStatusPending {
			return apiutil.HandlerError{Status: http.StatusConflict, Message: "Only pending bookings can be approved"}
		}

		if booking.RoomID.Valid {
			conflicts, err := tx.Queries.ListApprovedRoomBookingsOverlapping(r.Context(), dbq.ListApprovedRoomBookingsOverlappingParams{
				RoomID:           booking.RoomID.Int64,
				StartTime:        booking.StartTime,
				EndTime:          booking.EndTime,
				ExcludeBookingID: booking.ID,
			})
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return ErrBookingConflict
			}
		} else if booking.TourID.Valid {
			// The pending booking's seats already count in the sum, so no
			// additional seats are requested here.
			if err := checkTourCapacity(r.Context(), tx.Queries, booking.TourID.Int64, 0); err != nil {
				return err
			}
		}

		approved, err = tx.Queries.UpdateBookingStatus(r.Context(), dbq.UpdateBookingStatusParams{
			ID:           booking.ID,
			Status:       dbq.BookingStatusApproved,
			DecisionNote: nullString(req.Note),
			DecidedBy:    sql.NullInt64{Int64: admin.ID, Valid: true},
		})
		return err
	})
	if txErr != nil {
		writeBookingError(w, logger, txErr, "Failed to approve booking")
		return
	}

	notifyBooking(r.Context(), approved, email.BuildApprovedEmail)

	logger.Info().Int64("booking_id", id).Int64("admin_id", admin.ID).Msg("Booking approved")
	if err := apiutil.WriteJSON(w, http.StatusOK, approved); err != nil {
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to write booking response")
	}
}

// POST /api/v1/admin/bookings/{id}/reject
func HandleReject(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	admin := apiutil.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid booking ID", http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Note) == "" {
		http.Error(w, "A rejection note is required", http.StatusBadRequest)
		return
	}

	booking, err := queries.GetBookingByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to load booking")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if booking.Status != dbq.BookingStatusPending {
		http.Error(w, "Only pending bookings can be rejected", http.StatusConflict)
		return
	}

	rejected, err := queries.UpdateBookingStatus(r.Context(), dbq.UpdateBookingStatusParams{
		ID:           id,
		Status:       dbq.BookingStatusRejected,
		DecisionNote: nullString(req.Note),
		DecidedBy:    sql.NullInt64{Int64: admin.ID, Valid: true},
	})
	if err != nil {
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to reject booking")
		http.Error(w, "Failed to reject booking", http.StatusInternalServerError)
		return
	}

	notifyBooking(r.Context(), rejected, email.BuildRejectedEmail)

	logger.Info().Int64("booking_id", id).Int64("admin_id", admin.ID).Msg("Booking rejected")
	if err := apiutil.WriteJSON(w, http.StatusOK, rejected); err != nil {
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to write booking response")
	}
}

func createRoomBooking(ctx context.Context, q *dbq.Queries, userID int64, req createBookingRequest) (dbq.Booking, error) {
	room, err := q.GetRoomByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbq.Booking{}, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Room not found"}
		}
		return dbq.Booking{}, err
	}
	if !room.IsActive {
		return dbq.Booking{}, apiutil.HandlerError{Status: http.StatusConflict, Message: "Room is not available for booking"}
	}

	if err := validateRoomWindow(room, req.StartTime, req.EndTime, req.Attendees); err != nil {
		return dbq.Booking{}, err
	}

	conflicts, err := q.ListApprovedRoomBookingsOverlapping(ctx, dbq.ListApprovedRoomBookingsOverlappingParams{
		RoomID:    room.ID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
	})
	if err != nil {
		return dbq.Booking{}, err
	}
	if len(conflicts) > 0 {
		return dbq.Booking{}, ErrBookingConflict
	}

	return q.CreateBooking(ctx, dbq.CreateBookingParams{
		UserID:    userID,
		RoomID:    sql.NullInt64{Int64: room.ID, Valid: true},
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Purpose:   strings.TrimSpace(req.Purpose),
		Attendees: req.Attendees,
	})
}

func createTourBooking(ctx context.Context, q *dbq.Queries, userID int64, req createBookingRequest) (dbq.Booking, error) {
	tour, err := q.GetTourByID(ctx, req.TourID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbq.Booking{}, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Tour not found"}
		}
		return dbq.Booking{}, err
	}
	if !tour.IsActive {
		return dbq.Booking{}, apiutil.HandlerError{Status: http.StatusConflict, Message: "Tour is not open for booking"}
	}
	if !tour.StartTime.After(time.Now()) {
		return dbq.Booking{}, apiutil.HandlerError{Status: http.StatusConflict, Message: "Tour has already started"}
	}

	if err := checkTourCapacity(ctx, q, tour.ID, req.Attendees); err != nil {
		return dbq.Booking{}, err
	}

	// Tour bookings take their window from the tour itself.
	start := tour.StartTime
	end := tour.StartTime.Add(time.Duration(tour.DurationMinutes) * time.Minute)

	return q.CreateBooking(ctx, dbq.CreateBookingParams{
		UserID:    userID,
		TourID:    sql.NullInt64{Int64: tour.ID, Valid: true},
		StartTime: start,
		EndTime:   end,
		Purpose:   strings.TrimSpace(req.Purpose),
		Attendees: req.Attendees,
	})
}

func applyBookingUpdate(ctx context.Context, q *dbq.Queries, booking dbq.Booking, req updateBookingRequest) (dbq.Booking, error) {
	startTime := booking.StartTime
	endTime := booking.EndTime

	if booking.RoomID.Valid {
		if !req.StartTime.IsZero() {
			startTime = req.StartTime.UTC()
		}
		if !req.EndTime.IsZero() {
			endTime = req.EndTime.UTC()
		}

		room, err := q.GetRoomByID(ctx, booking.RoomID.Int64)
		if err != nil {
			return dbq.Booking{}, err
		}
		if err := validateRoomWindow(room, startTime, endTime, req.Attendees); err != nil {
			return dbq.Booking{}, err
		}

		conflicts, err := q.ListApprovedRoomBookingsOverlapping(ctx, dbq.ListApprovedRoomBookingsOverlappingParams{
			RoomID:           room.ID,
			StartTime:        startTime,
			EndTime:          endTime,
			ExcludeBookingID: booking.ID,
		})
		if err != nil {
			return dbq.Booking{}, err
		}
		if len(conflicts) > 0 {
			return dbq.Booking{}, ErrBookingConflict
		}
	} else if booking.TourID.Valid {
		// Tour times are fixed; only attendees and purpose can change.
		if !req.StartTime.IsZero() || !req.EndTime.IsZero() {
			return dbq.Booking{}, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Tour booking times cannot be changed"}
		}
		if req.Attendees != booking.Attendees {
			if err := checkTourCapacity(ctx, q, booking.TourID.Int64, req.Attendees-booking.Attendees); err != nil {
				return dbq.Booking{}, err
			}
		}
	}

	return q.UpdateBooking(ctx, dbq.UpdateBookingParams{
		ID:        booking.ID,
		StartTime: startTime,
		EndTime:   endTime,
		Purpose:   strings.TrimSpace(req.Purpose),
		Attendees: req.Attendees,
	})
}

// validateRoomWindow enforces ordering, capacity, future start, and the
// room's opening hours. Timestamps are compared in UTC.
func validateRoomWindow(room dbq.Room, start, end time.Time, attendees int64) error {
	if start.IsZero() || end.IsZero() {
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "start_time and end_time are required"}
	}
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "end_time must be after start_time"}
	}
	if end.Sub(start) < minRoomBookingDuration {
		return apiutil.HandlerError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Room bookings must be at least %d minutes", int(minRoomBookingDuration.Minutes())),
		}
	}
	if start.Before(time.Now().UTC()) {
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Bookings cannot start in the past"}
	}
	if attendees > room.Capacity {
		return apiutil.HandlerError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("attendees exceeds room capacity of %d", room.Capacity),
		}
	}
	if start.Format("2006-01-02") != end.Format("2006-01-02") {
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Bookings cannot span multiple days"}
	}
	if start.Format("15:04") < room.OpensAt || end.Format("15:04") > room.ClosesAt {
		return apiutil.HandlerError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Booking must fall within room hours %s-%s", room.OpensAt, room.ClosesAt),
		}
	}
	return nil
}

// checkTourCapacity verifies that additional seats fit within the tour's
// capacity. Pending and approved bookings both count against capacity.
func checkTourCapacity(ctx context.Context, q *dbq.Queries, tourID, additional int64) error {
	tour, err := q.GetTourByID(ctx, tourID)
	if err != nil {
		return err
	}
	taken, err := q.SumTourAttendees(ctx, tourID)
	if err != nil {
		return err
	}
	if additional > 0 && taken+additional > tour.Capacity {
		return ErrTourFull
	}
	return nil
}

// loadOwnedBooking resolves {id} and enforces owner-or-admin access. On
// failure it writes the response and returns ok=false.
func loadOwnedBooking(w http.ResponseWriter, r *http.Request) (dbq.Booking, bool) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return dbq.Booking{}, false
	}

	id, err := apiutil.IDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid booking ID", http.StatusBadRequest)
		return dbq.Booking{}, false
	}

	booking, err := queries.GetBookingByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return dbq.Booking{}, false
		}
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to load booking")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return dbq.Booking{}, false
	}

	if err := authz.RequireOwnerOrAdmin(r.Context(), booking.UserID); err != nil {
		logger.Warn().Int64("booking_id", id).Int64("user_id", user.ID).Msg("Booking access denied")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return dbq.Booking{}, false
	}

	return booking, true
}

func writeBookingError(w http.ResponseWriter, logger *zerolog.Logger, err error, fallback string) {
	var handlerErr apiutil.HandlerError
	switch {
	case errors.Is(err, ErrBookingConflict):
		http.Error(w, "The requested time conflicts with an approved reservation", http.StatusConflict)
	case errors.Is(err, ErrTourFull):
		http.Error(w, "The tour does not have enough seats remaining", http.StatusConflict)
	case errors.As(err, &handlerErr):
		http.Error(w, handlerErr.Message, handlerErr.Status)
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "Booking not found", http.StatusNotFound)
	default:
		logger.Error().Err(err).Msg(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

// notifyBooking resolves the booked resource name and fires the async email.
func notifyBooking(ctx context.Context, booking dbq.Booking, build func(email.BookingDetails) email.Message) {
	if sender == nil || queries == nil {
		return
	}

	details := email.BookingDetails{
		Purpose:      booking.Purpose,
		Attendees:    booking.Attendees,
		DecisionNote: booking.DecisionNote.String,
	}
	details.Date, details.TimeRange = email.FormatDateTimeRange(booking.StartTime, booking.EndTime)

	switch {
	case booking.RoomID.Valid:
		details.ResourceType = "room"
		if room, err := queries.GetRoomByID(ctx, booking.RoomID.Int64); err == nil {
			details.ResourceName = room.Name
		}
	case booking.TourID.Valid:
		details.ResourceType = "tour"
		if tour, err := queries.GetTourByID(ctx, booking.TourID.Int64); err == nil {
			details.ResourceName = tour.Title
		}
	}

	logger := log.Ctx(ctx)
	email.SendBookingEmail(ctx, queries, sender, booking.UserID, build(details), logger)
}

func isKnownStatus(status string) bool {
	switch status {
	case dbq.BookingStatusPending, dbq.BookingStatusApproved, dbq.BookingStatusRejected,
		dbq.BookingStatusCancelled, dbq.BookingStatusCompleted:
		return true
	}
	return false
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

// parseDateRange parses from/to query values, defaulting to the last 30 days
// ending tomorrow. The to date is exclusive.
func parseDateRange(fromParam, toParam string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	if v := strings.TrimSpace(fromParam); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be in YYYY-MM-DD format")
		}
		from = parsed
	}
	if v := strings.TrimSpace(toParam); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be in YYYY-MM-DD format")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}
