package queries_test

import (
	"database/sql"
	"testing"
	"time"

	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/testutil"
)

func seedUserAndRoom(t *testing.T, q *dbq.Queries) (dbq.User, dbq.Room) {
	t.Helper()
	ctx := t.Context()

	user, err := q.CreateUser(ctx, dbq.CreateUserParams{
		Email:        "member@example.com",
		PasswordHash: "x",
		FullName:     "Member",
		Role:         dbq.RoleMember,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	room, err := q.CreateRoom(ctx, dbq.CreateRoomParams{
		Name:     "Study Room A",
		Capacity: 8,
		OpensAt:  "00:00",
		ClosesAt: "23:59",
	})
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return user, room
}

func seedBookingAt(t *testing.T, q *dbq.Queries, userID, roomID int64, start, end time.Time, status string) dbq.Booking {
	t.Helper()
	ctx := t.Context()

	booking, err := q.CreateBooking(ctx, dbq.CreateBookingParams{
		UserID:    userID,
		RoomID:    sql.NullInt64{Int64: roomID, Valid: true},
		StartTime: start,
		EndTime:   end,
		Attendees: 2,
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if status != dbq.BookingStatusPending {
		if booking, err = q.UpdateBookingStatus(ctx, dbq.UpdateBookingStatusParams{ID: booking.ID, Status: status}); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}
	return booking
}

func TestCompleteExpiredBookings(t *testing.T) {
	database := testutil.NewTestDB(t)
	q := database.Queries
	ctx := t.Context()

	now := time.Now().UTC()
	user, room := seedUserAndRoom(t, q)

	expired := seedBookingAt(t, q, user.ID, room.ID, now.Add(-3*time.Hour), now.Add(-2*time.Hour), dbq.BookingStatusApproved)
	boundary := seedBookingAt(t, q, user.ID, room.ID, now.Add(-time.Hour), now, dbq.BookingStatusApproved)
	running := seedBookingAt(t, q, user.ID, room.ID, now.Add(-time.Hour), now.Add(time.Hour), dbq.BookingStatusApproved)
	pendingPast := seedBookingAt(t, q, user.ID, room.ID, now.Add(-5*time.Hour), now.Add(-4*time.Hour), dbq.BookingStatusPending)
	cancelledPast := seedBookingAt(t, q, user.ID, room.ID, now.Add(-7*time.Hour), now.Add(-6*time.Hour), dbq.BookingStatusCancelled)

	updated, err := q.CompleteExpiredBookings(ctx, now)
	if err != nil {
		t.Fatalf("CompleteExpiredBookings: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2 (expired and boundary)", updated)
	}

	wantStatuses := map[int64]string{
		expired.ID:       dbq.BookingStatusCompleted,
		boundary.ID:      dbq.BookingStatusCompleted,
		running.ID:       dbq.BookingStatusApproved,
		pendingPast.ID:   dbq.BookingStatusPending,
		cancelledPast.ID: dbq.BookingStatusCancelled,
	}
	for id, want := range wantStatuses {
		booking, err := q.GetBookingByID(ctx, id)
		if err != nil {
			t.Fatalf("load booking %d: %v", id, err)
		}
		if booking.Status != want {
			t.Errorf("booking %d status = %q, want %q", id, booking.Status, want)
		}
	}
}

func TestListBookingsStartingBetween(t *testing.T) {
	database := testutil.NewTestDB(t)
	q := database.Queries
	ctx := t.Context()

	user, room := seedUserAndRoom(t, q)

	windowStart := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(15 * time.Minute)

	atStart := seedBookingAt(t, q, user.ID, room.ID, windowStart, windowStart.Add(time.Hour), dbq.BookingStatusApproved)
	inside := seedBookingAt(t, q, user.ID, room.ID, windowStart.Add(10*time.Minute), windowStart.Add(2*time.Hour), dbq.BookingStatusApproved)
	seedBookingAt(t, q, user.ID, room.ID, windowEnd, windowEnd.Add(time.Hour), dbq.BookingStatusApproved)
	seedBookingAt(t, q, user.ID, room.ID, windowStart.Add(-time.Hour), windowStart.Add(time.Hour), dbq.BookingStatusApproved)
	seedBookingAt(t, q, user.ID, room.ID, windowStart.Add(5*time.Minute), windowStart.Add(time.Hour), dbq.BookingStatusPending)

	bookings, err := q.ListBookingsStartingBetween(ctx, dbq.ListBookingsStartingBetweenParams{
		StartTime: windowStart,
		EndTime:   windowEnd,
	})
	if err != nil {
		t.Fatalf("ListBookingsStartingBetween: %v", err)
	}

	if len(bookings) != 2 {
		t.Fatalf("len(bookings) = %d, want 2 (window start inclusive, end exclusive, approved only)", len(bookings))
	}
	if bookings[0].ID != atStart.ID || bookings[1].ID != inside.ID {
		t.Errorf("booking IDs = %d, %d, want %d, %d", bookings[0].ID, bookings[1].ID, atStart.ID, inside.ID)
	}
}
