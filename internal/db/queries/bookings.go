package queries

import (
	"context"
	"database/sql"
	"time"
)

const bookingColumns = `id, user_id, room_id, tour_id, start_time, end_time, status, purpose,
	attendees, proposal_key, decision_note, decided_by, created_at, updated_at`

func scanBookingRow(row *sql.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.UserID, &b.RoomID, &b.TourID, &b.StartTime, &b.EndTime, &b.Status,
		&b.Purpose, &b.Attendees, &b.ProposalKey, &b.DecisionNote, &b.DecidedBy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanBookings(rows *sql.Rows) ([]Booking, error) {
	defer rows.Close()
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.RoomID, &b.TourID, &b.StartTime, &b.EndTime, &b.Status,
			&b.Purpose, &b.Attendees, &b.ProposalKey, &b.DecisionNote, &b.DecidedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type CreateBookingParams struct {
	UserID    int64
	RoomID    sql.NullInt64
	TourID    sql.NullInt64
	StartTime time.Time
	EndTime   time.Time
	Purpose   string
	Attendees int64
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO bookings (user_id, room_id, tour_id, start_time, end_time, purpose, attendees)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, arg.UserID, arg.RoomID, arg.TourID, arg.StartTime, arg.EndTime, arg.Purpose, arg.Attendees)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, err
	}
	return q.GetBookingByID(ctx, id)
}

func (q *Queries) GetBookingByID(ctx context.Context, id int64) (Booking, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBookingRow(row)
}

type ListBookingsForUserParams struct {
	UserID int64
	Status string // empty matches all statuses
}

func (q *Queries) ListBookingsForUser(ctx context.Context, arg ListBookingsForUserParams) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ?`
	args := []any{arg.UserID}
	if arg.Status != "" {
		query += ` AND status = ?`
		args = append(args, arg.Status)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ListApprovedRoomBookingsOverlapping returns approved bookings on a room
// whose interval intersects [start, end). Touching intervals do not overlap.
type ListApprovedRoomBookingsOverlappingParams struct {
	RoomID           int64
	StartTime        time.Time
	EndTime          time.Time
	ExcludeBookingID int64
}

func (q *Queries) ListApprovedRoomBookingsOverlapping(ctx context.Context, arg ListApprovedRoomBookingsOverlappingParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE room_id = ?
			AND status = ?
			AND id != ?
			AND start_time < ?
			AND end_time > ?
		ORDER BY start_time ASC
	`, arg.RoomID, BookingStatusApproved, arg.ExcludeBookingID, arg.EndTime, arg.StartTime)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ListRoomBookingsForDay returns pending and approved bookings that intersect
// the given window, for the room availability view.
type ListRoomBookingsForDayParams struct {
	RoomID   int64
	DayStart time.Time
	DayEnd   time.Time
}

func (q *Queries) ListRoomBookingsForDay(ctx context.Context, arg ListRoomBookingsForDayParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE room_id = ?
			AND status IN (?, ?)
			AND start_time < ?
			AND end_time > ?
		ORDER BY start_time ASC
	`, arg.RoomID, BookingStatusPending, BookingStatusApproved, arg.DayEnd, arg.DayStart)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

type UpdateBookingParams struct {
	ID        int64
	StartTime time.Time
	EndTime   time.Time
	Purpose   string
	Attendees int64
}

func (q *Queries) UpdateBooking(ctx context.Context, arg UpdateBookingParams) (Booking, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE bookings
		SET start_time = ?, end_time = ?, purpose = ?, attendees = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, arg.StartTime, arg.EndTime, arg.Purpose, arg.Attendees, arg.ID)
	if err != nil {
		return Booking{}, err
	}
	return q.GetBookingByID(ctx, arg.ID)
}

type UpdateBookingStatusParams struct {
	ID           int64
	Status       string
	DecisionNote sql.NullString
	DecidedBy    sql.NullInt64
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) (Booking, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, decision_note = ?, decided_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, arg.Status, arg.DecisionNote, arg.DecidedBy, arg.ID)
	if err != nil {
		return Booking{}, err
	}
	return q.GetBookingByID(ctx, arg.ID)
}

type SetBookingProposalKeyParams struct {
	ID          int64
	ProposalKey sql.NullString
}

func (q *Queries) SetBookingProposalKey(ctx context.Context, arg SetBookingProposalKeyParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE bookings SET proposal_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, arg.ProposalKey, arg.ID)
	return err
}

// ListBookingsStartingBetween returns approved bookings starting inside
// [start, end), used by the reminder job.
type ListBookingsStartingBetweenParams struct {
	StartTime time.Time
	EndTime   time.Time
}

func (q *Queries) ListBookingsStartingBetween(ctx context.Context, arg ListBookingsStartingBetweenParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time ASC
	`, BookingStatusApproved, arg.StartTime, arg.EndTime)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// CompleteExpiredBookings marks approved bookings whose end time has passed
// as completed. Returns the number of bookings updated.
func (q *Queries) CompleteExpiredBookings(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE status = ? AND end_time <= ?
	`, BookingStatusCompleted, BookingStatusApproved, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type ListBookingReportRowsParams struct {
	StartTime time.Time
	EndTime   time.Time
	Status    string // empty matches all statuses
}

func (q *Queries) ListBookingReportRows(ctx context.Context, arg ListBookingReportRowsParams) ([]BookingReportRow, error) {
	query := `
		SELECT b.id, u.full_name, u.email,
			CASE WHEN b.room_id IS NOT NULL THEN 'room' ELSE 'tour' END,
			COALESCE(r.name, t.title, ''),
			b.start_time, b.end_time, b.status, b.attendees, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		LEFT JOIN rooms r ON r.id = b.room_id
		LEFT JOIN tours t ON t.id = b.tour_id
		WHERE b.start_time >= ? AND b.start_time < ?`
	args := []any{arg.StartTime, arg.EndTime}
	if arg.Status != "" {
		query += ` AND b.status = ?`
		args = append(args, arg.Status)
	}
	query += ` ORDER BY b.start_time ASC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []BookingReportRow
	for rows.Next() {
		var row BookingReportRow
		if err := rows.Scan(&row.BookingID, &row.UserName, &row.UserEmail, &row.ResourceType, &row.ResourceName,
			&row.StartTime, &row.EndTime, &row.Status, &row.Attendees, &row.CreatedAt); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
