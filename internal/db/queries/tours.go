package queries

import (
	"context"
	"database/sql"
	"time"
)

const tourColumns = `id, title, description, guide_name, start_time, duration_minutes, capacity, is_active, created_at, updated_at`

func scanTour(row *sql.Row) (Tour, error) {
	var t Tour
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.GuideName, &t.StartTime, &t.DurationMinutes, &t.Capacity, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateTourParams struct {
	Title           string
	Description     string
	GuideName       string
	StartTime       time.Time
	DurationMinutes int64
	Capacity        int64
}

func (q *Queries) CreateTour(ctx context.Context, arg CreateTourParams) (Tour, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO tours (title, description, guide_name, start_time, duration_minutes, capacity)
		VALUES (?, ?, ?, ?, ?, ?)
	`, arg.Title, arg.Description, arg.GuideName, arg.StartTime, arg.DurationMinutes, arg.Capacity)
	if err != nil {
		return Tour{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Tour{}, err
	}
	return q.GetTourByID(ctx, id)
}

func (q *Queries) GetTourByID(ctx context.Context, id int64) (Tour, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = ?`, id)
	return scanTour(row)
}

type ListToursParams struct {
	StartingAfter time.Time
	ActiveOnly    bool
}

func (q *Queries) ListTours(ctx context.Context, arg ListToursParams) ([]Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE start_time >= ?`
	if arg.ActiveOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY start_time ASC`

	rows, err := q.db.QueryContext(ctx, query, arg.StartingAfter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []Tour
	for rows.Next() {
		var t Tour
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.GuideName, &t.StartTime, &t.DurationMinutes, &t.Capacity, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

type UpdateTourParams struct {
	ID              int64
	Title           string
	Description     string
	GuideName       string
	StartTime       time.Time
	DurationMinutes int64
	Capacity        int64
	IsActive        bool
}

func (q *Queries) UpdateTour(ctx context.Context, arg UpdateTourParams) (Tour, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE tours
		SET title = ?, description = ?, guide_name = ?, start_time = ?,
			duration_minutes = ?, capacity = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, arg.Title, arg.Description, arg.GuideName, arg.StartTime, arg.DurationMinutes, arg.Capacity, arg.IsActive, arg.ID)
	if err != nil {
		return Tour{}, err
	}
	return q.GetTourByID(ctx, arg.ID)
}

func (q *Queries) DeleteTour(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM tours WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SumTourAttendees returns the seats already claimed on a tour by bookings
// that still count against capacity (pending and approved).
func (q *Queries) SumTourAttendees(ctx context.Context, tourID int64) (int64, error) {
	var total sql.NullInt64
	err := q.db.QueryRowContext(ctx, `
		SELECT SUM(attendees)
		FROM bookings
		WHERE tour_id = ? AND status IN (?, ?)
	`, tourID, BookingStatusPending, BookingStatusApproved).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}
