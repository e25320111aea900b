package queries

import (
	"context"
	"database/sql"
)

const roomColumns = `id, name, description, capacity, location, opens_at, closes_at, is_active, created_at, updated_at`

func scanRoom(row *sql.Row) (Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Capacity, &r.Location, &r.OpensAt, &r.ClosesAt, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateRoomParams struct {
	Name        string
	Description string
	Capacity    int64
	Location    string
	OpensAt     string
	ClosesAt    string
}

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO rooms (name, description, capacity, location, opens_at, closes_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, arg.Name, arg.Description, arg.Capacity, arg.Location, arg.OpensAt, arg.ClosesAt)
	if err != nil {
		return Room{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Room{}, err
	}
	return q.GetRoomByID(ctx, id)
}

func (q *Queries) GetRoomByID(ctx context.Context, id int64) (Room, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

func (q *Queries) ListRooms(ctx context.Context, activeOnly bool) ([]Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Capacity, &r.Location, &r.OpensAt, &r.ClosesAt, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

type UpdateRoomParams struct {
	ID          int64
	Name        string
	Description string
	Capacity    int64
	Location    string
	OpensAt     string
	ClosesAt    string
	IsActive    bool
}

func (q *Queries) UpdateRoom(ctx context.Context, arg UpdateRoomParams) (Room, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE rooms
		SET name = ?, description = ?, capacity = ?, location = ?,
			opens_at = ?, closes_at = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, arg.Name, arg.Description, arg.Capacity, arg.Location, arg.OpensAt, arg.ClosesAt, arg.IsActive, arg.ID)
	if err != nil {
		return Room{}, err
	}
	return q.GetRoomByID(ctx, arg.ID)
}

// DeleteRoom removes a room. It fails with a foreign key error if bookings
// reference the room; callers should deactivate instead in that case.
func (q *Queries) DeleteRoom(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) SetRoomActive(ctx context.Context, id int64, active bool) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE rooms SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	return err
}
