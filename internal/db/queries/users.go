package queries

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, password_hash, full_name, phone, role, avatar_key, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.AvatarKey, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        sql.NullString
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, phone, role)
		VALUES (?, ?, ?, ?, ?)
	`, arg.Email, arg.PasswordHash, arg.FullName, arg.Phone, arg.Role)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

type UpdateUserProfileParams struct {
	ID       int64
	FullName string
	Phone    sql.NullString
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, arg.FullName, arg.Phone, arg.ID)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

type UpdateUserAvatarParams struct {
	ID        int64
	AvatarKey sql.NullString
}

func (q *Queries) UpdateUserAvatar(ctx context.Context, arg UpdateUserAvatarParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET avatar_key = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, arg.AvatarKey, arg.ID)
	return err
}

type ListUsersCreatedInRangeParams struct {
	StartTime time.Time
	EndTime   time.Time
}

func (q *Queries) ListUsersCreatedInRange(ctx context.Context, arg ListUsersCreatedInRangeParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC
	`, arg.StartTime, arg.EndTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.AvatarKey, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
