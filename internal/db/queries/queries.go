// Package queries holds the hand-written SQL layer shared by handlers and
// background jobs. All methods work against a DBTX so they can run inside or
// outside a transaction.
package queries

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"

	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

type User struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	FullName     string         `json:"full_name"`
	Phone        sql.NullString `json:"phone"`
	Role         string         `json:"role"`
	AvatarKey    sql.NullString `json:"avatar_key"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Capacity    int64     `json:"capacity"`
	Location    string    `json:"location"`
	OpensAt     string    `json:"opens_at"`
	ClosesAt    string    `json:"closes_at"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Tour struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	GuideName       string    `json:"guide_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	Capacity        int64     `json:"capacity"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Booking struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	RoomID       sql.NullInt64  `json:"room_id"`
	TourID       sql.NullInt64  `json:"tour_id"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Status       string         `json:"status"`
	Purpose      string         `json:"purpose"`
	Attendees    int64          `json:"attendees"`
	ProposalKey  sql.NullString `json:"proposal_key"`
	DecisionNote sql.NullString `json:"decision_note"`
	DecidedBy    sql.NullInt64  `json:"decided_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// BookingReportRow is a booking joined with the names needed for admin lists,
// analytics, and file exports.
type BookingReportRow struct {
	BookingID    int64     `json:"booking_id"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	ResourceType string    `json:"resource_type"`
	ResourceName string    `json:"resource_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	Attendees    int64     `json:"attendees"`
	CreatedAt    time.Time `json:"created_at"`
}
