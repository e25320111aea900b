// Package analytics turns booking rows into the aggregates behind the admin
// dashboard: volume series, peak hours, utilization, and top bookers.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Row is the slice of a booking that aggregation needs. Handlers map query
// results into Rows so this package stays free of database types.
type Row struct {
	UserName     string
	UserEmail    string
	ResourceType string // "room" or "tour"
	ResourceName string
	StartTime    time.Time
	EndTime      time.Time
	Status       string
	Attendees    int64
}

type Summary struct {
	TotalBookings  int64            `json:"total_bookings"`
	StatusCounts   map[string]int64 `json:"status_counts"`
	RoomBookings   int64            `json:"room_bookings"`
	TourBookings   int64            `json:"tour_bookings"`
	TotalAttendees int64            `json:"total_attendees"`
	UniqueUsers    int64            `json:"unique_users"`
}

type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

type HourCount struct {
	Hour  int   `json:"hour"` // 0-23
	Count int64 `json:"count"`
}

type TopUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Bookings int64  `json:"bookings"`
}

type ResourceUsage struct {
	ResourceName string  `json:"resource_name"`
	Bookings     int64   `json:"bookings"`
	BookedHours  float64 `json:"booked_hours"`
}

// Summarize computes headline numbers over the rows.
func Summarize(rows []Row) Summary {
	s := Summary{StatusCounts: make(map[string]int64)}
	users := make(map[string]struct{})
	for _, row := range rows {
		s.TotalBookings++
		s.StatusCounts[row.Status]++
		switch row.ResourceType {
		case "room":
			s.RoomBookings++
		case "tour":
			s.TourBookings++
		}
		s.TotalAttendees += row.Attendees
		users[strings.ToLower(row.UserEmail)] = struct{}{}
	}
	s.UniqueUsers = int64(len(users))
	return s
}

// CountByDay buckets rows by start date and fills every day in [start, end)
// so charts get a continuous series.
func CountByDay(rows []Row, start, end time.Time) []DayCount {
	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.StartTime.UTC().Format("2006-01-02")]++
	}

	var series []DayCount
	for day := start.UTC().Truncate(24 * time.Hour); day.Before(end.UTC()); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, DayCount{Date: key, Count: counts[key]})
	}
	return series
}

// CountByMonth buckets rows by start month and fills every month in the
// range.
func CountByMonth(rows []Row, start, end time.Time) []MonthCount {
	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.StartTime.UTC().Format("2006-01")]++
	}

	var series []MonthCount
	cursor := time.Date(start.UTC().Year(), start.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	for cursor.Before(end.UTC()) {
		key := cursor.Format("2006-01")
		series = append(series, MonthCount{Month: key, Count: counts[key]})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return series
}

// PeakHours returns a 24-bucket histogram of booking start hours. Every hour
// appears even when empty.
func PeakHours(rows []Row) []HourCount {
	var buckets [24]int64
	for _, row := range rows {
		buckets[row.StartTime.UTC().Hour()]++
	}

	series := make([]HourCount, 24)
	for hour := range buckets {
		series[hour] = HourCount{Hour: hour, Count: buckets[hour]}
	}
	return series
}

// TopUsers ranks bookers by booking count, ties broken by name for stable
// output.
func TopUsers(rows []Row, limit int) []TopUser {
	type userKey struct {
		name  string
		email string
	}
	counts := make(map[userKey]int64)
	for _, row := range rows {
		counts[userKey{row.UserName, strings.ToLower(row.UserEmail)}]++
	}

	users := make([]TopUser, 0, len(counts))
	for key, count := range counts {
		users = append(users, TopUser{Name: key.name, Email: key.email, Bookings: count})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Bookings != users[j].Bookings {
			return users[i].Bookings > users[j].Bookings
		}
		return users[i].Name < users[j].Name
	})

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users
}

// ResourceUsageRanking sums bookings and booked hours per resource,
// busiest first. Only approved and completed bookings count as usage.
func ResourceUsageRanking(rows []Row) []ResourceUsage {
	type usage struct {
		bookings int64
		hours    float64
	}
	byResource := make(map[string]*usage)
	for _, row := range rows {
		if row.Status != "approved" && row.Status != "completed" {
			continue
		}
		u := byResource[row.ResourceName]
		if u == nil {
			u = &usage{}
			byResource[row.ResourceName] = u
		}
		u.bookings++
		u.hours += row.EndTime.Sub(row.StartTime).Hours()
	}

	ranking := make([]ResourceUsage, 0, len(byResource))
	for name, u := range byResource {
		ranking = append(ranking, ResourceUsage{ResourceName: name, Bookings: u.bookings, BookedHours: u.hours})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].BookedHours != ranking[j].BookedHours {
			return ranking[i].BookedHours > ranking[j].BookedHours
		}
		return ranking[i].ResourceName < ranking[j].ResourceName
	})
	return ranking
}

// Utilization is the share of open hours actually booked, clamped to [0, 1].
func Utilization(bookedHours, openHours float64) float64 {
	if openHours <= 0 {
		return 0
	}
	ratio := bookedHours / openHours
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// FillRate is seats taken over capacity, clamped to [0, 1].
func FillRate(taken, capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	ratio := float64(taken) / float64(capacity)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// OpenHoursPerDay converts a room's HH:MM opening window to hours per day.
func OpenHoursPerDay(opensAt, closesAt string) (float64, error) {
	open, err := parseClock(opensAt)
	if err != nil {
		return 0, err
	}
	closed, err := parseClock(closesAt)
	if err != nil {
		return 0, err
	}
	if closed <= open {
		return 0, fmt.Errorf("closing time %q is not after opening time %q", closesAt, opensAt)
	}
	return (closed - open).Hours(), nil
}

func parseClock(value string) (time.Duration, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}
