package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/db"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/email"
)

const (
	reminderHoursBefore = 24
	reminderJobWindow   = 15 * time.Minute
)

// RegisterReminderJob schedules the sweep that emails members about approved
// reservations starting roughly a day from now. The job runs every 15
// minutes and covers a 15 minute window, so each booking is reminded once.
func RegisterReminderJob(database *db.DB, emailClient email.EmailSender) error {
	if database == nil {
		return fmt.Errorf("reminder job requires database")
	}

	jobName := "reservation_reminders"
	cronExpr := "*/15 * * * *"
	jobLogger := log.With().
		Str("component", "reservation_reminders_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if emailClient == nil {
			jobLogger.Debug().Msg("Reminder job skipped: email client not configured")
			return
		}

		now := time.Now().UTC()
		windowStart := now.Add(reminderHoursBefore * time.Hour)
		windowEnd := windowStart.Add(reminderJobWindow)

		bookings, err := database.Queries.ListBookingsStartingBetween(ctx, dbq.ListBookingsStartingBetweenParams{
			StartTime: windowStart,
			EndTime:   windowEnd,
		})
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load bookings for reminder job")
			return
		}
		if len(bookings) == 0 {
			return
		}

		for _, booking := range bookings {
			details := email.BookingDetails{
				Purpose:   booking.Purpose,
				Attendees: booking.Attendees,
			}
			details.Date, details.TimeRange = email.FormatDateTimeRange(booking.StartTime, booking.EndTime)

			switch {
			case booking.RoomID.Valid:
				details.ResourceType = "room"
				if room, err := database.Queries.GetRoomByID(ctx, booking.RoomID.Int64); err == nil {
					details.ResourceName = room.Name
				}
			case booking.TourID.Valid:
				details.ResourceType = "tour"
				if tour, err := database.Queries.GetTourByID(ctx, booking.TourID.Int64); err == nil {
					details.ResourceName = tour.Title
				}
			}

			message := email.BuildReminderEmail(details)
			email.SendBookingEmail(ctx, database.Queries, emailClient, booking.UserID, message, &jobLogger)
		}

		jobLogger.Info().Int("count", len(bookings)).Msg("Reservation reminders dispatched")
	})
	return err
}
