package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/db"
)

// RegisterCompletionJob schedules the hourly sweep that moves approved
// bookings whose end time has passed into the completed state.
func RegisterCompletionJob(database *db.DB) error {
	if database == nil {
		return fmt.Errorf("completion job requires database")
	}

	jobName := "booking_completion"
	cronExpr := "5 * * * *"
	jobLogger := log.With().
		Str("component", "booking_completion_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		updated, err := database.Queries.CompleteExpiredBookings(ctx, time.Now().UTC())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to complete expired bookings")
			return
		}
		if updated > 0 {
			jobLogger.Info().Int64("count", updated).Msg("Expired bookings marked completed")
		}
	})
	return err
}
