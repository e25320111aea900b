package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	dbq "github.com/carrelhq/carrel/internal/db/queries"
)

const notificationTimeout = 5 * time.Second

// SendBookingEmail delivers a booking notification asynchronously. Delivery
// failures are logged, never surfaced to the request that triggered them.
func SendBookingEmail(ctx context.Context, q *dbq.Queries, client EmailSender, userID int64, message Message, logger *zerolog.Logger) {
	if client == nil || q == nil {
		return
	}
	if userID <= 0 {
		if logger != nil {
			logger.Warn().Int64("user_id", userID).Msg("Skipping booking email with invalid user ID")
		}
		return
	}
	if message.Subject == "" || message.Body == "" {
		return
	}

	user, err := q.GetUserByID(ctx, userID)
	if err != nil {
		if logger != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for booking email")
		}
		return
	}
	recipient := strings.TrimSpace(user.Email)
	if recipient == "" {
		return
	}

	go func() {
		sendCtx, cancel := newEmailContext(ctx, notificationTimeout)
		defer cancel()
		if sendCtx.Err() != nil {
			return
		}
		if err := client.Send(sendCtx, recipient, message.Subject, message.Body); err != nil && logger != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to send booking email")
		}
	}()
}
