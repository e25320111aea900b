package bookings

import (
	"database/sql"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/api/apiutil"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/storage"
)

const maxProposalBytes = 10 << 20 // 10 MiB

var allowedProposalExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

// POST /api/v1/bookings/{id}/proposal
//
// Attaches a proposal document to a pending booking. The file is streamed to
// the object store and only the key is persisted.
func HandleUploadProposal(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		http.Error(w, "File uploads are not enabled", http.StatusNotImplemented)
		return
	}

	booking, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}
	if booking.Status != dbq.BookingStatusPending {
		http.Error(w, "Proposals can only be attached to pending bookings", http.StatusConflict)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProposalBytes)
	file, header, err := r.FormFile("proposal")
	if err != nil {
		http.Error(w, "A proposal file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if !allowedProposalExtensions[ext] {
		http.Error(w, "Unsupported proposal file type", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ProposalKey(booking.ID, header.Filename)
	if err := store.PutProposal(r.Context(), key, file, header.Size, contentType); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to store proposal")
		http.Error(w, "Failed to store proposal", http.StatusInternalServerError)
		return
	}

	// Replace a previously attached document.
	if booking.ProposalKey.Valid && booking.ProposalKey.String != key {
		if err := store.RemoveProposal(r.Context(), booking.ProposalKey.String); err != nil {
			logger.Warn().Err(err).Str("key", booking.ProposalKey.String).Msg("Failed to remove old proposal")
		}
	}

	if err := queries.SetBookingProposalKey(r.Context(), dbq.SetBookingProposalKeyParams{
		ID:          booking.ID,
		ProposalKey: sql.NullString{String: key, Valid: true},
	}); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to save proposal key")
		http.Error(w, "Failed to store proposal", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("booking_id", booking.ID).Str("key", key).Msg("Proposal uploaded")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]string{"proposal_key": key}); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to write proposal response")
	}
}

// GET /api/v1/bookings/{id}/proposal
func HandleDownloadProposal(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		http.Error(w, "File uploads are not enabled", http.StatusNotImplemented)
		return
	}

	booking, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}
	if !booking.ProposalKey.Valid {
		http.Error(w, "Booking has no proposal attached", http.StatusNotFound)
		return
	}

	object, err := store.GetProposal(r.Context(), booking.ProposalKey.String)
	if err != nil {
		logger.Error().Err(err).Str("key", booking.ProposalKey.String).Msg("Failed to fetch proposal")
		http.Error(w, "Failed to fetch proposal", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	filename := path.Base(booking.ProposalKey.String)
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.Copy(w, object); err != nil {
		logger.Error().Err(err).Str("key", booking.ProposalKey.String).Msg("Failed to stream proposal")
	}
}
