// Package profiles exposes the member's own profile and avatar management.
package profiles

import (
	"database/sql"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/api/apiutil"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/storage"
)

const maxAvatarBytes = 5 << 20 // 5 MiB

const defaultPhoneRegion = "US"

var allowedAvatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

var (
	queries  *dbq.Queries
	store    *storage.Store
	initOnce sync.Once
)

func InitHandlers(q *dbq.Queries, objectStore *storage.Store) {
	initOnce.Do(func() {
		queries = q
		store = objectStore
	})
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// GET /api/v1/profile
func HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	profile, err := queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load profile")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, profile); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write profile response")
	}
}

// PUT /api/v1/profile
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	var req updateProfileRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		http.Error(w, "full_name is required", http.StatusBadRequest)
		return
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := queries.UpdateUserProfile(r.Context(), dbq.UpdateUserProfileParams{
		ID:       user.ID,
		FullName: fullName,
		Phone:    phone,
	})
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to update profile")
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("Profile updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, profile); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write profile response")
	}
}

// POST /api/v1/profile/avatar
func HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		http.Error(w, "File uploads are not enabled", http.StatusNotImplemented)
		return
	}

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "An avatar image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if !allowedAvatarExtensions[ext] {
		http.Error(w, "Avatar must be a PNG, JPEG, or WebP image", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}

	profile, err := queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load profile")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	key := storage.AvatarKey(user.ID, header.Filename)
	if err := store.PutAvatar(r.Context(), key, file, header.Size, contentType); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to store avatar")
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	if err := queries.UpdateUserAvatar(r.Context(), dbq.UpdateUserAvatarParams{
		ID:        user.ID,
		AvatarKey: sql.NullString{String: key, Valid: true},
	}); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to save avatar key")
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	// A new extension leaves the previous object under a stale key.
	if profile.AvatarKey.Valid && profile.AvatarKey.String != key {
		if err := store.RemoveAvatar(r.Context(), profile.AvatarKey.String); err != nil {
			logger.Warn().Err(err).Str("key", profile.AvatarKey.String).Msg("Failed to remove superseded avatar")
		}
	}

	logger.Info().Int64("user_id", user.ID).Str("key", key).Msg("Avatar uploaded")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]string{"avatar_key": key}); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write avatar response")
	}
}

// GET /api/v1/profile/avatar
func HandleGetAvatar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		http.Error(w, "File uploads are not enabled", http.StatusNotImplemented)
		return
	}

	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	profile, err := queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load profile")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !profile.AvatarKey.Valid {
		http.Error(w, "No avatar uploaded", http.StatusNotFound)
		return
	}

	object, err := store.GetAvatar(r.Context(), profile.AvatarKey.String)
	if err != nil {
		logger.Error().Err(err).Str("key", profile.AvatarKey.String).Msg("Failed to fetch avatar")
		http.Error(w, "Failed to fetch avatar", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	contentType := mime.TypeByExtension(path.Ext(profile.AvatarKey.String))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, object); err != nil {
		logger.Error().Err(err).Str("key", profile.AvatarKey.String).Msg("Failed to stream avatar")
	}
}

// normalizePhone validates and formats a phone number to E.164. An empty
// value clears the stored number.
func normalizePhone(raw string) (sql.NullString, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullString{}, nil
	}

	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return sql.NullString{}, apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return sql.NullString{}, apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}

	formatted := phonenumbers.Format(parsed, phonenumbers.E164)
	return sql.NullString{String: formatted, Valid: true}, nil
}
