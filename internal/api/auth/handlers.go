package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/carrelhq/carrel/internal/api/apiutil"
	"github.com/carrelhq/carrel/internal/api/authz"
	"github.com/carrelhq/carrel/internal/config"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/ratelimit"
)

const minPasswordLength = 8

var (
	queries     *dbq.Queries
	secretKey   string
	environment string
	limiter     *ratelimit.Limiter
	initOnce    sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *dbq.Queries, cfg *config.Config) {
	initOnce.Do(func() {
		queries = q
		if cfg != nil {
			secretKey = cfg.App.SecretKey
			environment = cfg.App.Environment
		}
		limiter = ratelimit.New(nil)
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if err := validateRegistration(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, err := queries.CreateUser(r.Context(), dbq.CreateUserParams{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         dbq.RoleMember,
	})
	if err != nil {
		if isUniqueViolation(err) {
			http.Error(w, "An account with that email already exists", http.StatusConflict)
			return
		}
		logger.Error().Err(err).Msg("Failed to create user")
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	if err := startUserSession(w, r, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("Account created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write register response")
	}
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	clientIP := ratelimit.GetClientIP(r, false)
	if limiter != nil {
		if result := limiter.CheckLogin(req.Email, clientIP); !result.Allowed {
			ratelimit.LogRateLimitExceeded(req.Email, clientIP, result.Reason)
			http.Error(w, "Too many attempts, try again later", http.StatusTooManyRequests)
			return
		}
	}

	user, err := queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error().Err(err).Msg("Failed to load user for login")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		recordFailure(req.Email, clientIP)
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !VerifyPassword(user.PasswordHash, req.Password) {
		recordFailure(req.Email, clientIP)
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if limiter != nil {
		limiter.ResetLoginAttempts(req.Email)
	}

	if err := startUserSession(w, r, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	if err := apiutil.WriteJSON(w, http.StatusOK, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write login response")
	}
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearSession(w, r)

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func HandleMe(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	authUser := apiutil.RequireUser(w, r)
	if authUser == nil {
		return
	}

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, err := queries.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		logger.Error().Err(err).Int64("user_id", authUser.ID).Msg("Failed to load user")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write user response")
	}
}

func startUserSession(w http.ResponseWriter, r *http.Request, user dbq.User) error {
	if err := CreateSession(w, user.ID); err != nil {
		return err
	}
	authUser := &authz.AuthUser{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}
	if err := SetAuthCookie(w, r, authUser); err != nil && !errors.Is(err, errAuthConfigMissing) {
		return err
	}
	return nil
}

func validateRegistration(req registerRequest) error {
	switch {
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return apiutil.FieldError{Field: "email", Reason: "must be a valid email address"}
	case len(req.Password) < minPasswordLength:
		return apiutil.FieldError{Field: "password", Reason: "must be at least 8 characters"}
	case req.FullName == "":
		return apiutil.FieldError{Field: "full_name", Reason: "is required"}
	}
	return nil
}

func recordFailure(email, ip string) {
	if limiter == nil {
		return
	}
	if lockedOut := limiter.RecordLoginFailure(email, ip); lockedOut {
		log.Warn().Str("identifier", ratelimit.SanitizeIdentifier(email)).Msg("Login lockout triggered")
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
