package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/carrelhq/carrel/internal/api/authz"
	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/db"
	dbq "github.com/carrelhq/carrel/internal/db/queries"
	"github.com/carrelhq/carrel/internal/testutil"
)

func setupHandlers(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	reset := func() {
		queries = nil
		secretKey = ""
		environment = ""
		limiter = nil
		initOnce = sync.Once{}
	}
	reset()

	cfg := &config.Config{}
	cfg.App.SecretKey = "test-secret"
	cfg.App.Environment = "test"
	InitHandlers(database.Queries, cfg)
	t.Cleanup(reset)

	return database
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func registerAccount(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	payload := map[string]any{
		"email":     email,
		"password":  password,
		"full_name": "Ada Lovelace",
	}
	w := httptest.NewRecorder()
	HandleRegister(w, jsonRequest(t, "POST", "/api/v1/auth/register", payload))
	return w
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleRegister(t *testing.T) {
	setupHandlers(t)

	w := registerAccount(t, "ada@example.com", "correct-horse")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var user dbq.User
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.Email != "ada@example.com" || user.Role != dbq.RoleMember {
		t.Errorf("user = %+v", user)
	}

	// Password hashes never leave the server.
	if bytes.Contains(w.Body.Bytes(), []byte("password_hash")) {
		t.Error("response leaks password_hash")
	}

	if cookieByName(t, w, sessionCookieName) == nil {
		t.Error("session cookie not set")
	}
	if cookieByName(t, w, authCookieName) == nil {
		t.Error("auth cookie not set")
	}
}

func TestHandleRegister_NormalizesEmail(t *testing.T) {
	database := setupHandlers(t)

	w := registerAccount(t, "  Ada@Example.COM ", "correct-horse")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	if _, err := database.Queries.GetUserByEmail(t.Context(), "ada@example.com"); err != nil {
		t.Errorf("user not found under normalized email: %v", err)
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	setupHandlers(t)

	if w := registerAccount(t, "ada@example.com", "correct-horse"); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}
	if w := registerAccount(t, "ada@example.com", "correct-horse"); w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	setupHandlers(t)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing email", map[string]any{"password": "correct-horse", "full_name": "Ada"}},
		{"not an email", map[string]any{"email": "ada.example.com", "password": "correct-horse", "full_name": "Ada"}},
		{"short password", map[string]any{"email": "ada@example.com", "password": "short", "full_name": "Ada"}},
		{"missing name", map[string]any{"email": "ada@example.com", "password": "correct-horse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleRegister(w, jsonRequest(t, "POST", "/api/v1/auth/register", tt.payload))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleLogin(t *testing.T) {
	setupHandlers(t)

	if w := registerAccount(t, "ada@example.com", "correct-horse"); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	payload := map[string]any{"email": "ada@example.com", "password": "correct-horse"}
	w := httptest.NewRecorder()
	HandleLogin(w, jsonRequest(t, "POST", "/api/v1/auth/login", payload))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if cookieByName(t, w, sessionCookieName) == nil {
		t.Error("session cookie not set")
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	setupHandlers(t)

	if w := registerAccount(t, "ada@example.com", "correct-horse"); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	payload := map[string]any{"email": "ada@example.com", "password": "wrong-password"}
	w := httptest.NewRecorder()
	HandleLogin(w, jsonRequest(t, "POST", "/api/v1/auth/login", payload))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHandleLogin_UnknownEmail(t *testing.T) {
	setupHandlers(t)

	// Unknown accounts get the same generic answer as bad passwords.
	payload := map[string]any{"email": "ghost@example.com", "password": "whatever-password"}
	w := httptest.NewRecorder()
	HandleLogin(w, jsonRequest(t, "POST", "/api/v1/auth/login", payload))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHandleLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	setupHandlers(t)

	if w := registerAccount(t, "ada@example.com", "correct-horse"); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	payload := map[string]any{"email": "ada@example.com", "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		HandleLogin(w, jsonRequest(t, "POST", "/api/v1/auth/login", payload))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want %d", i+1, w.Code, http.StatusUnauthorized)
		}
	}

	// Even the right password is refused while locked out.
	payload["password"] = "correct-horse"
	w := httptest.NewRecorder()
	HandleLogin(w, jsonRequest(t, "POST", "/api/v1/auth/login", payload))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("locked out status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestHandleLogout(t *testing.T) {
	setupHandlers(t)

	w := httptest.NewRecorder()
	HandleLogout(w, httptest.NewRequest("POST", "/api/v1/auth/logout", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	auth := cookieByName(t, w, authCookieName)
	if auth == nil || auth.MaxAge != -1 {
		t.Error("auth cookie should be expired on logout")
	}
}

func TestHandleMe(t *testing.T) {
	database := setupHandlers(t)

	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := database.Queries.CreateUser(t.Context(), dbq.CreateUserParams{
		Email:        "ada@example.com",
		PasswordHash: hash,
		FullName:     "Ada Lovelace",
		Role:         dbq.RoleMember,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	authUser := &authz.AuthUser{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: user.Role}
	r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	r = r.WithContext(authz.ContextWithUser(r.Context(), authUser))
	w := httptest.NewRecorder()
	HandleMe(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var me dbq.User
	if err := json.NewDecoder(w.Body).Decode(&me); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if me.ID != user.ID || me.Email != user.Email {
		t.Errorf("me = %+v", me)
	}
}

func TestHandleMe_Unauthenticated(t *testing.T) {
	setupHandlers(t)

	w := httptest.NewRecorder()
	HandleMe(w, httptest.NewRequest("GET", "/api/v1/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
