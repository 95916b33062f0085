package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/reqstly/reqstly/auth"
	"github.com/reqstly/reqstly/session"
	"github.com/reqstly/reqstly/store"
	"github.com/reqstly/reqstly/ticket"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	repo, err := store.Open("sqlite", filepath.Join(t.TempDir(), "test.db"), true)
	if err != nil {
		t.Fatalf("failed to setup store: %v", err)
	}

	passwords, err := auth.NewPasswordStrategy(repo, auth.NewBcryptHasher(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("failed to setup password strategy: %v", err)
	}
	passkeys, err := auth.NewPasskeyStrategy(repo, auth.PasskeyConfig{
		RPID:          "localhost",
		RPDisplayName: "Reqstly Test",
		RPOrigins:     []string{"http://localhost:8080"},
	}, auth.NewMemoryCeremonyStore())
	if err != nil {
		t.Fatalf("failed to setup passkey strategy: %v", err)
	}

	h := NewHandler(Config{
		Passwords:  passwords,
		Passkeys:   passkeys,
		Resolver:   auth.NewResolver(repo),
		Sessions:   session.NewManager(repo, time.Hour),
		Tickets:    ticket.NewService(repo),
		DB:         repo,
		SessionTTL: time.Hour,
	})

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "flow@example.com",
		"name":     "Flow",
		"password": "a long password",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed with %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)

	// Authenticated endpoint works with the cookie.
	rec = doJSON(e, http.MethodGet, "/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me failed with %d: %s", rec.Code, rec.Body.String())
	}
	var me struct {
		Provider string `json:"provider"`
	}
	json.Unmarshal(rec.Body.Bytes(), &me)
	if me.Provider != "password" {
		t.Fatalf("expected password provider, got %q", me.Provider)
	}

	// Logout revokes the session.
	rec = doJSON(e, http.MethodPost, "/auth/logout", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout failed with %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(e, http.MethodGet, "/auth/me", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session should be rejected, got %d", rec.Code)
	}

	// Fresh login works again.
	rec = doJSON(e, http.MethodPost, "/auth/login", map[string]string{
		"email":    "flow@example.com",
		"password": "a long password",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newTestServer(t)

	doJSON(e, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "wrong@example.com",
		"name":     "Wrong",
		"password": "the real password",
	}, nil)

	rec := doJSON(e, http.MethodPost, "/auth/login", map[string]string{
		"email":    "wrong@example.com",
		"password": "not the password",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	e := newTestServer(t)

	body := map[string]string{
		"email":    "dup@example.com",
		"name":     "Dup",
		"password": "a long password",
	}
	doJSON(e, http.MethodPost, "/auth/signup", body, nil)

	rec := doJSON(e, http.MethodPost, "/auth/signup", body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "tickets@example.com",
		"name":     "Tickets",
		"password": "a long password",
	}, nil)
	cookie := sessionCookie(t, rec)

	rec = doJSON(e, http.MethodPost, "/requests", map[string]string{
		"title":    "Need a monitor",
		"category": "IT",
		"priority": "low",
	}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed with %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Status != "open" {
		t.Fatalf("expected open, got %q", created.Status)
	}

	rec = doJSON(e, http.MethodPut, "/requests/"+created.ID+"/status", map[string]string{
		"status": "in_progress",
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("transition failed with %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/requests/"+created.ID+"/audit", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit failed with %d: %s", rec.Code, rec.Body.String())
	}
	var logs []struct {
		Action string `json:"action"`
	}
	json.Unmarshal(rec.Body.Bytes(), &logs)
	if len(logs) != 2 {
		t.Fatalf("expected created + status_changed rows, got %d", len(logs))
	}

	rec = doJSON(e, http.MethodGet, "/requests?status=in_progress", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed with %d: %s", rec.Code, rec.Body.String())
	}
	var listed []json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 listed request, got %d", len(listed))
	}

	rec = doJSON(e, http.MethodDelete, "/requests/"+created.ID, nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed with %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(e, http.MethodGet, "/requests/"+created.ID, nil, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestRequestOwnershipOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "owner@example.com",
		"name":     "Owner",
		"password": "a long password",
	}, nil)
	ownerCookie := sessionCookie(t, rec)

	rec = doJSON(e, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "intruder@example.com",
		"name":     "Intruder",
		"password": "a long password",
	}, nil)
	intruderCookie := sessionCookie(t, rec)

	rec = doJSON(e, http.MethodPost, "/requests", map[string]string{
		"title":    "Private ticket",
		"category": "HR",
		"priority": "high",
	}, ownerCookie)
	var created struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(e, http.MethodGet, "/requests/"+created.ID, nil, intruderCookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign request, got %d", rec.Code)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/requests", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/requests", nil, &http.Cookie{Name: "session", Value: "forged"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged token, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health failed with %d: %s", rec.Code, rec.Body.String())
	}
}
