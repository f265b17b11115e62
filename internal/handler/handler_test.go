package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ayyam-calendar/internal/auth"
	"github.com/sakif/ayyam-calendar/internal/repository/sqlite"
	"github.com/sakif/ayyam-calendar/internal/service"
)

// testEnv wires the real stack — in-memory SQLite, services, chi routes —
// so handler tests exercise the same path a live request takes.
type testEnv struct {
	router   *chi.Mux
	calendar *service.CalendarService
	tokens   *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	validate := validator.New()

	authService := service.NewAuthService(db, tokens, passwords, logger)
	calendarService := service.NewCalendarService(db, logger)

	if _, err := authService.Register(context.Background(), "admin", "password123"); err != nil {
		t.Fatalf("registering admin: %v", err)
	}

	tokenHandler := NewTokenHandler(authService, logger)
	publicHandler := NewPublicHandler(calendarService, validate, logger)
	adminHandler := NewAdminHandler(calendarService, validate, logger)

	router := chi.NewRouter()
	router.Post("/token", tokenHandler.HandleToken)
	router.Route("/api", func(r chi.Router) {
		r.Get("/months", publicHandler.HandleListMonths)
		r.Get("/months/{id}", publicHandler.HandleGetMonth)
		r.Get("/months/{id}/days/{day}", publicHandler.HandleEventsByDate)
		r.Get("/search", publicHandler.HandleSearch)
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, db))
		r.Post("/months", adminHandler.HandleCreateMonth)
		r.Put("/months/{id}", adminHandler.HandleUpdateMonth)
		r.Delete("/months/{id}", adminHandler.HandleDeleteMonth)
		r.Post("/months/{id}/events", adminHandler.HandleCreateEvent)
		r.Delete("/events/{id}", adminHandler.HandleDeleteEvent)
		r.Post("/events/{id}/details", adminHandler.HandleAddDetail)
		r.Delete("/details/{id}", adminHandler.HandleDeleteDetail)
	})

	return &testEnv{router: router, calendar: calendarService, tokens: tokens}
}

// do runs a request through the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = strings.NewReader(string(b))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// adminToken issues a valid bearer token for the seeded admin account.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	token, err := e.tokens.GenerateWithDuration("admin", service.AccessTokenTTL)
	if err != nil {
		t.Fatalf("generating admin token: %v", err)
	}
	return token
}

// decode unmarshals a recorded JSON response body into dst.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
