package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/auth"
	"github.com/sakif/ayyam-calendar/internal/model"
	"github.com/sakif/ayyam-calendar/internal/repository"
	"github.com/sakif/ayyam-calendar/internal/service"
)

// DashboardHandler serves the server-rendered admin dashboard: login form,
// month list, and month detail pages.
//
// Authentication here is the lenient cookie path: an anonymous or expired
// session redirects to the login form instead of returning an error. The
// write API never goes through this handler — it uses the strict Bearer
// middleware.
type DashboardHandler struct {
	templates map[string]*template.Template
	auth      *service.AuthService
	calendar  *service.CalendarService
	tokens    *auth.TokenService
	users     repository.UserRepository
	logger    *slog.Logger
}

// dashboard pages, each parsed together with the base layout so the page's
// {{define "content"}} block fills the layout's placeholder.
var dashboardPages = []string{"login.html", "dashboard.html", "month_detail.html"}

// NewDashboardHandler parses the page templates and creates the handler.
func NewDashboardHandler(
	templateDir string,
	authSvc *service.AuthService,
	calendar *service.CalendarService,
	tokens *auth.TokenService,
	users repository.UserRepository,
	logger *slog.Logger,
) (*DashboardHandler, error) {
	templates := make(map[string]*template.Template, len(dashboardPages))
	for _, page := range dashboardPages {
		tmpl, err := template.ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, page),
		)
		if err != nil {
			return nil, err
		}
		templates[page] = tmpl
	}

	return &DashboardHandler{
		templates: templates,
		auth:      authSvc,
		calendar:  calendar,
		tokens:    tokens,
		users:     users,
		logger:    logger,
	}, nil
}

// HandleRoot redirects the site root to the dashboard.
//
// HTTP: GET /
func (h *DashboardHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLoginPage renders the login form.
//
// HTTP: GET /login
func (h *DashboardHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", map[string]any{})
}

// HandleLoginSubmit verifies the submitted credentials. On success it sets
// the session cookie (value "Bearer <token>", HttpOnly) and redirects to
// the dashboard; on bad credentials it re-renders the form with an error.
//
// HTTP: POST /login (form fields "username", "password")
func (h *DashboardHandler) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	// ttl 0: session tokens use the default (shorter) lifetime.
	result, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"), 0)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.render(w, "login.html", map[string]any{"Error": "Invalid credentials"})
			return
		}
		h.logger.Error("dashboard login failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "Bearer " + result.Token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogout clears the session cookie and returns to the login form.
// The token itself stays valid until expiry; without the cookie the
// browser can no longer present it.
//
// HTTP: GET /logout
func (h *DashboardHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleDashboard renders the month list for a logged-in user.
//
// HTTP: GET /dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	months, err := h.calendar.ListMonths(r.Context(), 0, service.MaxListLimit)
	if err != nil {
		h.logger.Error("dashboard: listing months failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "dashboard.html", map[string]any{
		"User":   user,
		"Months": months,
	})
}

// HandleMonthDetail renders one month's events and details. A missing
// month sends the user back to the dashboard rather than erroring.
//
// HTTP: GET /dashboard/months/{id}
func (h *DashboardHandler) HandleMonthDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	month, err := h.calendar.GetMonth(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		h.logger.Error("dashboard: loading month failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "month_detail.html", map[string]any{
		"User":  user,
		"Month": month,
	})
}

// sessionUser resolves the cookie session. It writes the redirect (or the
// 500 for infrastructure failures) itself and returns ok=false when the
// caller should stop.
func (h *DashboardHandler) sessionUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := auth.UserFromCookie(r, h.tokens, h.users)
	if err != nil {
		h.logger.Error("dashboard: session lookup failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

func (h *DashboardHandler) render(w http.ResponseWriter, page string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
