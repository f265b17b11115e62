package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/ayyam-calendar/internal/service"
)

// PublicHandler serves the unauthenticated read API: month listing, month
// detail, locale-aware day lookup, and detail search.
type PublicHandler struct {
	calendar *service.CalendarService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(calendar *service.CalendarService, validate *validator.Validate, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{calendar: calendar, validate: validate, logger: logger}
}

// HandleListMonths returns a page of months with nested events.
//
// HTTP: GET /api/months?skip=0&limit=20
func (h *PublicHandler) HandleListMonths(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", service.DefaultListLimit)

	months, err := h.calendar.ListMonths(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, months)
}

// HandleGetMonth returns one month with its full event/detail tree.
//
// HTTP: GET /api/months/{id}
func (h *PublicHandler) HandleGetMonth(w http.ResponseWriter, r *http.Request) {
	month, err := h.calendar.GetMonth(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, month)
}

// HandleEventsByDate returns the events on a given day of a month. The day
// may be written in Western or Bengali digits; exact matches win and the
// digit-translated fallback only runs when nothing matched exactly.
//
// HTTP: GET /api/months/{id}/days/{day}
func (h *PublicHandler) HandleEventsByDate(w http.ResponseWriter, r *http.Request) {
	events, err := h.calendar.EventsByDate(r.Context(), r.PathValue("id"), r.PathValue("day"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// HandleSearch returns every event detail containing the query as a
// case-insensitive substring, across all months.
//
// HTTP: GET /api/search?q=xyz — q must be at least 3 characters; the
// minimum is enforced here at the request boundary, not in the service.
func (h *PublicHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	if err := h.validate.Var(q, "required,min=3"); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "query parameter q must be at least 3 characters",
		})
		return
	}

	details, err := h.calendar.SearchDetails(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or not a number.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
