package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/ayyam-calendar/internal/service"
)

// AdminHandler serves the authenticated write API. Every route here sits
// behind auth.RequireAuth, so by the time a handler runs the caller is a
// known user.
type AdminHandler struct {
	calendar *service.CalendarService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(calendar *service.CalendarService, validate *validator.Validate, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{calendar: calendar, validate: validate, logger: logger}
}

// MonthCreateRequest is the nested-create body: a month plus optional
// events, each with optional detail strings.
type MonthCreateRequest struct {
	MonthBN string               `json:"month_bn" validate:"required"`
	MonthEN string               `json:"month_en" validate:"required"`
	Events  []EventCreateRequest `json:"events" validate:"dive"`
}

// MonthUpdateRequest overwrites both name fields of a month.
type MonthUpdateRequest struct {
	MonthBN string `json:"month_bn" validate:"required"`
	MonthEN string `json:"month_en" validate:"required"`
}

// EventCreateRequest is one event in a nested create, or the body of the
// standalone event-create endpoint.
type EventCreateRequest struct {
	Day     string   `json:"day" validate:"required"`
	Details []string `json:"details"`
}

// DetailCreateRequest attaches one detail to an event.
type DetailCreateRequest struct {
	Detail string `json:"detail" validate:"required"`
}

// HandleCreateMonth creates a month with its nested events and details in
// one transaction.
//
// HTTP: POST /admin/months
func (h *AdminHandler) HandleCreateMonth(w http.ResponseWriter, r *http.Request) {
	var req MonthCreateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	month, err := h.calendar.CreateMonth(r.Context(), req.MonthBN, req.MonthEN, eventInputs(req.Events))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, month)
}

// HandleUpdateMonth overwrites a month's Bengali and English names.
//
// HTTP: PUT /admin/months/{id}
func (h *AdminHandler) HandleUpdateMonth(w http.ResponseWriter, r *http.Request) {
	var req MonthUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	month, err := h.calendar.UpdateMonth(r.Context(), r.PathValue("id"), req.MonthBN, req.MonthEN)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, month)
}

// HandleDeleteMonth deletes a month (events and details cascade) and
// returns the tree as it stood before deletion.
//
// HTTP: DELETE /admin/months/{id}
func (h *AdminHandler) HandleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	month, err := h.calendar.DeleteMonth(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, month)
}

// HandleCreateEvent adds an event (with details) to a month.
//
// HTTP: POST /admin/months/{id}/events
func (h *AdminHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventCreateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	event, err := h.calendar.CreateEvent(r.Context(), r.PathValue("id"), req.Day, req.Details)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDeleteEvent deletes an event (details cascade) and returns it.
//
// HTTP: DELETE /admin/events/{id}
func (h *AdminHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.calendar.DeleteEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleAddDetail attaches a detail to an event.
//
// HTTP: POST /admin/events/{id}/details
func (h *AdminHandler) HandleAddDetail(w http.ResponseWriter, r *http.Request) {
	var req DetailCreateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	detail, err := h.calendar.AddDetail(r.Context(), r.PathValue("id"), req.Detail)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleDeleteDetail deletes a single detail and returns it.
//
// HTTP: DELETE /admin/details/{id}
func (h *AdminHandler) HandleDeleteDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.calendar.DeleteDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// decodeAndValidate decodes the JSON body into dst and runs the struct's
// validate tags. On failure it writes the 400 response and returns false.
func (h *AdminHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("invalid JSON body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return false
	}

	return true
}

func eventInputs(reqs []EventCreateRequest) []service.EventInput {
	inputs := make([]service.EventInput, 0, len(reqs))
	for _, e := range reqs {
		inputs = append(inputs, service.EventInput{Day: e.Day, Details: e.Details})
	}
	return inputs
}
