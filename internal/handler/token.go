// Package handler contains the HTTP request handlers. Handlers parse
// requests, call services, and write responses — no business logic lives
// here.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ayyam-calendar/internal/service"
)

// TokenHandler implements the OAuth2-password-style token endpoint used by
// API clients.
type TokenHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(auth *service.AuthService, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{auth: auth, logger: logger}
}

// TokenResponse is the body returned on successful authentication.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleToken authenticates a username/password pair and returns a
// 30-minute bearer token.
//
// HTTP: POST /token (application/x-www-form-urlencoded, fields
// "username" and "password" — the standard OAuth2 password-grant shape).
// Bad credentials return 401 with WWW-Authenticate: Bearer.
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("token request: malformed form body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed form body",
		})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	result, err := h.auth.Login(r.Context(), username, password, service.AccessTokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
	})
}
