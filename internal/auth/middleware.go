package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/model"
	"github.com/sakif/ayyam-calendar/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the authenticated user value.
type contextKey string

const userKey contextKey = "user"

// SessionCookie is the dashboard session cookie. Its value is the literal
// string "Bearer <token>" — the same shape as the Authorization header, so
// both gates feed one validation core.
const SessionCookie = "access_token"

// RequireAuth is the strict gate used by the admin write API.
//
// It extracts the token from "Authorization: Bearer <token>", validates it,
// and loads the User named by the token's subject. Any failure — missing or
// malformed header, invalid/expired token, or a subject with no matching
// user row — stops the chain with 401 and a WWW-Authenticate: Bearer
// header. On success the User is stored in the request context.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			user, err := resolveUser(r.Context(), raw, tokens, users)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromCookie is the lenient gate used by the dashboard pages.
//
// It reads the session cookie, strips the "Bearer " prefix if present, and
// resolves the user. A missing cookie, an invalid or expired token, or a
// subject whose user row no longer exists all yield (nil, nil) — the page
// handler redirects to the login form instead of erroring. Only genuine
// infrastructure failures (e.g. the store going away) are returned as
// errors; swallowing those would mask outages as "logged out".
func UserFromCookie(r *http.Request, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie: anonymous, not an error
		return nil, nil
	}

	raw := strings.TrimPrefix(cookie.Value, "Bearer ")

	user, err := resolveUser(r.Context(), raw, tokens, users)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UserFromContext retrieves the authenticated user set by RequireAuth.
// Returns (nil, false) if the request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser is the validation core shared by both gates: validate the
// token, then load the user the subject names. A token whose subject no
// longer exists is rejected on both paths.
func resolveUser(ctx context.Context, tokenStr string, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	username, err := tokens.Validate(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// bearerToken splits an Authorization header value into its token part.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"could not validate credentials"}`))
}
