package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/auth"
	"github.com/sakif/ayyam-calendar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memUserRepo is an in-memory UserRepository keyed by username.
type memUserRepo struct {
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if _, ok := r.users[user.Username]; ok {
		return apperror.Conflict("user", user.Username)
	}
	user.ID = "id-" + user.Username
	r.users[user.Username] = user
	return nil
}

func (r *memUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return user, nil
}

// newTestAuthService wires an AuthService against in-memory storage with a
// pre-registered admin/password123 account.
func newTestAuthService(t *testing.T) (*AuthService, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	svc := NewAuthService(newMemUserRepo(), tokens, passwords, discardLogger())

	if _, err := svc.Register(context.Background(), "admin", "password123"); err != nil {
		t.Fatalf("Register(admin): %v", err)
	}
	return svc, tokens
}

func TestLogin_Success(t *testing.T) {
	svc, tokens := newTestAuthService(t)

	result, err := svc.Login(context.Background(), "admin", "password123", 0)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.Username != "admin" {
		t.Errorf("User.Username = %q, want %q", result.User.Username, "admin")
	}

	// The issued token must validate and name the user
	username, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() on issued token error = %v", err)
	}
	if username != "admin" {
		t.Errorf("token subject = %q, want %q", username, "admin")
	}
}

func TestLogin_ExplicitTTL(t *testing.T) {
	svc, tokens := newTestAuthService(t)

	result, err := svc.Login(context.Background(), "admin", "password123", 30*time.Minute)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := tokens.Validate(result.Token); err != nil {
		t.Errorf("Validate() on 30m token error = %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "admin", "wrong-password", 0)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nobody", "password123", 0)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_SameErrorForBothFailures(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	// Unknown user and wrong password must be indistinguishable, so the
	// login form can't be used to probe which usernames exist.
	_, errUnknown := svc.Login(ctx, "nobody", "x", 0)
	_, errWrongPw := svc.Login(ctx, "admin", "x", 0)

	if errUnknown == nil || errWrongPw == nil {
		t.Fatal("both logins should fail")
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("error messages differ: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), "admin", "another-password")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() duplicate error = %v, want ErrConflict", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "password"},
		{"whitespace username", "   ", "password"},
		{"empty password", "newuser", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register(%q, %q) error = %v, want ErrValidation", tc.username, tc.password, err)
			}
		})
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user, err := svc.Register(context.Background(), "sakif", "plain-secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.PasswordHash == "plain-secret" {
		t.Fatal("Register() stored the plaintext password")
	}
	if user.PasswordHash == "" {
		t.Fatal("Register() stored an empty hash")
	}
}
