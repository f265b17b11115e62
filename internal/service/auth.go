// Package service contains the business logic layer: it validates input,
// enforces the application's rules, and orchestrates the repositories.
// Handlers stay HTTP-only, repositories stay SQL-only.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/auth"
	"github.com/sakif/ayyam-calendar/internal/model"
	"github.com/sakif/ayyam-calendar/internal/repository"
)

// AccessTokenTTL is the lifetime of tokens issued by the /token endpoint.
// Dashboard session tokens use the shorter auth.DefaultTokenTTL instead.
const AccessTokenTTL = 30 * time.Minute

// AuthService authenticates users and issues access tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated user with the issued token so the
// handler can set a cookie or build a token response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login verifies a username/password pair and issues a token.
//
// ttl <= 0 means "use the default lifetime" (the dashboard login path);
// the /token endpoint passes AccessTokenTTL explicitly, mirroring the two
// issuance paths the API contract describes.
//
// A wrong password and an unknown username both return the same
// apperror.ErrUnauthorized — callers cannot probe which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string, ttl time.Duration) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("incorrect username or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("incorrect username or password")
	}

	var token string
	if ttl > 0 {
		token, err = s.tokens.GenerateWithDuration(user.Username, ttl)
	} else {
		token, err = s.tokens.Generate(user.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.Username, err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))

	return &AuthResult{User: user, Token: token}, nil
}

// Register creates a new user with a bcrypt-hashed password. A duplicate
// username fails with apperror.ErrConflict; it never overwrites.
//
// Used by the bootstrap seeder to create the default admin account.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", slog.String("username", user.Username))

	return user, nil
}
