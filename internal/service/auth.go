// Package service: authentication.
//
//	AuthHandler (HTTP) → AuthService (business rules) → Repository[User]
//	                   ↘ TokenService (JWT)
//
// Login exchanges an email and password for a signed token. The token
// carries the admin flag, so handlers never hit the user table to authorize.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/policy"
	"github.com/sakif/listings/internal/repository"
)

// TokenIssuer mints access tokens. auth.TokenService satisfies it.
type TokenIssuer interface {
	Generate(userID string, isAdmin bool) (string, error)
}

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.Repository[model.User] → credential lookup
//   - tokens     TokenIssuer                       → JWT generation
//   - passwords  model.PasswordHasher              → bcrypt verification
//   - logger     *slog.Logger                      → structured logging
type AuthService struct {
	users     repository.Repository[model.User]
	tokens    TokenIssuer
	passwords model.PasswordHasher
	logger    *slog.Logger

	// decoy is verified against when the email is unknown, so that path
	// costs the same hashing work as a wrong password.
	decoyOnce sync.Once
	decoy     string
}

func NewAuthService(
	users repository.Repository[model.User],
	tokens TokenIssuer,
	passwords model.PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// errBadCredentials is returned for an unknown email and a wrong password
// alike, so the response does not reveal which accounts exist.
func errBadCredentials() error {
	return apperror.Unauthorized("invalid email or password")
}

// Login verifies the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errBadCredentials()
	}

	user, err := s.users.GetByAttribute(ctx, "email", email)
	if errors.Is(err, apperror.ErrNotFound) {
		_ = s.passwords.Verify(s.decoyHash(), password)
		s.logger.Info("login rejected", slog.String("reason", "unknown email"))
		return nil, errBadCredentials()
	}
	if err != nil {
		s.logger.Error("login lookup failed", slog.String("error", err.Error()))
		return nil, apperror.Internal("login", err)
	}

	if !user.VerifyPassword(password, s.passwords) {
		s.logger.Info("login rejected",
			slog.String("user_id", user.ID),
			slog.String("reason", "wrong password"),
		)
		return nil, errBadCredentials()
	}

	token, err := s.tokens.Generate(user.ID, user.IsAdmin)
	if err != nil {
		s.logger.Error("token generation failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("login", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// decoyHash returns a hash made once with the configured hasher, so its
// cost matches the stored hashes.
func (s *AuthService) decoyHash() string {
	s.decoyOnce.Do(func() {
		h, err := s.passwords.Hash("login-timing-decoy-7f3a9c")
		if err != nil {
			s.logger.Error("building decoy hash", slog.String("error", err.Error()))
			return
		}
		s.decoy = h
	})
	return s.decoy
}

// CurrentUser returns the stored user behind actor. A token whose user has
// been removed counts as unauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, actor *policy.Actor) (*model.User, error) {
	if actor == nil || actor.ID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	user, err := s.users.Get(ctx, actor.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, apperror.Internal("current user", err)
	}
	return user, nil
}
