// Package auth handles registration, login sessions, and password recovery.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/so647/study-time-tracker/internal/apperror"
	"github.com/so647/study-time-tracker/internal/domain"
)

// ResetEnqueuer hands a reset email off for delivery. Enqueue failures are
// logged but never surfaced to the caller; delivery is fire-and-forget.
type ResetEnqueuer interface {
	EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error
}

// Config carries the tunables for the auth service.
type Config struct {
	BaseURL     string
	SessionTTL  time.Duration
	RememberTTL time.Duration
	BcryptCost  int
}

// Service implements the authentication and recovery flows.
type Service struct {
	users    domain.UserRepository
	sessions SessionStore
	tokens   *ResetTokens
	enqueuer ResetEnqueuer
	cfg      Config
	log      zerolog.Logger
}

// NewService constructs a Service.
func NewService(users domain.UserRepository, sessions SessionStore, tokens *ResetTokens, enqueuer ResetEnqueuer, cfg Config, log zerolog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, sessions: sessions, tokens: tokens, enqueuer: enqueuer, cfg: cfg, log: log}
}

// Register creates a new account with a bcrypt-hashed credential. Duplicate
// usernames or emails surface as validation errors; the plaintext password is
// never stored.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil, apperror.NewValidation("username is required", nil)
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.NewValidation("a valid email is required", nil)
	}
	if len(password) < 6 {
		return nil, apperror.NewValidation("password must be at least 6 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ImageFile:    domain.DefaultImageFile,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			return nil, apperror.NewValidation("that username is taken", err)
		case errors.Is(err, domain.ErrEmailTaken):
			return nil, apperror.NewValidation("that email is already registered", err)
		}
		return nil, apperror.NewDatabase("failed to create user", err)
	}
	return user, nil
}

// Login verifies the credential and issues a session. The failure message
// never distinguishes an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*domain.User, *Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, apperror.NewAuth("login unsuccessful, check email and password", nil)
		}
		return nil, nil, apperror.NewDatabase("failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperror.NewAuth("login unsuccessful, check email and password", nil)
	}

	ttl := s.cfg.SessionTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}
	session, err := s.sessions.Create(ctx, user.ID, ttl)
	if err != nil {
		return nil, nil, apperror.NewDatabase("failed to create session", err)
	}
	return user, session, nil
}

// Logout removes the session for token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperror.NewDatabase("failed to delete session", err)
	}
	return nil
}

// RequestPasswordReset issues a reset token for the account behind email and
// enqueues the reset email. An unknown email is treated as success so the
// endpoint cannot be used to probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return apperror.NewDatabase("failed to load user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset_password/%s", strings.TrimRight(s.cfg.BaseURL, "/"), token)
	if err := s.enqueuer.EnqueueSendPasswordReset(ctx, user.Email, resetURL); err != nil {
		s.log.Warn().Err(err).Str("email", user.Email).Msg("enqueue password reset email failed")
	}
	return nil
}

// ResetPassword consumes a reset token and overwrites the stored credential.
// Invalid or expired tokens yield a token error.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	if len(newPassword) < 6 {
		return apperror.NewValidation("password must be at least 6 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return apperror.NewInternal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperror.NewDatabase("failed to update password", err)
	}
	return nil
}

// VerifyResetToken checks a token without consuming it, for the GET half of
// the reset form.
func (s *Service) VerifyResetToken(token string) (int, error) {
	return s.tokens.Verify(token)
}
