// Package auth implements credential login, registration and the
// password-reset flow over an injected persistent user store.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"time"

	"github.com/google/uuid"

	"betengine/internal/auth/resettoken"
	dErrors "betengine/pkg/domainerrors"
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_.-]{3,24}$`)

// Service wires the user store and reset tokens behind the auth endpoints.
type Service struct {
	users  UserStore
	resets *resettoken.Service
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(users UserStore, resets *resettoken.Service, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	svc := &Service{
		users:  users,
		resets: resets,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SeedTestUser registers the configured test credentials, ignoring
// duplicates so restarts are idempotent.
func (s *Service) SeedTestUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	err = s.users.Create(ctx, User{
		ID:           "local:" + uuid.NewString(),
		Email:        email,
		Username:     "testuser",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

// Login validates credentials. Every failure surfaces the same generic
// unauthorized message: the response must not reveal whether the account
// exists.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if password == "" {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}

	user, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeUpstream, "user store unavailable")
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !usernameRe.MatchString(username) {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "username must be 3-24 characters of a-z, 0-9, '_', '.', '-'")
	}
	if len(password) < 6 {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 6 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           "local:" + uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return User{}, dErrors.New(dErrors.CodeConflict, "email or username already registered")
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeUpstream, "user store unavailable")
	}
	return user, nil
}

// RequestPasswordReset issues a reset token when the account exists. The
// bool reports whether a token was issued; callers answer success either
// way so the endpoint is not an account oracle.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, bool, error) {
	if s.resets == nil {
		return "", false, dErrors.New(dErrors.CodeNotConfigured, "password reset is not configured")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", false, dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}

	user, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeUpstream, "user store unavailable")
	}

	token, err := s.resets.Generate(user.Email, resettoken.DefaultTTL)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// ResetPassword validates a reset token and stores the new hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.resets == nil {
		return dErrors.New(dErrors.CodeNotConfigured, "password reset is not configured")
	}
	if len(newPassword) < 6 {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 6 characters")
	}

	email, err := s.resets.Validate(token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid reset token")
		}
		return dErrors.Wrap(err, dErrors.CodeUpstream, "user store unavailable")
	}
	return nil
}
