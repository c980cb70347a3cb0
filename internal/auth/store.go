package auth

import (
	"context"
	"errors"
)

// Store sentinels. Services map these to the client-facing taxonomy; the
// generic unauthorized message never distinguishes "unknown user" from
// "wrong password".
var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email or username already registered")
)

// UserStore is the persistent account store injected into login and
// registration. Uniqueness of email and username is the store's contract;
// in-process maps are only a fast path, never the source of truth.
type UserStore interface {
	Create(ctx context.Context, user User) error
	ByEmail(ctx context.Context, email string) (User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}
