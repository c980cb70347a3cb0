package auth

import (
	"time"

	"betengine/internal/session"
)

// User is an account in the persistent user store. The signed session
// cookie, not this record, is the authority for an authenticated request;
// the store only gates login and registration.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Premium      bool
	CreatedAt    time.Time
}

// SessionIdentity converts a stored user to the identity carried in the
// session cookie.
func (u User) SessionIdentity() session.Identity {
	email := u.Email
	return session.Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    &email,
	}
}
