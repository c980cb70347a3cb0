package auth

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is a process-local UserStore used in development and tests,
// and as a seed target for the configured test credentials. It does not
// survive across instances.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byName  map[string]string // username -> email
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]User),
		byName:  make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, user User) error {
	email := strings.ToLower(user.Email)
	name := strings.ToLower(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byName[name]; ok {
		return ErrDuplicate
	}
	s.byEmail[email] = user
	s.byName[name] = email
	return nil
}

func (s *MemoryStore) ByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	user, ok := s.byEmail[key]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.byEmail[key] = user
	return nil
}
