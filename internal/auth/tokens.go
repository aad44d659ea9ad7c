// Package auth issues and validates opaque session tokens and checks
// credentials. Play is allowed without a token; identity only gates result
// persistence.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type tokenEntry struct {
	username string
	expires  time.Time
}

// TokenStore holds issued tokens with a TTL.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]tokenEntry
	ttl    time.Duration
}

// NewTokenStore creates a store whose tokens expire after ttl.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		tokens: make(map[string]tokenEntry),
		ttl:    ttl,
	}
}

// Issue creates a new token for username.
func (s *TokenStore) Issue(username string) string {
	token := uuid.New().String()

	s.mu.Lock()
	s.tokens[token] = tokenEntry{username: username, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return token
}

// Validate resolves a token to its username. Expired tokens are rejected
// and removed.
func (s *TokenStore) Validate(token string) (string, bool) {
	s.mu.RLock()
	entry, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		s.Revoke(token)
		return "", false
	}
	return entry.username, true
}

// Revoke removes a token.
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// CleanupExpired periodically drops expired tokens until ctx is done.
func (s *TokenStore) CleanupExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for token, entry := range s.tokens {
				if now.After(entry.expires) {
					delete(s.tokens, token)
				}
			}
			s.mu.Unlock()
		}
	}
}

// CheckPassword compares a bcrypt hash against a plaintext password.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// HashPassword produces a bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
