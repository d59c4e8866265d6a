package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkotelnikov/pizzeria-backend/pkg/config"
	"github.com/mkotelnikov/pizzeria-backend/pkg/redis"
)

// Store defines the redis surface the manager needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(userID string) string
}

// Manager tracks the active session token per user in redis. A login replaces
// the previous session; a logout or token mismatch invalidates access.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager builds a session manager with the configured TTL.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Establish stores the token id as the user's single active session.
func (m *Manager) Establish(ctx context.Context, userID, tokenID string) error {
	if userID == "" || tokenID == "" {
		return fmt.Errorf("user id and token id required")
	}
	return m.store.Set(ctx, m.store.SessionKey(userID), tokenID, m.ttl)
}

// Check reports whether tokenID is the user's active session.
func (m *Manager) Check(ctx context.Context, userID, tokenID string) (bool, error) {
	current, err := m.store.Get(ctx, m.store.SessionKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return current == tokenID, nil
}

// Revoke removes the user's active session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	return m.store.Del(ctx, m.store.SessionKey(userID))
}
