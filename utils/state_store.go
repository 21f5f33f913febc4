package utils

import (
	"context"
	"time"
)

// OAuthStates holds single-use OAuth state tokens to mitigate CSRF on the callback.
type OAuthStates struct {
	store Store
}

func NewOAuthStates(store Store) *OAuthStates {
	return &OAuthStates{store: store}
}

// Save stores state with TTL (10 minutes when ttl <= 0) and the post-login destination.
func (s *OAuthStates) Save(ctx context.Context, state, next string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return s.store.Set(ctx, state, []byte(next), ttl)
}

// Consume validates and removes a state token, returning the saved destination.
func (s *OAuthStates) Consume(ctx context.Context, state string) (string, bool) {
	if state == "" {
		return "", false
	}
	b, ok, err := s.store.Get(ctx, state)
	if err != nil || !ok {
		return "", false
	}
	_ = s.store.Delete(ctx, state)
	return string(b), true
}
