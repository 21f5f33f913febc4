package utils

import (
	"context"
	"time"
)

// TokenBlacklist remembers revoked JWTs until they would have expired anyway.
type TokenBlacklist struct {
	store Store
}

func NewTokenBlacklist(store Store) *TokenBlacklist {
	return &TokenBlacklist{store: store}
}

// Revoke blacklists token until expiresAt. Already-expired tokens are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.store.Set(ctx, token, []byte("1"), ttl)
}

// IsRevoked fails open on store errors to avoid locking everyone out when Redis is down.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	_, ok, err := b.store.Get(ctx, token)
	if err != nil {
		Sugar.Warnf("token blacklist lookup failed: %v", err)
		return false
	}
	return ok
}
