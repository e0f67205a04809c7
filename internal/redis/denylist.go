package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// TokenDenylist remembers revoked token ids until the token would have expired anyway.
type TokenDenylist struct {
	client redis.Cmdable
}

func NewTokenDenylist(client redis.Cmdable) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Revoke marks jti as revoked for ttl. A non-positive ttl means the token is already dead.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, revokedKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func revokedKey(jti string) string {
	return revokedKeyPrefix + jti
}
