// AngelaMos | 2026
// denylist.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/blog-api/internal/core"
)

// Denylist remembers revoked token ids until the token would have expired
// anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Revoke(
	ctx context.Context,
	tokenID string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, denylistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist token: %w", err)
	}

	return nil
}

func (d *RedisDenylist) IsRevoked(
	ctx context.Context,
	tokenID string,
) (bool, error) {
	exists, err := d.client.Exists(ctx, denylistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}

	return exists > 0, nil
}

func denylistKey(tokenID string) string {
	return core.RedisKey("denylist", tokenID)
}
