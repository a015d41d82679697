package revocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scribe/internal/middleware"
	"scribe/internal/observability"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

// Store is a Redis-backed deny-list of token ids. Entries expire with the token.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore returns a Store using client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func key(tokenID string) string {
	return keyPrefix + tokenID
}

// Revoke denies tokenID until the token would have expired anyway.
// Tokens that are already expired need no entry.
func (s *Store) Revoke(ctx context.Context, tokenID string, until time.Time) (err error) {
	if tokenID == "" {
		return errors.New("token id is required")
	}

	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	ctx, span := observability.StartRedisSpan(ctx, "set")
	defer func() { observability.EndSpan(span, err) }()

	if err := s.client.Set(ctx, key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked. Lookup failures are
// logged and treated as not revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) bool {
	if tokenID == "" {
		return false
	}

	ctx, span := observability.StartRedisSpan(ctx, "exists")
	n, err := s.client.Exists(ctx, key(tokenID)).Result()
	observability.EndSpan(span, err)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation check failed",
			slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
