package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartretail/storefront/internal/core/domain"
)

// TokenStore keeps the bearer token in Redis so that several client processes
// (kiosks, CLI sessions on one host) share a login.
// Key format: <prefix>:token:<key>
type TokenStore struct {
	client *redis.Client
	prefix string
	key    string
	ttl    time.Duration
}

// NewTokenStore wraps client. A ttl of zero stores the token without expiry;
// server-side invalidation is still detected on the next hydration.
func NewTokenStore(client *redis.Client, prefix, key string, ttl time.Duration) *TokenStore {
	if prefix == "" {
		prefix = "storefront"
	}
	return &TokenStore{client: client, prefix: prefix, key: key, ttl: ttl}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.redisKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("token load: %w", err)
	}
	if token == "" {
		return "", domain.ErrNoToken
	}
	return token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.redisKey(), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("token save: %w", err)
	}
	return nil
}

// Clear deletes the key; DEL on a missing key is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.redisKey()).Err(); err != nil {
		return fmt.Errorf("token clear: %w", err)
	}
	return nil
}

func (s *TokenStore) redisKey() string {
	return fmt.Sprintf("%s:token:%s", s.prefix, s.key)
}
