package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates JWTs before they expire: single tokens on
// logout, and every token of an operator after a password change.
type TokenBlacklist interface {
	// AddToBlacklist revokes one token by JTI; ttl is its remaining lifetime
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// AddOperatorTokensToBlacklist revokes every token issued to the operator so far
	AddOperatorTokensToBlacklist(ctx context.Context, operatorID string, ttl time.Duration) error
	IsOperatorTokenInvalidated(ctx context.Context, operatorID string, tokenIssuedAt time.Time) (bool, error)
}

// DefaultBlacklistPrefix namespaces blacklist keys in a shared Redis
const DefaultBlacklistPrefix = "opsledger:token:blacklist:"

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client *redis.Client, keyPrefix string) *RedisTokenBlacklist {
	if keyPrefix == "" {
		keyPrefix = DefaultBlacklistPrefix
	}
	return &RedisTokenBlacklist{client: client, keyPrefix: keyPrefix}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) operatorKey(operatorID string) string {
	return b.keyPrefix + "operator:" + operatorID
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// AddOperatorTokensToBlacklist stores the invalidation time; tokens issued
// at or before it are rejected.
func (b *RedisTokenBlacklist) AddOperatorTokensToBlacklist(ctx context.Context, operatorID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.operatorKey(operatorID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate operator tokens: %w", err)
	}
	return nil
}

// IsOperatorTokenInvalidated checks the token's issue time against the
// operator's invalidation time
func (b *RedisTokenBlacklist) IsOperatorTokenInvalidated(ctx context.Context, operatorID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.operatorKey(operatorID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check operator token invalidation: %w", err)
	}

	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return tokenIssuedAt.Unix() <= invalidatedAt, nil
}

// InMemoryTokenBlacklist keeps revocations in process memory. Revocations
// are not shared between instances.
type InMemoryTokenBlacklist struct {
	mu            sync.Mutex
	jtis          map[string]time.Time // JTI -> expiration time
	invalidations map[string]time.Time // operator -> invalidation time
	now           func() time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:          make(map[string]time.Time),
		invalidations: make(map[string]time.Time),
		now:           time.Now,
	}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, ok := b.jtis[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiration) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) AddOperatorTokensToBlacklist(_ context.Context, operatorID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidations[operatorID] = b.now()
	return nil
}

func (b *InMemoryTokenBlacklist) IsOperatorTokenInvalidated(_ context.Context, operatorID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	invalidatedAt, ok := b.invalidations[operatorID]
	if !ok {
		return false, nil
	}
	return !tokenIssuedAt.After(invalidatedAt), nil
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
