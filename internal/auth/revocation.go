package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers revoked token ids until the token would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Claim revokes tokenID and reports whether this call was the one that
	// did it. Single-use tokens are redeemed only when Claim returns true.
	Claim(ctx context.Context, tokenID string, until time.Time) (bool, error)
}

const revokedKeyPrefix = "auth:revoked:"

// RedisRevocations keeps one key per revoked jti with a TTL matching the
// token's remaining lifetime, so the set never outgrows live tokens.
type RedisRevocations struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{rdb: rdb, now: time.Now}
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (r *RedisRevocations) Claim(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return false, nil
	}
	return r.rdb.SetNX(ctx, revokedKeyPrefix+tokenID, 1, ttl).Result()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocations is the single-process store used in tests and local runs.
type MemoryRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{ids: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if until.After(m.now()) {
		m.ids[tokenID] = until
	}
	return nil
}

func (m *MemoryRevocations) Claim(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if !until.After(now) {
		return false, nil
	}
	if prev, ok := m.ids[tokenID]; ok && prev.After(now) {
		return false, nil
	}
	m.ids[tokenID] = until
	return true, nil
}

func (m *MemoryRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.ids[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.ids, tokenID)
		return false, nil
	}
	return true, nil
}
