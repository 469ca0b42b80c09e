package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const passwordResetPrefix = KeyPrefix + "password_reset:"

// RedisPasswordResetStore keeps reset tokens in Redis with a TTL
type RedisPasswordResetStore struct {
	client redis.UniversalClient
}

// NewRedisPasswordResetStore creates a store on an existing client
func NewRedisPasswordResetStore(client redis.UniversalClient) *RedisPasswordResetStore {
	return &RedisPasswordResetStore{client: client}
}

// Save stores the token
func (s *RedisPasswordResetStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, passwordResetPrefix+token, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Consume reads and deletes the token in one GETDEL round trip
func (s *RedisPasswordResetStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := s.client.GetDel(ctx, passwordResetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, shared.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt reset token entry: %w", err)
	}
	return id, nil
}

var _ identity.PasswordResetStore = (*RedisPasswordResetStore)(nil)

// InMemoryPasswordResetStore keeps reset tokens in process memory
type InMemoryPasswordResetStore struct {
	*expiringSet[uuid.UUID]
}

// NewInMemoryPasswordResetStore creates a store that sweeps expired tokens every minute
func NewInMemoryPasswordResetStore() *InMemoryPasswordResetStore {
	return &InMemoryPasswordResetStore{newExpiringSet[uuid.UUID](time.Minute)}
}

// Save stores the token
func (s *InMemoryPasswordResetStore) Save(_ context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = expiringEntry[uuid.UUID]{value: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Consume returns the token's user and deletes the token
func (s *InMemoryPasswordResetStore) Consume(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.get(token)
	delete(s.entries, token)
	if !ok {
		return uuid.Nil, shared.ErrNotFound
	}
	return id, nil
}

var _ identity.PasswordResetStore = (*InMemoryPasswordResetStore)(nil)
