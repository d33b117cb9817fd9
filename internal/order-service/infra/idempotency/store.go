// Package idempotency remembers completed create responses in the cache so a
// retried request with the same X-Idempotency-Key is answered without side effects.
package idempotency

import (
	"context"
	"time"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/cache"
)

const (
	operationCreate     = "create"
	operationCreateLock = "create-lock"
)

type Store struct {
	cache cache.Cache
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

// key scopes idempotency keys per user so two users can not collide.
func (s *Store) key(operation string, userID domain.ID, key string) string {
	return s.cache.GenerateKey(operation, userID.String()+":"+key)
}

func (s *Store) Lookup(ctx context.Context, userID domain.ID, key string) ([]byte, bool, error) {
	val, err := s.cache.Get(ctx, s.key(operationCreate, userID, key))
	if err != nil {
		return nil, false, err
	}
	if val == "" {
		return nil, false, nil
	}
	return []byte(val), true, nil
}

func (s *Store) Remember(ctx context.Context, userID domain.ID, key string, response []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, s.key(operationCreate, userID, key), string(response), ttl)
}

// Reserve sets the in-progress marker for key. Only one caller wins until
// the marker is released or its ttl runs out.
func (s *Store) Reserve(ctx context.Context, userID domain.ID, key string, ttl time.Duration) (bool, error) {
	return s.cache.SetNX(ctx, s.key(operationCreateLock, userID, key), "1", ttl)
}

func (s *Store) Release(ctx context.Context, userID domain.ID, key string) error {
	return s.cache.Del(ctx, s.key(operationCreateLock, userID, key))
}
