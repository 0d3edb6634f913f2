package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/landscape/pkg/errors"
)

// RedisStore keeps views in Redis. Expiry is delegated to Redis key TTLs,
// so Cleanup has nothing to do.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore stores views under prefix ("landscape:view:" when empty).
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "landscape:view:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*View, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "load view")
	}
	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode view")
	}
	if v.IsExpired(time.Now()) {
		return nil, ErrExpired
	}
	return &v, nil
}

func (s *RedisStore) Set(ctx context.Context, v *View) error {
	ttl := time.Until(v.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, v.ID)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode view")
	}
	if err := s.client.Set(ctx, s.prefix+v.ID, data, ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "store view")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "delete view")
	}
	return nil
}

func (s *RedisStore) Cleanup(ctx context.Context) (int, error) { return 0, nil }

var _ Store = (*RedisStore)(nil)
