package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "setting:"

// MaintenanceKey holds "true" while the service is in maintenance mode
const MaintenanceKey = "maintenance"

// RedisStore keeps runtime settings in redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a settings store on the given client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the value of a setting and whether it is set
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a setting without expiry
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// Maintenance reports whether maintenance mode is on
func (s *RedisStore) Maintenance(ctx context.Context) (bool, error) {
	value, ok, err := s.Get(ctx, MaintenanceKey)
	if err != nil || !ok {
		return false, err
	}
	return value == "true", nil
}

// SetMaintenance switches maintenance mode
func (s *RedisStore) SetMaintenance(ctx context.Context, enabled bool) error {
	return s.Set(ctx, MaintenanceKey, strconv.FormatBool(enabled))
}

// Ping checks the redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
