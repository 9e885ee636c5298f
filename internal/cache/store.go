package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// Store is the shared key-value cache. Values are JSON encoded and last write wins.
type Store struct {
	client redis.Cmdable
}

// NewStore wraps the command client.
func NewStore(client redis.Cmdable) *Store {
	return &Store{client: client}
}

// Set stores value under key. A ttl of zero or less keeps the key until deleted.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return wrapErr("set", err)
	}
	return nil
}

// GetInto decodes the value stored under key into dst. Missing and expired keys report false.
func (s *Store) GetInto(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("get", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Get returns the typed value stored under key.
func Get[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	var value T
	found, err := s.GetInto(ctx, key, &value)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return value, true, nil
}

// Del removes keys. Absent keys are ignored.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return wrapErr("del", err)
	}
	return nil
}

// DelPattern deletes every key matching the glob pattern in one batch and
// returns the number removed. Keys created after enumeration survive.
func (s *Store) DelPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, wrapErr("keys", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, wrapErr("del", err)
	}
	return removed, nil
}

// KeysWithPrefix lists live keys under prefix with the prefix stripped, sorted.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.client.Keys(ctx, EscapeGlob(prefix)+"*").Result()
	if err != nil {
		return nil, wrapErr("keys", err)
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, prefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// EscapeGlob quotes the glob metacharacters understood by KEYS.
func EscapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// wrapErr separates server replies (bad command, wrong type) from
// connectivity failures, which become CACHE_UNAVAILABLE.
func wrapErr(op string, err error) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperrors.NewCacheUnavailable(op, err)
}
