package cache

import (
	"context"
	"time"
)

// Bucket is a typed view over the keys sharing one prefix.
type Bucket[T any] struct {
	store  *Store
	prefix string
	ttl    time.Duration
}

// NewBucket returns a bucket whose entries expire after ttl (zero keeps them).
func NewBucket[T any](store *Store, prefix string, ttl time.Duration) *Bucket[T] {
	return &Bucket[T]{store: store, prefix: prefix, ttl: ttl}
}

// Key returns the full cache key for id.
func (b *Bucket[T]) Key(id string) string {
	return b.prefix + id
}

func (b *Bucket[T]) Get(ctx context.Context, id string) (T, bool, error) {
	return Get[T](ctx, b.store, b.Key(id))
}

func (b *Bucket[T]) Set(ctx context.Context, id string, value T) error {
	return b.store.Set(ctx, b.Key(id), value, b.ttl)
}

func (b *Bucket[T]) Delete(ctx context.Context, id string) error {
	return b.store.Del(ctx, b.Key(id))
}

// Purge drops every entry of the bucket.
func (b *Bucket[T]) Purge(ctx context.Context) (int64, error) {
	return b.store.DelPattern(ctx, EscapeGlob(b.prefix)+"*")
}
