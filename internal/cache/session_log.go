package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// Entry is one appended message stamped with the server time in unix milliseconds.
type Entry[T any] struct {
	Message   T     `json:"message"`
	Timestamp int64 `json:"timestamp"`
}

// Time returns the append time.
func (e Entry[T]) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// SessionLog keeps an ordered list of messages per session. The whole list
// expires window after its most recent append.
type SessionLog[T any] struct {
	store  *Store
	prefix string
	window time.Duration
	now    func() time.Time
}

// NewSessionLog builds a log storing lists under prefix+sessionID.
func NewSessionLog[T any](store *Store, prefix string, window time.Duration) *SessionLog[T] {
	return &SessionLog[T]{store: store, prefix: prefix, window: window, now: time.Now}
}

func (l *SessionLog[T]) key(sessionID string) string {
	return l.prefix + sessionID
}

// Append pushes msg to the tail of the session list and resets the list TTL.
func (l *SessionLog[T]) Append(ctx context.Context, sessionID string, msg T) (Entry[T], error) {
	if sessionID == "" {
		return Entry[T]{}, apperrors.NewValidationError("session id required", nil)
	}

	entry := Entry[T]{Message: msg, Timestamp: l.now().UnixMilli()}
	data, err := json.Marshal(entry)
	if err != nil {
		return Entry[T]{}, fmt.Errorf("encode message: %w", err)
	}

	key := l.key(sessionID)
	_, err = l.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return Entry[T]{}, wrapErr("append", err)
	}
	return entry, nil
}

// ReadAll returns the session's messages in append order. An unknown or
// expired session yields an empty slice.
func (l *SessionLog[T]) ReadAll(ctx context.Context, sessionID string) ([]Entry[T], error) {
	raw, err := l.store.client.LRange(ctx, l.key(sessionID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return []Entry[T]{}, wrapErr("lrange", err)
	}

	entries := make([]Entry[T], 0, len(raw))
	for i, item := range raw {
		var entry Entry[T]
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return entries, fmt.Errorf("decode message %d of %s: %w", i, sessionID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ActiveSessions lists the sessions whose lists have not expired yet.
func (l *SessionLog[T]) ActiveSessions(ctx context.Context) ([]string, error) {
	return l.store.KeysWithPrefix(ctx, l.prefix)
}

// Clear drops one session's list.
func (l *SessionLog[T]) Clear(ctx context.Context, sessionID string) error {
	return l.store.Del(ctx, l.key(sessionID))
}

// Purge drops every session list and returns how many were removed.
func (l *SessionLog[T]) Purge(ctx context.Context) (int64, error) {
	return l.store.DelPattern(ctx, EscapeGlob(l.prefix)+"*")
}
