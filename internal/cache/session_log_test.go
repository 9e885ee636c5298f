package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

type line struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func TestSessionLog_AppendAndReadInOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	log := NewSessionLog[line](store, "chat:", time.Hour)

	base := time.UnixMilli(1_700_000_000_000)
	tick := 0
	log.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}

	for _, text := range []string{"hello", "how are you", "fine"} {
		_, err := log.Append(ctx, "s1", line{From: "p", Text: text})
		require.NoError(t, err)
	}

	entries, err := log.ReadAll(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "hello", entries[0].Message.Text)
	assert.Equal(t, "fine", entries[2].Message.Text)
	assert.Equal(t, base.Add(time.Millisecond).UnixMilli(), entries[0].Timestamp)
	assert.True(t, entries[0].Timestamp < entries[1].Timestamp)
	assert.Equal(t, base.Add(time.Millisecond), entries[0].Time())
}

func TestSessionLog_StoredShape(t *testing.T) {
	store, mr := newTestStore(t)
	log := NewSessionLog[line](store, "chat:", time.Hour)
	log.now = func() time.Time { return time.UnixMilli(42) }

	_, err := log.Append(context.Background(), "s1", line{From: "d", Text: "hi"})
	require.NoError(t, err)

	raw, err := mr.List("chat:s1")
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.JSONEq(t, `{"message":{"from":"d","text":"hi"},"timestamp":42}`, raw[0])
}

func TestSessionLog_SlidingExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	log := NewSessionLog[line](store, "chat:", 10*time.Second)

	_, err := log.Append(ctx, "s1", line{Text: "first"})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, mr.TTL("chat:s1"))

	mr.FastForward(8 * time.Second)
	_, err = log.Append(ctx, "s1", line{Text: "second"})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, mr.TTL("chat:s1"))

	mr.FastForward(8 * time.Second)
	entries, err := log.ReadAll(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	mr.FastForward(3 * time.Second)
	entries, err = log.ReadAll(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestSessionLog_UnknownSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	entries, err := NewSessionLog[line](store, "chat:", time.Hour).ReadAll(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSessionLog_RejectsEmptySession(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := NewSessionLog[line](store, "chat:", time.Hour).Append(context.Background(), "", line{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestSessionLog_ActiveSessionsClearPurge(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	log := NewSessionLog[line](store, "chat:", time.Hour)

	for _, id := range []string{"b", "a", "c"} {
		_, err := log.Append(ctx, id, line{Text: id})
		require.NoError(t, err)
	}
	require.NoError(t, store.Set(ctx, "user:1", "x", 0))

	sessions, err := log.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sessions)

	require.NoError(t, log.Clear(ctx, "a"))
	sessions, err = log.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, sessions)

	removed, err := log.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.True(t, mr.Exists("user:1"))
}

func TestSessionLog_Unavailable(t *testing.T) {
	log := NewSessionLog[line](newUnavailableStore(t), "chat:", time.Hour)
	ctx := context.Background()

	_, err := log.Append(ctx, "s1", line{Text: "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCacheUnavailable), "got %v", err)

	entries, err := log.ReadAll(ctx, "s1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCacheUnavailable))
	assert.Empty(t, entries)
}
