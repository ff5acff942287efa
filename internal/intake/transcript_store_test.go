package intake

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewTranscriptStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "pat-1", ChatMessage{Role: ChatRoleUser, Content: "hello"}))
	require.NoError(t, store.Append(ctx, "pat-1", ChatMessage{Role: ChatRoleAssistant, Content: "hi there"}))
	require.NoError(t, store.Append(ctx, "pat-2", ChatMessage{Role: ChatRoleUser, Content: "other patient"}))

	msgs, err := store.List(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)
}

func TestTranscriptExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewTranscriptStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "pat-1", ChatMessage{Role: ChatRoleUser, Content: "hello"}))

	mr.FastForward(2 * time.Minute)

	msgs, err := store.List(ctx, "pat-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTranscriptClear(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewTranscriptStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "pat-1", ChatMessage{Role: ChatRoleUser, Content: "hello"}))
	require.NoError(t, store.Clear(ctx, "pat-1"))

	msgs, err := store.List(ctx, "pat-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *TranscriptStore

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "pat-1", ChatMessage{Role: ChatRoleUser, Content: "hello"}))
	msgs, err := store.List(ctx, "pat-1")
	require.NoError(t, err)
	assert.Nil(t, msgs)
	require.NoError(t, store.Clear(ctx, "pat-1"))
}
