package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showrunner-ai/showrunner/core"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewFromClient(client, "test:", 0)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndLoad(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "s-1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	sess, err := store.Create(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", sess.ID)

	loaded, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", loaded.ID)
	assert.Empty(t, loaded.GetTurns())
}

func TestCommitRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	_, err := store.Create(ctx, "s-1")
	require.NoError(t, err)

	turn := core.NewTurn("upload my video")
	turn.Status = core.TurnSuccess
	turn.Messages = append(turn.Messages, core.NewMessage("upload", core.MessageSuccess, core.MediaReference{
		MediaID: "m-1", Kind: "video", URL: "https://cdn/m-1",
	}))
	require.NoError(t, store.Commit(ctx, "s-1", turn))

	loaded, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	turns := loaded.GetTurns()
	require.Len(t, turns, 1)
	assert.Equal(t, turn.ID, turns[0].ID)
	assert.Equal(t, core.TurnSuccess, turns[0].Status)

	require.Len(t, turns[0].Messages, 1)
	ref, ok := turns[0].Messages[0].Content.(core.MediaReference)
	require.True(t, ok)
	assert.Equal(t, "m-1", ref.MediaID)
}

func TestCommitIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	_, err := store.Create(ctx, "s-1")
	require.NoError(t, err)

	turn := core.NewTurn("hello")
	require.NoError(t, store.Commit(ctx, "s-1", turn))
	require.NoError(t, store.Commit(ctx, "s-1", turn))

	loaded, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, loaded.GetTurns(), 1)
}

func TestCommitUnknownSession(t *testing.T) {
	store := setupStore(t)
	err := store.Commit(context.Background(), "missing", core.NewTurn("hello"))
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestListOrdered(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	for _, id := range []string{"s-b", "s-a"} {
		_, err := store.Create(ctx, id)
		require.NoError(t, err)
	}

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-a", sessions[0].ID)
	assert.Equal(t, "s-b", sessions[1].ID)
}
