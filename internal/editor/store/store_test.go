package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStateStoreRoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	store := NewStateStore(client, time.Hour)
	ctx := context.Background()

	missing, err := store.Load(ctx, "s-1", "p-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	st := editor.NewState("p-1")
	st.Loading = false
	st.Product = &editor.Product{ID: "p-1", Name: "Desk Lamp", Images: []string{"a"}}
	st.Draft = editor.NewDraft(*st.Product)
	st.Touched["name"] = true
	st.ExistingImages = []string{"a"}
	st.SelectedFiles = []editor.SelectedFile{{Handle: "h", Name: "x.png", ContentType: "image/png", Size: 3}}
	require.NoError(t, store.Save(ctx, "s-1", st))

	assert.True(t, mr.Exists("editor:s-1:p-1"))
	assert.Equal(t, time.Hour, mr.TTL("editor:s-1:p-1"))

	got, err := store.Load(ctx, "s-1", "p-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Ready())
	assert.Equal(t, "Desk Lamp", got.Draft.Name)
	assert.True(t, got.Touched["name"])
	assert.Equal(t, st.SelectedFiles, got.SelectedFiles)

	other, err := store.Load(ctx, "s-2", "p-1")
	require.NoError(t, err)
	assert.Nil(t, other, "state is scoped to the session")

	require.NoError(t, store.Delete(ctx, "s-1", "p-1"))
	assert.False(t, mr.Exists("editor:s-1:p-1"))
}

func TestPreviewStoreLifecycle(t *testing.T) {
	mr, client := newRedis(t)
	previews := NewPreviewStore(client, 30*time.Minute).ForSession("s-1")
	ctx := context.Background()

	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	handle, err := previews.Acquire(ctx, editor.Preview{Name: "shot.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)
	key := "editor:s-1:preview:" + handle
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	got, err := previews.Open(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, "shot.png", got.Name)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, data, got.Data)

	_, err = NewPreviewStore(client, time.Minute).ForSession("s-2").Open(ctx, handle)
	assert.ErrorIs(t, err, editor.ErrPreviewNotFound)

	require.NoError(t, previews.Release(ctx, handle))
	require.NoError(t, previews.Release(ctx, handle))
	assert.False(t, mr.Exists(key))

	_, err = previews.Open(ctx, handle)
	assert.ErrorIs(t, err, editor.ErrPreviewNotFound)

	_, err = previews.Open(ctx, "../../etc")
	assert.ErrorIs(t, err, editor.ErrPreviewNotFound)
}

func TestSubmitLocks(t *testing.T) {
	mr, client := newRedis(t)
	locks := NewSubmitLocks(client, time.Minute)
	ctx := context.Background()

	unlock, err := locks.For("s-1", "p-1").TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("editor:s-1:p-1:submit"))

	_, err = locks.For("s-1", "p-1").TryLock(ctx)
	assert.ErrorIs(t, err, editor.ErrSubmitInFlight)

	otherUnlock, err := locks.For("s-1", "p-2").TryLock(ctx)
	require.NoError(t, err)
	otherUnlock()

	unlock()
	assert.False(t, mr.Exists("editor:s-1:p-1:submit"))

	again, err := locks.For("s-1", "p-1").TryLock(ctx)
	require.NoError(t, err)
	again()
}

func TestSubmitLockUnlockKeepsForeignToken(t *testing.T) {
	mr, client := newRedis(t)
	locks := NewSubmitLocks(client, time.Minute)
	ctx := context.Background()

	unlock, err := locks.For("s-1", "p-1").TryLock(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("editor:s-1:p-1:submit", "someone-else"))

	unlock()
	assert.True(t, mr.Exists("editor:s-1:p-1:submit"))
}
