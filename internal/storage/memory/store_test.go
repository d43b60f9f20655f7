package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shinacap/internal/storage"
)

func TestStoreGetMissing(t *testing.T) {
	_, err := NewStore().Get(context.Background(), "folder/2024v2.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorePutAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Put(ctx, "k", []byte(`{"a":1}`), storage.PutOptions{ContentType: storage.ContentTypeJSON}))
	obj, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(obj.Data))
	assert.Equal(t, storage.ContentETag([]byte(`{"a":1}`)), obj.ETag)
	assert.Equal(t, 1, store.Puts("k"))
}

func TestStoreConditionalPut(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.Set("k", []byte("v1"))

	obj, err := store.Get(ctx, "k")
	require.NoError(t, err)

	// A concurrent writer changes the object after our read.
	require.NoError(t, store.Put(ctx, "k", []byte("v2"), storage.PutOptions{}))

	err = store.Put(ctx, "k", []byte("v3"), storage.PutOptions{IfMatch: obj.ETag})
	assert.ErrorIs(t, err, storage.ErrPreconditionFailed)

	err = store.Put(ctx, "k", []byte("v3"), storage.PutOptions{IfNoneMatch: "*"})
	assert.ErrorIs(t, err, storage.ErrPreconditionFailed)

	require.NoError(t, store.Put(ctx, "new", []byte("v1"), storage.PutOptions{IfNoneMatch: "*"}))
}

func TestStoreInjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("access denied")
	store.FailGet("k", boom)
	store.FailPut("k", boom)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Put(ctx, "k", nil, storage.PutOptions{}), boom)
	assert.Equal(t, 0, store.Puts("k"))
}
