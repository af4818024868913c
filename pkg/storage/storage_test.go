package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func newBolt(t *testing.T) *bbolt.DB {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db.bolt"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { bdb.Close() })
	return bdb
}

func TestDBStoragePutGetDel(t *testing.T) {
	ctx := context.Background()
	s := NewDBStorage(newBolt(t), []byte("objects"))

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "a", []byte("hello")))
	data, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, s.Put(ctx, "a", []byte("updated")))
	data, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), data)

	require.NoError(t, s.Del(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a nonexistent key is not an error.
	require.NoError(t, s.Del(ctx, "a"))
}

func TestDBStorageList(t *testing.T) {
	ctx := context.Background()
	s := NewDBStorage(newBolt(t), []byte("objects"))

	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	for id, v := range want {
		require.NoError(t, s.Put(ctx, id, []byte(v)))
	}

	got := map[string]string{}
	err := s.List(ctx, func(id string, b []byte) error {
		got[id] = string(b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDBStorageListPropagatesCallbackError(t *testing.T) {
	ctx := context.Background()
	s := NewDBStorage(newBolt(t), []byte("objects"))
	require.NoError(t, s.Put(ctx, "a", []byte("1")))

	boom := errors.New("boom")
	err := s.List(ctx, func(id string, b []byte) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestCachedStoragePutGetDel(t *testing.T) {
	ctx := context.Background()
	cache := NewDBStorage(newBolt(t), []byte("cache"))
	permanent := NewDBStorage(newBolt(t), []byte("permanent"))

	cs, err := NewCachedStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	require.NoError(t, cs.Put(ctx, "a", []byte("hello")))

	// the write must land in permanent storage directly, not just the cache.
	data, err := permanent.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	got, err := cs.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, cs.Del(ctx, "a"))
	_, err = cs.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = permanent.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStorageFallsThroughOnMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewDBStorage(newBolt(t), []byte("cache"))
	permanent := NewDBStorage(newBolt(t), []byte("permanent"))

	// an object that already exists in permanent storage, but was never
	// written through the cache, must still be reachable.
	require.NoError(t, permanent.Put(ctx, "preexisting", []byte("data")))

	cs, err := NewCachedStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	got, err := cs.Get(ctx, "preexisting")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestCachedStorageRebuildsIndexFromExistingCache(t *testing.T) {
	ctx := context.Background()
	cacheDB := newBolt(t)
	cache := NewDBStorage(cacheDB, []byte("cache"))
	permanent := NewDBStorage(newBolt(t), []byte("permanent"))

	require.NoError(t, cache.Put(ctx, "warm", []byte("cached already")))

	cs, err := NewCachedStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	assert.True(t, cs.cacheHas("warm"))
}
