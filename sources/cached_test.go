package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csmith/albumfinder/cache"
	"github.com/csmith/albumfinder/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	albums []model.Album
	err    error
	calls  int
}

func (f *fakeSource) Albums(context.Context) ([]model.Album, error) {
	f.calls++
	return f.albums, f.err
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "lastfm_alice_overall_100", CacheKey("lastfm", "alice", "overall", 100, false))
	assert.Equal(t, "lastfm_alice_7day_0_mb", CacheKey("lastfm", "alice", "7day", 0, true))
}

func TestCached_Albums(t *testing.T) {
	albums := []model.Album{
		{Artist: "Daft Punk", Title: "Discovery", PlayCount: 12},
		{Artist: "Radiohead", Title: "Kid A", PlayCount: 3, ExternalID: "mbid"},
	}

	t.Run("fetches and caches on a miss", func(t *testing.T) {
		src := &fakeSource{albums: albums}
		cached := &Cached{Source: src, Store: cache.New(t.TempDir()), Key: "key"}

		got, err := cached.Albums(context.Background())
		require.NoError(t, err)
		assert.Equal(t, albums, got)

		got, err = cached.Albums(context.Background())
		require.NoError(t, err)
		assert.Equal(t, albums, got)
		assert.Equal(t, 1, src.calls)
	})

	t.Run("refresh ignores the cache", func(t *testing.T) {
		store := cache.New(t.TempDir())
		require.NoError(t, store.Save("key", []model.Album{{Artist: "Old", Title: "Data", PlayCount: 1}}))

		src := &fakeSource{albums: albums}
		cached := &Cached{Source: src, Store: store, Key: "key", Refresh: true}

		got, err := cached.Albums(context.Background())
		require.NoError(t, err)
		assert.Equal(t, albums, got)
		assert.Equal(t, 1, src.calls)

		var saved []model.Album
		_, err = store.Load("key", &saved)
		require.NoError(t, err)
		assert.Equal(t, albums, saved)
	})

	t.Run("expired entries are refetched", func(t *testing.T) {
		dir := t.TempDir()
		store := cache.New(dir)
		require.NoError(t, store.Save("key", []model.Album{{Artist: "Old", Title: "Data", PlayCount: 1}}))
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "key.json"), []byte(`{"timestamp": "`+old.Format(time.RFC3339)+`", "data": [{"artist": "Old", "title": "Data", "play_count": 1}]}`), 0o644))

		src := &fakeSource{albums: albums}
		cached := &Cached{Source: src, Store: store, Key: "key", MaxAge: 24 * time.Hour}

		got, err := cached.Albums(context.Background())
		require.NoError(t, err)
		assert.Equal(t, albums, got)
		assert.Equal(t, 1, src.calls)
	})

	t.Run("corrupt entries are refetched", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "key.json"), []byte("{not json"), 0o644))

		src := &fakeSource{albums: albums}
		cached := &Cached{Source: src, Store: cache.New(dir), Key: "key"}

		got, err := cached.Albums(context.Background())
		require.NoError(t, err)
		assert.Equal(t, albums, got)
		assert.Equal(t, 1, src.calls)
	})

	t.Run("source errors are returned and not cached", func(t *testing.T) {
		store := cache.New(t.TempDir())
		src := &fakeSource{err: errors.New("boom")}
		cached := &Cached{Source: src, Store: store, Key: "key"}

		_, err := cached.Albums(context.Background())
		assert.EqualError(t, err, "boom")

		_, err = store.Load("key", &[]model.Album{})
		assert.ErrorIs(t, err, cache.ErrMiss)
	})
}
