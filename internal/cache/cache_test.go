package cache_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duewatch/internal/cache"
)

// stores runs each test against every Store implementation.
func stores(t *testing.T) map[string]func() cache.Store {
	return map[string]func() cache.Store{
		"memory": func() cache.Store { return cache.NewMemoryStore() },
		"sqlite": func() cache.Store {
			s, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func entry(url, body string) cache.Entry {
	return cache.Entry{
		URL:      url,
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": []string{"text/css"}},
		Body:     []byte(body),
		StoredAt: time.Date(2025, 4, 9, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_PutAndMatch(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()

			require.NoError(t, s.Put(ctx, "v1",
				entry("http://app/static/style.css", "body{}"),
				entry("http://app/", "<html>"),
			))

			got, err := s.Match(ctx, "http://app/static/style.css")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, http.StatusOK, got.Status)
			assert.Equal(t, []byte("body{}"), got.Body)
			assert.Equal(t, "text/css", got.Header.Get("Content-Type"))
			assert.True(t, got.StoredAt.Equal(time.Date(2025, 4, 9, 12, 0, 0, 0, time.UTC)))

			miss, err := s.Match(ctx, "http://app/missing.js")
			require.NoError(t, err)
			assert.Nil(t, miss)
		})
	}
}

func TestStore_MatchSearchesBucketsInCreationOrder(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()

			require.NoError(t, s.Put(ctx, "v1", entry("http://app/", "old")))
			require.NoError(t, s.Put(ctx, "v2", entry("http://app/", "new")))

			got, err := s.Match(ctx, "http://app/")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "old", string(got.Body))

			buckets, err := s.Buckets(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"v1", "v2"}, buckets)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()

			require.NoError(t, s.Put(ctx, "v1", entry("http://app/", "old")))
			require.NoError(t, s.Put(ctx, "v2", entry("http://app/", "new")))

			deleted, err := s.Delete(ctx, "v1")
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.Delete(ctx, "v1")
			require.NoError(t, err)
			assert.False(t, deleted)

			got, err := s.Match(ctx, "http://app/")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "new", string(got.Body))

			buckets, err := s.Buckets(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"v2"}, buckets)
		})
	}
}

func TestStore_EmptyBucketName(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := open().Put(context.Background(), "", entry("http://app/", "x"))
			assert.ErrorIs(t, err, cache.ErrEmptyBucket)
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "prioritymaster-v1", entry("http://app/static/script.js", "run()")))
	require.NoError(t, s.Close())

	s, err = cache.OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Match(ctx, "http://app/static/script.js")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run()", string(got.Body))
}
