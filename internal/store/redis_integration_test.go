//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/visits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	return client
}

func TestRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	defer client.Close()

	s := store.NewRedisStore(client)
	suffix := uuid.NewString()

	t.Run("create, find and deactivate", func(t *testing.T) {
		url := "https://example.com/" + suffix
		hash := shortener.Hash("rd1" + suffix)

		require.NoError(t, s.Create(ctx, newRecord(hash, url, "tok")))

		got, err := s.FindActiveByURL(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, hash, got.Hash)
		assert.Equal(t, "https", got.Protocol)

		err = s.Create(ctx, newRecord("rd2"+shortener.Hash(suffix), url, "tok"))
		require.ErrorIs(t, err, shortener.ErrURLTaken)

		err = s.Create(ctx, newRecord(hash, url+"/x", "tok"))
		require.ErrorIs(t, err, shortener.ErrHashTaken)

		matched, err := s.Deactivate(ctx, hash, "wrong")
		require.NoError(t, err)
		assert.False(t, matched)

		matched, err = s.Deactivate(ctx, hash, "tok")
		require.NoError(t, err)
		assert.True(t, matched)

		_, err = s.FindActiveByHash(ctx, hash)
		require.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = s.FindActiveByURL(ctx, url)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("visits keep order and skip duplicates", func(t *testing.T) {
		vs := store.NewRedisVisitStore(client)
		hash := shortener.Hash("rdv" + suffix)

		for _, id := range []string{"a", "b", "a"} {
			require.NoError(t, vs.Append(ctx, &visits.Visit{ID: id, Hash: hash, URL: "https://example.com"}))
		}

		got, err := vs.ListByHash(ctx, hash)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})
}
