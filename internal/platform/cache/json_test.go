package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viajes-nova/viajes-api/internal/platform/cache"
)

type option struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := cache.NewJSONCache(client, time.Minute)
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []option{{ID: 1, Name: "Administrador"}}, nil
	}

	var first, second []option
	require.NoError(t, c.FetchJSON(context.Background(), cache.Key("publico", "roles"), &first, loader))
	require.NoError(t, c.FetchJSON(context.Background(), cache.Key("publico", "roles"), &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("viajes:publico:roles"))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(context.Background(), cache.Key("publico", "roles"), &second, loader))
	assert.Equal(t, 2, calls)

	require.NoError(t, c.Invalidate(context.Background(), cache.Key("publico", "roles")))
	assert.False(t, mr.Exists("viajes:publico:roles"))
}

func TestFetchJSONWithoutRedis(t *testing.T) {
	c := cache.NewJSONCache(nil, time.Minute)
	calls := 0
	var out []option
	for i := 0; i < 2; i++ {
		require.NoError(t, c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
			calls++
			return []option{{ID: 2, Name: "Usuario"}}, nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, []option{{ID: 2, Name: "Usuario"}}, out)
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	boom := errors.New("db down")
	var out []option
	err := cache.NewJSONCache(client, time.Minute).FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}
