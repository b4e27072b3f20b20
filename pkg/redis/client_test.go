package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/config"
)

// newTestClient connects to FS_TEST_REDIS_ADDR and skips the test when it is
// unset or unreachable.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("FS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FS_TEST_REDIS_ADDR not set")
	}
	c, err := NewClient(config.RedisConfig{Addr: addr, PoolSize: 2})
	if err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientSetGet(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "fuzzysearch-test:" + t.Name()
	t.Cleanup(func() { c.Del(context.Background(), key) })

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`{"total_hits":2}`), time.Minute))
	data, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"total_hits":2}`, string(data))
	assert.NoError(t, c.Ping(ctx))
}

func TestNewClientFailsWithoutServer(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1", PoolSize: 1})
	assert.Error(t, err)
}
