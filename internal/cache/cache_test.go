package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutAddrIsNop(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	require.NoError(t, c.Set(context.Background(), "k", 1))
	var v int
	found, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewUnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

// Runs only when FOODGRAM_TEST_REDIS points at a live server.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("FOODGRAM_TEST_REDIS")
	if addr == "" {
		t.Skip("FOODGRAM_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := New(ctx, Config{Addr: addr, TTL: time.Minute, Prefix: "foodgram-test:"})
	require.NoError(t, err)

	type item struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Set(ctx, "ingredients:fl", []item{{Name: "flour"}}))

	var got []item
	found, err := c.Get(ctx, "ingredients:fl", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "flour", got[0].Name)

	require.NoError(t, c.DeletePrefix(ctx, "ingredients:"))
	found, err = c.Get(ctx, "ingredients:fl", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
