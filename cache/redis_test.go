package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersWithoutClient(t *testing.T) {
	Client = nil
	ctx := context.Background()

	_, err := Get(ctx, "discussions:page:1:limit:20")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, Set(ctx, "k", []byte("v"), time.Second), ErrNotInitialized)

	assert.NoError(t, Delete(ctx, "sitemap:xml", "sitemap:news"))
	assert.NoError(t, DeleteByPrefix(ctx, "discussions:"))
	assert.NoError(t, Close())
}

func TestInitRejectsBadURL(t *testing.T) {
	err := Init("not-a-redis-url://")
	assert.Error(t, err)
	assert.Nil(t, Client)
}

func TestOptionsFallBackToAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("REDIS_PASSWORD", "hunter2")

	opt, err := options("")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opt.Addr)
	assert.Equal(t, "hunter2", opt.Password)

	opt, err = options("redis://:secret@localhost:6390/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", opt.Addr)
	assert.Equal(t, 2, opt.DB)
}
