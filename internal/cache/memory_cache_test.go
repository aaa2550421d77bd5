package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title"`
}

func newTestCache(max int, ttl time.Duration) (*MemoryCache, *time.Time) {
	c := NewMemoryCache(max, ttl)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(4, time.Minute)

	require.NoError(t, c.SetJSON(ctx, "k", payload{Title: "Engineer"}, 0))

	var got payload
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Engineer", got.Title)

	hit, err = c.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(4, time.Minute)

	require.NoError(t, c.SetJSON(ctx, "k", payload{Title: "x"}, 0))
	*now = now.Add(61 * time.Second)

	var got payload
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(2, time.Hour)

	require.NoError(t, c.SetJSON(ctx, "a", payload{Title: "a"}, 0))
	*now = now.Add(time.Second)
	require.NoError(t, c.SetJSON(ctx, "b", payload{Title: "b"}, 0))
	*now = now.Add(time.Second)
	require.NoError(t, c.SetJSON(ctx, "c", payload{Title: "c"}, 0))

	assert.Equal(t, 2, c.Len())
	var got payload
	hit, _ := c.GetJSON(ctx, "a", &got)
	assert.False(t, hit)
	hit, _ = c.GetJSON(ctx, "c", &got)
	assert.True(t, hit)
}

func TestMemoryCacheDel(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(4, time.Hour)

	require.NoError(t, c.SetJSON(ctx, "a", payload{}, 0))
	require.NoError(t, c.Del(ctx, "a", "unknown"))
	assert.Equal(t, 0, c.Len())
}
