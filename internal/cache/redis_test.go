package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/cart"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisClientFrom(client), mr
}

func TestRedisGetMiss(t *testing.T) {
	rc, _ := newTestRedis(t)
	_, err := rc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestIncrWindowExpiresFromFirstIncrement(t *testing.T) {
	rc, mr := newTestRedis(t)
	ctx := context.Background()

	n, err := rc.IncrWindow(ctx, "w", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 15*time.Minute, mr.TTL("w"))

	mr.FastForward(5 * time.Minute)
	n, err = rc.IncrWindow(ctx, "w", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 10*time.Minute, mr.TTL("w"))

	mr.FastForward(10*time.Minute + time.Second)
	n, err = rc.Count(ctx, "w")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOTPCounterWindow(t *testing.T) {
	rc, mr := newTestRedis(t)
	ctx := context.Background()
	counter := NewOTPCounter(rc, 15*time.Minute)

	n, err := counter.Recent(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 11; i++ {
		_, err := counter.Issued(ctx, "Asha@Example.com")
		require.NoError(t, err)
	}
	n, err = counter.Recent(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	mr.FastForward(15*time.Minute + time.Second)
	n, err = counter.Recent(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCartStore(t *testing.T) {
	rc, mr := newTestRedis(t)
	ctx := context.Background()
	store := NewCartStore(rc)

	st, err := store.Load(ctx, "tok")
	require.NoError(t, err)
	assert.NotNil(t, st.Items)
	assert.Empty(t, st.Items)

	variantPrice := decimal.RequireFromString("650")
	saved := cart.State{Items: []cart.Line{
		{ProductID: 1, Title: "Oak Lamp", BasePrice: decimal.RequireFromString("500"), Quantity: 2},
		{ProductID: 2, Title: "Jute Rug", BasePrice: decimal.RequireFromString("600"), VariantPrice: &variantPrice, Quantity: 1},
	}}
	require.NoError(t, store.Save(ctx, "tok", saved))
	assert.Equal(t, 30*24*time.Hour, mr.TTL("cart:tok"))

	st, err = store.Load(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, st.Items, 2)
	assert.Equal(t, "Jute Rug", st.Items[1].Title)
	assert.Equal(t, "1650", st.Subtotal().String())

	require.NoError(t, store.Delete(ctx, "tok"))
	st, err = store.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, st.Items)
}

func TestCartStoreRejectsCorruptValue(t *testing.T) {
	rc, mr := newTestRedis(t)
	require.NoError(t, mr.Set("cart:tok", "{not json"))

	_, err := NewCartStore(rc).Load(context.Background(), "tok")
	assert.Error(t, err)
}

func TestFeedCache(t *testing.T) {
	rc, mr := newTestRedis(t)
	ctx := context.Background()
	fc := NewFeedCache(rc)

	_, ok, err := fc.Get(ctx, "tsv")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fc.Put(ctx, "tsv", "id\ttitle\n"))
	require.NoError(t, fc.Put(ctx, "sitemap", "<urlset/>"))
	body, ok, err := fc.Get(ctx, "tsv")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "id\ttitle\n", body)
	assert.Equal(t, 10*time.Minute, mr.TTL("feed:tsv"))

	require.NoError(t, fc.Invalidate(ctx))
	_, ok, err = fc.Get(ctx, "sitemap")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(feedIndexKey))
}
