package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/decorhaus/storefront_api/internal/cart"
)

const (
	cartTTL      = 30 * 24 * time.Hour
	feedTTL      = 10 * time.Minute
	feedIndexKey = "feed:keys"
)

// CartStore persists cart state per anonymous cart token.
type CartStore struct {
	redis *RedisClient
}

// NewCartStore creates a new CartStore.
func NewCartStore(redis *RedisClient) *CartStore {
	return &CartStore{redis: redis}
}

func (s *CartStore) key(token string) string {
	return fmt.Sprintf("cart:%s", token)
}

// Load returns the stored cart, or an empty cart when none is stored.
func (s *CartStore) Load(ctx context.Context, token string) (cart.State, error) {
	raw, err := s.redis.Get(ctx, s.key(token))
	if errors.Is(err, ErrMiss) {
		return cart.State{Items: []cart.Line{}}, nil
	}
	if err != nil {
		return cart.State{}, err
	}
	var st cart.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return cart.State{}, fmt.Errorf("decode cart: %w", err)
	}
	if st.Items == nil {
		st.Items = []cart.Line{}
	}
	return st, nil
}

// Save writes the cart and refreshes its expiry.
func (s *CartStore) Save(ctx context.Context, token string, st cart.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, s.key(token), string(raw), cartTTL)
}

// Delete drops the stored cart.
func (s *CartStore) Delete(ctx context.Context, token string) error {
	return s.redis.Delete(ctx, s.key(token))
}

// OTPCounter counts OTP issuances per target in a rolling window.
type OTPCounter struct {
	redis  *RedisClient
	window time.Duration
}

// NewOTPCounter creates a new OTPCounter.
func NewOTPCounter(redis *RedisClient, window time.Duration) *OTPCounter {
	return &OTPCounter{redis: redis, window: window}
}

func (c *OTPCounter) key(target string) string {
	return "otp:issued:" + strings.ToLower(target)
}

// Issued records one issuance and returns the count in the current window.
func (c *OTPCounter) Issued(ctx context.Context, target string) (int64, error) {
	return c.redis.IncrWindow(ctx, c.key(target), c.window)
}

// Recent returns the number of issuances in the current window.
func (c *OTPCounter) Recent(ctx context.Context, target string) (int64, error) {
	return c.redis.Count(ctx, c.key(target))
}

// FeedCache keeps generated feed and sitemap documents for a short time.
type FeedCache struct {
	redis *RedisClient
}

// NewFeedCache creates a new FeedCache.
func NewFeedCache(redis *RedisClient) *FeedCache {
	return &FeedCache{redis: redis}
}

// Get returns a cached document. ok is false on a miss.
func (c *FeedCache) Get(ctx context.Context, name string) (string, bool, error) {
	v, err := c.redis.Get(ctx, "feed:"+name)
	if errors.Is(err, ErrMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Put stores a document under name.
func (c *FeedCache) Put(ctx context.Context, name, body string) error {
	if err := c.redis.Set(ctx, "feed:"+name, body, feedTTL); err != nil {
		return err
	}
	return c.redis.client.SAdd(ctx, feedIndexKey, "feed:"+name).Err()
}

// Invalidate drops every cached document.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	keys, err := c.redis.client.SMembers(ctx, feedIndexKey).Result()
	if err != nil {
		return err
	}
	return c.redis.Delete(ctx, append(keys, feedIndexKey)...)
}
