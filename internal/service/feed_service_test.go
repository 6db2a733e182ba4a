package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/models"
)

type staticFeedSource struct {
	products []models.Product
	variants map[int][]models.ProductVariant
	images   map[int][]models.ProductImage
	calls    int
}

func (s *staticFeedSource) ListActive(context.Context) ([]models.Product, error) {
	s.calls++
	return append([]models.Product(nil), s.products...), nil
}

func (s *staticFeedSource) VariantsFor(context.Context, []int) (map[int][]models.ProductVariant, error) {
	return s.variants, nil
}

func (s *staticFeedSource) ImagesFor(context.Context, []int) (map[int][]models.ProductImage, error) {
	return s.images, nil
}

type mapCache struct {
	docs map[string]string
}

func (c *mapCache) Get(_ context.Context, name string) (string, bool, error) {
	body, ok := c.docs[name]
	return body, ok, nil
}

func (c *mapCache) Put(_ context.Context, name, body string) error {
	c.docs[name] = body
	return nil
}

func newFeedFixture() (*FeedService, *staticFeedSource, *mapCache) {
	category := "Lighting"
	src := &staticFeedSource{
		products: []models.Product{
			{ID: 7, Title: "Brass Lamp", Slug: "brass-lamp", Description: "Warm light.\nHand finished.",
				BasePrice: dec("2400"), CategoryName: &category, HasVariants: true, IsActive: true,
				UpdatedAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)},
			{ID: 8, Title: "Jute Rug", Slug: "jute-rug", BasePrice: dec("1800.5"), IsActive: true},
		},
		variants: map[int][]models.ProductVariant{
			7: {{ID: 1, ProductID: 7, Name: "Small", StockQuantity: 0}},
		},
		images: map[int][]models.ProductImage{
			7: {{ImageURL: "https://cdn.example.com/a.jpg"}, {ImageURL: "https://cdn.example.com/b.jpg"}, {ImageURL: "https://cdn.example.com/c.jpg"}},
		},
	}
	cache := &mapCache{docs: map[string]string{}}
	svc := NewFeedService(src, cache, FeedOptions{SiteURL: "https://shop.example.com/", Brand: "Decorhaus", Currency: "INR"})
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, src, cache
}

func TestTSVFeed(t *testing.T) {
	svc, _, _ := newFeedFixture()

	body, err := svc.TSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(FeedColumns, "\t"), lines[0])

	lamp := strings.Split(lines[1], "\t")
	require.Len(t, lamp, len(FeedColumns))
	assert.Equal(t, "7", lamp[0])
	assert.Equal(t, "Warm light. Hand finished.", lamp[2])
	assert.Equal(t, "out of stock", lamp[3])
	assert.Equal(t, "2400.00 INR", lamp[5])
	assert.Equal(t, "https://shop.example.com/products/brass-lamp", lamp[6])
	assert.Equal(t, "https://cdn.example.com/a.jpg", lamp[7])
	assert.Equal(t, "Lighting", lamp[9])
	assert.Equal(t, "https://cdn.example.com/b.jpg,https://cdn.example.com/c.jpg", lamp[10])

	rug := strings.Split(lines[2], "\t")
	assert.Equal(t, "in stock", rug[3])
	assert.Equal(t, "1800.50 INR", rug[5])
	assert.Equal(t, "", rug[9])
}

func TestRSSFeed(t *testing.T) {
	svc, _, _ := newFeedFixture()

	body, err := svc.RSS(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, `xmlns:g="http://base.google.com/ns/1.0"`)
	assert.Contains(t, body, "<g:id>7</g:id>")
	assert.Contains(t, body, "<g:price>2400.00 INR</g:price>")
	assert.Equal(t, 2, strings.Count(body, "<g:additional_image_link>"))
	assert.Equal(t, 2, strings.Count(body, "<item>"))
}

func TestSitemap(t *testing.T) {
	svc, _, _ := newFeedFixture()

	body, err := svc.Sitemap(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(StaticRoutes)+2, strings.Count(body, "<url>"))
	assert.Contains(t, body, "<loc>https://shop.example.com/</loc>")
	assert.Contains(t, body, "<loc>https://shop.example.com/products/brass-lamp</loc>")
	assert.Contains(t, body, "<lastmod>2026-04-02</lastmod>")
	assert.Contains(t, body, "<lastmod>2026-05-01</lastmod>")
}

func TestFeedsAreCached(t *testing.T) {
	svc, src, cache := newFeedFixture()
	ctx := context.Background()

	first, err := svc.TSV(ctx)
	require.NoError(t, err)
	second, err := svc.TSV(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.Contains(t, cache.docs, "tsv")
}
