package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/decorhaus/storefront_api/internal/models"
)

// FeedColumns is the fixed column order of the TSV product feed.
var FeedColumns = []string{
	"id", "title", "description", "availability", "condition", "price",
	"link", "image_link", "brand", "product_type", "additional_image_link",
}

// StaticRoutes are storefront pages always listed in the sitemap.
var StaticRoutes = []string{
	"/", "/products", "/about", "/contact", "/faq",
	"/shipping-policy", "/returns", "/privacy-policy", "/terms",
}

type feedSource interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	VariantsFor(ctx context.Context, productIDs []int) (map[int][]models.ProductVariant, error)
	ImagesFor(ctx context.Context, productIDs []int) (map[int][]models.ProductImage, error)
}

type documentCache interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Put(ctx context.Context, name, body string) error
}

// FeedOptions describes the storefront for generated documents.
type FeedOptions struct {
	SiteURL  string
	Brand    string
	Currency string
}

// FeedService renders merchant feeds and the sitemap from active products.
type FeedService struct {
	source feedSource
	cache  documentCache
	opts   FeedOptions
	now    func() time.Time
}

// NewFeedService constructs a FeedService. cache may be nil.
func NewFeedService(source feedSource, cache documentCache, opts FeedOptions) *FeedService {
	opts.SiteURL = strings.TrimSuffix(opts.SiteURL, "/")
	return &FeedService{source: source, cache: cache, opts: opts, now: time.Now}
}

// FeedEntry is one product flattened for feeds.
type FeedEntry struct {
	ID               string
	Title            string
	Description      string
	Availability     string
	Condition        string
	Price            string
	Link             string
	ImageLink        string
	Brand            string
	ProductType      string
	AdditionalImages []string
	UpdatedAt        time.Time
}

func (s *FeedService) entries(ctx context.Context) ([]FeedEntry, error) {
	products, err := s.source.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	variants, err := s.source.VariantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	images, err := s.source.ImagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]FeedEntry, 0, len(products))
	for i := range products {
		p := &products[i]
		p.Variants = variants[p.ID]
		p.Images = images[p.ID]
		out = append(out, s.entry(p))
	}
	return out, nil
}

func (s *FeedService) entry(p *models.Product) FeedEntry {
	e := FeedEntry{
		ID:          fmt.Sprintf("%d", p.ID),
		Title:       p.Title,
		Description: flatten(p.Description),
		Condition:   "new",
		Price:       fmt.Sprintf("%s %s", p.BasePrice.StringFixed(2), s.opts.Currency),
		Link:        s.opts.SiteURL + "/products/" + p.Slug,
		ImageLink:   p.PrimaryImage(),
		Brand:       s.opts.Brand,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.InStock() {
		e.Availability = "in stock"
	} else {
		e.Availability = "out of stock"
	}
	if p.CategoryName != nil {
		e.ProductType = *p.CategoryName
	}
	for i, img := range p.Images {
		if i == 0 {
			continue
		}
		e.AdditionalImages = append(e.AdditionalImages, img.ImageURL)
	}
	return e
}

// flatten collapses whitespace so a description fits on one TSV line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *FeedService) cached(ctx context.Context, name string, build func(context.Context) (string, error)) (string, error) {
	if s.cache != nil {
		body, ok, err := s.cache.Get(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("feed", name).Msg("Feed cache read failed")
		} else if ok {
			return body, nil
		}
	}
	body, err := build(ctx)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, name, body); err != nil {
			log.Warn().Err(err).Str("feed", name).Msg("Feed cache write failed")
		}
	}
	return body, nil
}

// TSV returns the tab-separated merchant feed.
func (s *FeedService) TSV(ctx context.Context) (string, error) {
	return s.cached(ctx, "tsv", s.buildTSV)
}

func (s *FeedService) buildTSV(ctx context.Context) (string, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return "", err
	}
	return RenderTSV(entries)
}

// RenderTSV writes entries in FeedColumns order with a header row.
func RenderTSV(entries []FeedEntry) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	if err := w.Write(FeedColumns); err != nil {
		return "", err
	}
	for _, e := range entries {
		row := []string{
			e.ID, e.Title, e.Description, e.Availability, e.Condition, e.Price,
			e.Link, e.ImageLink, e.Brand, e.ProductType, strings.Join(e.AdditionalImages, ","),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	NSG     string     `xml:"xmlns:g,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	ID               string   `xml:"g:id"`
	Title            string   `xml:"title"`
	Description      string   `xml:"description"`
	Link             string   `xml:"link"`
	ImageLink        string   `xml:"g:image_link,omitempty"`
	AdditionalImages []string `xml:"g:additional_image_link,omitempty"`
	Availability     string   `xml:"g:availability"`
	Condition        string   `xml:"g:condition"`
	Price            string   `xml:"g:price"`
	Brand            string   `xml:"g:brand"`
	ProductType      string   `xml:"g:product_type,omitempty"`
}

// RSS returns the RSS 2.0 merchant feed with g: namespaced fields.
func (s *FeedService) RSS(ctx context.Context) (string, error) {
	return s.cached(ctx, "rss", s.buildRSS)
}

func (s *FeedService) buildRSS(ctx context.Context) (string, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return "", err
	}
	doc := rssDocument{
		Version: "2.0",
		NSG:     "http://base.google.com/ns/1.0",
		Channel: rssChannel{
			Title:       s.opts.Brand,
			Link:        s.opts.SiteURL,
			Description: s.opts.Brand + " product feed",
		},
	}
	for _, e := range entries {
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			ID:               e.ID,
			Title:            e.Title,
			Description:      e.Description,
			Link:             e.Link,
			ImageLink:        e.ImageLink,
			AdditionalImages: e.AdditionalImages,
			Availability:     e.Availability,
			Condition:        e.Condition,
			Price:            e.Price,
			Brand:            e.Brand,
			ProductType:      e.ProductType,
		})
	}
	return marshalXML(doc)
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap returns the sitemap of static routes and active product pages.
func (s *FeedService) Sitemap(ctx context.Context) (string, error) {
	return s.cached(ctx, "sitemap", s.buildSitemap)
}

func (s *FeedService) buildSitemap(ctx context.Context) (string, error) {
	products, err := s.source.ListActive(ctx)
	if err != nil {
		return "", err
	}
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	today := s.now().UTC().Format("2006-01-02")
	for _, route := range StaticRoutes {
		priority := "0.5"
		if route == "/" {
			priority = "1.0"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.opts.SiteURL + route,
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}
	for _, p := range products {
		u := sitemapURL{
			Loc:        s.opts.SiteURL + "/products/" + p.Slug,
			ChangeFreq: "daily",
			Priority:   "0.8",
		}
		if !p.UpdatedAt.IsZero() {
			u.LastMod = p.UpdatedAt.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	return marshalXML(set)
}

func marshalXML(v interface{}) (string, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(body), nil
}
