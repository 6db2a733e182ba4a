package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/service"
)

// FeedHandler serves merchant feeds and the sitemap as raw documents.
type FeedHandler struct {
	feeds *service.FeedService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feeds *service.FeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

func (h *FeedHandler) serve(c *gin.Context, contentType string, render func(ctx context.Context) (string, error)) {
	body, err := render(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to generate feed")
		return
	}
	c.Header("Cache-Control", "public, max-age=600")
	c.Data(200, contentType, []byte(body))
}

// TSV handles GET /feeds/products.tsv
func (h *FeedHandler) TSV(c *gin.Context) {
	h.serve(c, "text/tab-separated-values; charset=utf-8", h.feeds.TSV)
}

// RSS handles GET /feeds/products.xml
func (h *FeedHandler) RSS(c *gin.Context) {
	h.serve(c, "application/xml; charset=utf-8", h.feeds.RSS)
}

// Sitemap handles GET /sitemap.xml
func (h *FeedHandler) Sitemap(c *gin.Context) {
	h.serve(c, "application/xml; charset=utf-8", h.feeds.Sitemap)
}
