package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// CatalogHandler serves the public storefront catalogue and site content.
type CatalogHandler struct {
	catalog *service.CatalogService
	content *service.ContentService
	reviews *service.ReviewService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, content *service.ContentService, reviews *service.ReviewService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, content: content, reviews: reviews}
}

// ListProducts handles GET /v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, limit := pageParams(c)
	products, total, err := h.catalog.ListProducts(c.Request.Context(), c.Query("category"), c.Query("search"), page, limit)
	if err != nil {
		respondError(c, err, "Failed to list products")
		return
	}
	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", products, page, limit, total)
}

// GetProduct handles GET /v1/products/:slug
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	detail, err := h.catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", detail)
}

// ListReviews handles GET /v1/reviews?productId=
func (h *CatalogHandler) ListReviews(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("productId"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid productId")
		return
	}
	reviews, err := h.reviews.ListApproved(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to list reviews")
		return
	}
	utils.Success(c, 200, "Reviews retrieved successfully", reviews)
}

// ListCategories handles GET /v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.content.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved successfully", categories)
}

// GetSettings handles GET /v1/settings
func (h *CatalogHandler) GetSettings(c *gin.Context) {
	settings, err := h.content.SettingsMap(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get settings")
		return
	}
	utils.Success(c, 200, "Settings retrieved successfully", settings)
}

// GetPage handles GET /v1/pages/:slug
func (h *CatalogHandler) GetPage(c *gin.Context) {
	page, err := h.content.Page(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to get page")
		return
	}
	utils.Success(c, 200, "Page retrieved successfully", page)
}
