package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/repository"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// ProductManagementHandler handles admin product CRUD and image uploads.
type ProductManagementHandler struct {
	service *service.ProductManagementService
	storage *service.StorageService
}

// NewProductManagementHandler creates a new ProductManagementHandler.
func NewProductManagementHandler(svc *service.ProductManagementService, storage *service.StorageService) *ProductManagementHandler {
	return &ProductManagementHandler{service: svc, storage: storage}
}

// ListProducts handles GET /v1/admin/products
func (h *ProductManagementHandler) ListProducts(c *gin.Context) {
	page, limit := pageParams(c)
	filter := repository.ProductFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		IsActive:     boolQuery(c, "isActive"),
	}
	products, total, err := h.service.ListProducts(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err, "Failed to list products")
		return
	}
	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", products, page, limit, total)
}

// GetProduct handles GET /v1/admin/products/:id
func (h *ProductManagementHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", product)
}

// CreateProduct handles POST /v1/admin/products
func (h *ProductManagementHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	product, err := h.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}
	utils.Success(c, 201, "Product created successfully", product)
}

// UpdateProduct handles PUT /v1/admin/products/:id
func (h *ProductManagementHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	result, err := h.service.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}
	if result.Warning != "" {
		utils.SuccessWithWarning(c, 200, "Product updated successfully", result.Product, result.Warning)
		return
	}
	utils.Success(c, 200, "Product updated successfully", result.Product)
}

type toggleRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// ToggleProduct handles PATCH /v1/admin/products/:id/active
func (h *ProductManagementHandler) ToggleProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.service.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		respondError(c, err, "Failed to update product")
		return
	}
	utils.Success(c, 200, "Product updated successfully", gin.H{"id": id, "isActive": *req.IsActive})
}

// DeleteProduct handles DELETE /v1/admin/products/:id
func (h *ProductManagementHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}
	utils.Success(c, 200, "Product deleted successfully", nil)
}

// UploadImage handles POST /v1/admin/uploads (multipart field "file")
func (h *ProductManagementHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "file is required")
		return
	}
	if fh.Size > service.MaxUploadBytes {
		utils.Error(c, 413, "FILE_TOO_LARGE", "Image must be 5MB or smaller")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadBytes+1))
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	if len(data) > service.MaxUploadBytes {
		utils.Error(c, 413, "FILE_TOO_LARGE", "Image must be 5MB or smaller")
		return
	}

	img, err := h.storage.UploadImage(c.Request.Context(), fh.Filename, data)
	if err != nil {
		respondError(c, err, "Failed to upload image")
		return
	}
	utils.Success(c, 201, "Image uploaded successfully", img)
}
