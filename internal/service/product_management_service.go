package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/repository"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type productStore interface {
	ListPaged(ctx context.Context, f repository.ProductFilter, page, limit int) ([]models.Product, int, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	Variants(ctx context.Context, productID int) ([]models.ProductVariant, error)
	Images(ctx context.Context, productID int) ([]models.ProductImage, error)
	ImagesFor(ctx context.Context, productIDs []int) (map[int][]models.ProductImage, error)
	ImageReferenced(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, tx *sqlx.Tx, p *models.Product) error
	Update(ctx context.Context, tx *sqlx.Tx, p *models.Product) error
	ReplaceVariants(ctx context.Context, tx *sqlx.Tx, productID int, variants []models.ProductVariant) error
	ReplaceImages(ctx context.Context, tx *sqlx.Tx, productID int, images []models.ProductImage) error
	SetActive(ctx context.Context, id int, active bool) error
	Delete(ctx context.Context, id int) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner func(ctx context.Context, fn func(tx *sqlx.Tx) error) error

type objectRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// VariantInput is one variant of a product save request.
type VariantInput struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// ImageInput is one image of a product save request.
type ImageInput struct {
	ImageURL     string `json:"imageUrl"`
	DisplayOrder *int   `json:"displayOrder"`
}

// ProductRequest is the full desired state of a product. Variants and images
// replace whatever the product had before.
type ProductRequest struct {
	Title       string          `json:"title" binding:"required"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	CategoryID  *int            `json:"categoryId"`
	IsActive    *bool           `json:"isActive"`
	Variants    []VariantInput  `json:"variants"`
	Images      []ImageInput    `json:"images"`
}

// ProductSaveResult carries the saved product and any non-fatal cleanup problem.
type ProductSaveResult struct {
	Product *models.Product `json:"product"`
	Warning string          `json:"warning,omitempty"`
}

// ProductManagementService handles product CRUD operations.
type ProductManagementService struct {
	products productStore
	inTx     TxRunner
	storage  objectRemover
	feeds    cacheInvalidator
}

// NewProductManagementService constructs a ProductManagementService.
func NewProductManagementService(products productStore, inTx TxRunner, storage objectRemover, feeds cacheInvalidator) *ProductManagementService {
	return &ProductManagementService{products: products, inTx: inTx, storage: storage, feeds: feeds}
}

func (req *ProductRequest) toModels() (*models.Product, []models.ProductVariant, []models.ProductImage, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, nil, nil, fmt.Errorf("title is required: %w", utils.ErrInvalidInput)
	}
	if req.BasePrice.IsNegative() {
		return nil, nil, nil, fmt.Errorf("base price cannot be negative: %w", utils.ErrInvalidInput)
	}
	slug := utils.Slugify(req.Slug)
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if slug == "" {
		return nil, nil, nil, fmt.Errorf("slug cannot be derived from title: %w", utils.ErrInvalidInput)
	}

	variants := make([]models.ProductVariant, 0, len(req.Variants))
	for i, v := range req.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return nil, nil, nil, fmt.Errorf("variant %d: name is required: %w", i, utils.ErrInvalidInput)
		}
		if v.Price.IsNegative() || v.StockQuantity < 0 {
			return nil, nil, nil, fmt.Errorf("variant %d: price and stock cannot be negative: %w", i, utils.ErrInvalidInput)
		}
		variants = append(variants, models.ProductVariant{
			Name:          strings.TrimSpace(v.Name),
			SKU:           strings.TrimSpace(v.SKU),
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
		})
	}

	images := make([]models.ProductImage, 0, len(req.Images))
	for i, img := range req.Images {
		if strings.TrimSpace(img.ImageURL) == "" {
			return nil, nil, nil, fmt.Errorf("image %d: url is required: %w", i, utils.ErrInvalidInput)
		}
		order := i
		if img.DisplayOrder != nil {
			order = *img.DisplayOrder
		}
		images = append(images, models.ProductImage{ImageURL: strings.TrimSpace(img.ImageURL), DisplayOrder: order})
	}

	p := &models.Product{
		Title:       title,
		Slug:        slug,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		CategoryID:  req.CategoryID,
		HasVariants: len(variants) > 0,
		IsActive:    true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return p, variants, images, nil
}

// CreateProduct stores a product with its variants and images in one transaction.
func (s *ProductManagementService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	p, variants, images, err := req.toModels()
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.products.Create(ctx, tx, p); err != nil {
			return err
		}
		if err := s.products.ReplaceVariants(ctx, tx, p.ID, variants); err != nil {
			return err
		}
		return s.products.ReplaceImages(ctx, tx, p.ID, images)
	})
	if err != nil {
		return nil, err
	}
	p.Variants, p.Images = variants, images
	s.invalidateFeeds(ctx)
	log.Info().Int("product_id", p.ID).Str("slug", p.Slug).Msg("Product created")
	return p, nil
}

// UpdateProduct replaces the product header, variants and images atomically. Storage
// objects no longer referenced by the product are deleted after the commit.
func (s *ProductManagementService) UpdateProduct(ctx context.Context, id int, req *ProductRequest) (*ProductSaveResult, error) {
	p, variants, images, err := req.toModels()
	if err != nil {
		return nil, err
	}
	p.ID = id

	oldImages, err := s.products.Images(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.products.Update(ctx, tx, p); err != nil {
			return err
		}
		if err := s.products.ReplaceVariants(ctx, tx, id, variants); err != nil {
			return err
		}
		return s.products.ReplaceImages(ctx, tx, id, images)
	})
	if err != nil {
		return nil, err
	}
	p.Variants, p.Images = variants, images

	result := &ProductSaveResult{Product: p}
	if failed := s.removeOrphans(ctx, oldImages, images); failed > 0 {
		result.Warning = fmt.Sprintf("%d unused image file(s) could not be removed from storage", failed)
	}
	s.invalidateFeeds(ctx)
	log.Info().Int("product_id", id).Int("variants", len(variants)).Int("images", len(images)).Msg("Product updated")
	return result, nil
}

// OrphanedImages returns URLs present in before but absent from after. Callers still
// check other products before deleting the files.
func OrphanedImages(before, after []models.ProductImage) []string {
	keep := make(map[string]struct{}, len(after))
	for _, img := range after {
		keep[img.ImageURL] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, img := range before {
		if _, ok := keep[img.ImageURL]; ok {
			continue
		}
		if _, dup := seen[img.ImageURL]; dup {
			continue
		}
		seen[img.ImageURL] = struct{}{}
		out = append(out, img.ImageURL)
	}
	return out
}

func (s *ProductManagementService) removeOrphans(ctx context.Context, before, after []models.ProductImage) int {
	failed := 0
	for _, url := range OrphanedImages(before, after) {
		used, err := s.products.ImageReferenced(ctx, url)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("url", url).Msg("Failed to check image references")
			continue
		}
		if used {
			continue
		}
		if err := s.storage.DeleteByURL(ctx, url); err != nil {
			failed++
			log.Warn().Err(err).Str("url", url).Msg("Failed to delete orphaned image")
		}
	}
	return failed
}

// GetProduct returns a product with variants and images.
func (s *ProductManagementService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Variants, err = s.products.Variants(ctx, id); err != nil {
		return nil, err
	}
	if p.Images, err = s.products.Images(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns products for the back office, active or not.
func (s *ProductManagementService) ListProducts(ctx context.Context, f repository.ProductFilter, page, limit int) ([]models.Product, int, error) {
	products, total, err := s.products.ListPaged(ctx, f, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := attachImages(ctx, s.products, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SetActive toggles product visibility.
func (s *ProductManagementService) SetActive(ctx context.Context, id int, active bool) error {
	if err := s.products.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidateFeeds(ctx)
	return nil
}

// DeleteProduct removes a product and its stored images. Products referenced by
// orders cannot be deleted.
func (s *ProductManagementService) DeleteProduct(ctx context.Context, id int) error {
	images, err := s.products.Images(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.removeOrphans(ctx, images, nil)
	s.invalidateFeeds(ctx)
	log.Info().Int("product_id", id).Msg("Product deleted")
	return nil
}

func (s *ProductManagementService) invalidateFeeds(ctx context.Context) {
	if s.feeds == nil {
		return
	}
	if err := s.feeds.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate feed cache")
	}
}

type imageLoader interface {
	ImagesFor(ctx context.Context, productIDs []int) (map[int][]models.ProductImage, error)
}

// attachImages loads images for a page of products with one query.
func attachImages(ctx context.Context, loader imageLoader, products []models.Product) error {
	ids := make([]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	byProduct, err := loader.ImagesFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range products {
		products[i].Images = byProduct[products[i].ID]
	}
	return nil
}
