package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/repository"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type catalogStore interface {
	ListPaged(ctx context.Context, f repository.ProductFilter, page, limit int) ([]models.Product, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Variants(ctx context.Context, productID int) ([]models.ProductVariant, error)
	Images(ctx context.Context, productID int) ([]models.ProductImage, error)
	ImagesFor(ctx context.Context, productIDs []int) (map[int][]models.ProductImage, error)
}

type reviewReader interface {
	ListApproved(ctx context.Context, productID int) ([]models.Review, error)
	Summary(ctx context.Context, productID int) (*models.RatingSummary, error)
}

// ProductDetail is a product page: the product with children, rating and reviews.
type ProductDetail struct {
	*models.Product
	InStock bool                  `json:"inStock"`
	Rating  *models.RatingSummary `json:"rating"`
	Reviews []models.Review       `json:"reviews"`
}

// CatalogService serves the public storefront catalog.
type CatalogService struct {
	products catalogStore
	reviews  reviewReader
	now      func() time.Time
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(products catalogStore, reviews reviewReader) *CatalogService {
	return &CatalogService{products: products, reviews: reviews, now: time.Now}
}

// ListProducts returns active products with their images.
func (s *CatalogService) ListProducts(ctx context.Context, categorySlug, search string, page, limit int) ([]models.Product, int, error) {
	f := repository.ProductFilter{CategorySlug: categorySlug, Search: search, OnlyActive: true}
	products, total, err := s.products.ListPaged(ctx, f, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := attachImages(ctx, s.products, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetProduct returns the product page for slug. Inactive products are not found.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, utils.ErrNotFound
	}

	detail := &ProductDetail{Product: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.products.Variants(gctx, p.ID)
		p.Variants = v
		return err
	})
	g.Go(func() error {
		imgs, err := s.products.Images(gctx, p.ID)
		p.Images = imgs
		return err
	})
	g.Go(func() error {
		sum, err := s.reviews.Summary(gctx, p.ID)
		detail.Rating = sum
		return err
	})
	g.Go(func() error {
		rv, err := s.reviews.ListApproved(gctx, p.ID)
		detail.Reviews = rv
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	for i := range detail.Reviews {
		detail.Reviews[i].TimeAgo = utils.TimeAgo(detail.Reviews[i].CreatedAt, now)
	}
	detail.InStock = p.InStock()
	return detail, nil
}
