package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type reviewStore interface {
	Upsert(ctx context.Context, rv *models.Review) error
	ListApproved(ctx context.Context, productID int) ([]models.Review, error)
	ListPaged(ctx context.Context, approved *bool, page, limit int) ([]models.Review, int, error)
	SetApproved(ctx context.Context, id int, approved bool) error
	Delete(ctx context.Context, id int) error
}

type wishlistStore interface {
	List(ctx context.Context, userID string) ([]models.WishlistEntry, error)
	Add(ctx context.Context, userID string, productID int) error
	Remove(ctx context.Context, userID string, productID int) error
}

// ReviewRequest is a customer's review of a product.
type ReviewRequest struct {
	Rating       int    `json:"rating" binding:"required,min=1,max=5"`
	ReviewText   string `json:"reviewText"`
	ReviewerName string `json:"reviewerName"`
}

// ReviewService handles submission, display and moderation of reviews.
type ReviewService struct {
	reviews reviewStore
	now     func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews reviewStore) *ReviewService {
	return &ReviewService{reviews: reviews, now: time.Now}
}

// Submit creates or replaces the caller's review of a product. The review is hidden
// until approved again.
func (s *ReviewService) Submit(ctx context.Context, userID string, productID int, req *ReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", utils.ErrInvalidInput)
	}
	name := strings.TrimSpace(req.ReviewerName)
	if name == "" {
		name = "Customer"
	}
	text := strings.TrimSpace(req.ReviewText)
	if len(text) > 2000 {
		return nil, fmt.Errorf("review is too long: %w", utils.ErrInvalidInput)
	}
	rv := &models.Review{
		ProductID:    productID,
		UserID:       userID,
		Rating:       req.Rating,
		ReviewText:   text,
		ReviewerName: name,
	}
	if err := s.reviews.Upsert(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// ListApproved returns visible reviews of a product with relative timestamps.
func (s *ReviewService) ListApproved(ctx context.Context, productID int) ([]models.Review, error) {
	reviews, err := s.reviews.ListApproved(ctx, productID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range reviews {
		reviews[i].TimeAgo = utils.TimeAgo(reviews[i].CreatedAt, now)
	}
	return reviews, nil
}

// List returns reviews for moderation.
func (s *ReviewService) List(ctx context.Context, approved *bool, page, limit int) ([]models.Review, int, error) {
	return s.reviews.ListPaged(ctx, approved, page, limit)
}

// SetApproved publishes or hides a review.
func (s *ReviewService) SetApproved(ctx context.Context, id int, approved bool) error {
	return s.reviews.SetApproved(ctx, id, approved)
}

// Delete removes a review.
func (s *ReviewService) Delete(ctx context.Context, id int) error {
	return s.reviews.Delete(ctx, id)
}

// WishlistService manages saved products.
type WishlistService struct {
	entries wishlistStore
}

// NewWishlistService constructs a WishlistService.
func NewWishlistService(entries wishlistStore) *WishlistService {
	return &WishlistService{entries: entries}
}

// List returns the caller's wishlist.
func (s *WishlistService) List(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	return s.entries.List(ctx, userID)
}

// Add saves a product. Saving it twice fails with ErrAlreadyExists.
func (s *WishlistService) Add(ctx context.Context, userID string, productID int) error {
	if productID <= 0 {
		return fmt.Errorf("productId is required: %w", utils.ErrInvalidInput)
	}
	return s.entries.Add(ctx, userID, productID)
}

// Remove deletes a saved product.
func (s *WishlistService) Remove(ctx context.Context, userID string, productID int) error {
	return s.entries.Remove(ctx, userID, productID)
}
