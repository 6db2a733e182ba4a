package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/decorhaus/storefront_api/internal/models"
)

// ReviewRepository handles data access for product reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert creates the review for (product, user) or overwrites the existing one.
// Any edit sends the review back to moderation.
func (r *ReviewRepository) Upsert(ctx context.Context, rv *models.Review) error {
	const q = `
        INSERT INTO reviews (product_id, user_id, rating, review_text, reviewer_name, is_approved)
        VALUES ($1, $2, $3, $4, $5, false)
        ON CONFLICT (product_id, user_id) DO UPDATE SET
            rating = EXCLUDED.rating,
            review_text = EXCLUDED.review_text,
            reviewer_name = EXCLUDED.reviewer_name,
            is_approved = false,
            updated_at = NOW()
        RETURNING id, is_approved, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q, rv.ProductID, rv.UserID, rv.Rating, rv.ReviewText, rv.ReviewerName).
		Scan(&rv.ID, &rv.IsApproved, &rv.CreatedAt, &rv.UpdatedAt)
	return mapError("upsert review", err)
}

// ListApproved returns approved reviews of a product, newest first.
func (r *ReviewRepository) ListApproved(ctx context.Context, productID int) ([]models.Review, error) {
	reviews := []models.Review{}
	const q = `SELECT id, product_id, user_id, rating, review_text, reviewer_name, is_approved,
        created_at, updated_at FROM reviews
        WHERE product_id = $1 AND is_approved = true ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &reviews, q, productID); err != nil {
		return nil, mapError("list approved reviews", err)
	}
	return reviews, nil
}

// Summary aggregates approved ratings of a product.
func (r *ReviewRepository) Summary(ctx context.Context, productID int) (*models.RatingSummary, error) {
	var s models.RatingSummary
	const q = `SELECT COUNT(1) AS count, COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS average
        FROM reviews WHERE product_id = $1 AND is_approved = true`
	if err := r.db.GetContext(ctx, &s, q, productID); err != nil {
		return nil, mapError("review summary", err)
	}
	return &s, nil
}

// ListPaged returns reviews for moderation; approved filters when not nil.
func (r *ReviewRepository) ListPaged(ctx context.Context, approved *bool, page, limit int) ([]models.Review, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(1) FROM reviews WHERE ($1::boolean IS NULL OR is_approved = $1)`, approved); err != nil {
		return nil, 0, mapError("count reviews", err)
	}

	reviews := []models.Review{}
	const q = `SELECT r.id, r.product_id, r.user_id, r.rating, r.review_text, r.reviewer_name,
        r.is_approved, r.created_at, r.updated_at, p.title AS product_title
        FROM reviews r LEFT JOIN products p ON p.id = r.product_id
        WHERE ($1::boolean IS NULL OR r.is_approved = $1)
        ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &reviews, q, approved, limit, offset); err != nil {
		return nil, 0, mapError("list reviews", err)
	}
	return reviews, total, nil
}

// SetApproved changes the moderation flag of a review.
func (r *ReviewRepository) SetApproved(ctx context.Context, id int, approved bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reviews SET is_approved = $1, updated_at = NOW() WHERE id = $2`, approved, id)
	if err != nil {
		return mapError("approve review", err)
	}
	return requireAffected("approve review", res)
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return mapError("delete review", err)
	}
	return requireAffected("delete review", res)
}

// CountPending returns the number of reviews awaiting moderation.
func (r *ReviewRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM reviews WHERE is_approved = false`); err != nil {
		return 0, mapError("count pending reviews", err)
	}
	return n, nil
}

// WishlistRepository handles data access for wishlist entries.
type WishlistRepository struct {
	db *sqlx.DB
}

// NewWishlistRepository creates a new WishlistRepository.
func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// List returns the wishlist of a user with a product summary per entry.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	entries := []models.WishlistEntry{}
	const q = `
        SELECT w.id, w.user_id, w.product_id, w.created_at, p.title, p.slug, p.base_price,
            (SELECT i.image_url FROM product_images i WHERE i.product_id = p.id
             ORDER BY i.display_order, i.id LIMIT 1) AS image_url
        FROM wishlists w JOIN products p ON p.id = w.product_id
        WHERE w.user_id = $1 ORDER BY w.created_at DESC, w.id DESC`
	if err := r.db.SelectContext(ctx, &entries, q, userID); err != nil {
		return nil, mapError("list wishlist", err)
	}
	return entries, nil
}

// Add saves a product for a user. A duplicate pair fails with ErrAlreadyExists.
func (r *WishlistRepository) Add(ctx context.Context, userID string, productID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO wishlists (user_id, product_id) VALUES ($1, $2)`, userID, productID)
	return mapError("add wishlist entry", err)
}

// Remove deletes a product from a user's wishlist.
func (r *WishlistRepository) Remove(ctx context.Context, userID string, productID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return mapError("remove wishlist entry", err)
	}
	return requireAffected("remove wishlist entry", res)
}
