package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/decorhaus/storefront_api/internal/models"
)

// CouponRepository handles data access for coupons.
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository creates a new CouponRepository.
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `id, code, discount_type, discount_value, min_order_amount,
        max_discount_amount, is_active, expires_at, created_at`

// GetByCode looks a coupon up case-insensitively.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	if err := r.db.GetContext(ctx, &c, q, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		return nil, mapError("get coupon", err)
	}
	return &c, nil
}

// GetByID returns a coupon by id.
func (r *CouponRepository) GetByID(ctx context.Context, id int) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db.GetContext(ctx, &c, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id); err != nil {
		return nil, mapError("get coupon", err)
	}
	return &c, nil
}

// List returns every coupon, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	coupons := []models.Coupon{}
	if err := r.db.SelectContext(ctx, &coupons, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, mapError("list coupons", err)
	}
	return coupons, nil
}

// Create inserts a coupon. The code is stored upper-cased.
func (r *CouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	const q = `
        INSERT INTO coupons (code, discount_type, discount_value, min_order_amount,
            max_discount_amount, is_active, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, q, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderAmount,
		c.MaxDiscountAmount, c.IsActive, c.ExpiresAt).Scan(&c.ID, &c.CreatedAt)
	return mapError("create coupon", err)
}

// Update rewrites a coupon.
func (r *CouponRepository) Update(ctx context.Context, c *models.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	const q = `
        UPDATE coupons SET code = $1, discount_type = $2, discount_value = $3,
            min_order_amount = $4, max_discount_amount = $5, is_active = $6, expires_at = $7
        WHERE id = $8`
	res, err := r.db.ExecContext(ctx, q, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderAmount,
		c.MaxDiscountAmount, c.IsActive, c.ExpiresAt, c.ID)
	if err != nil {
		return mapError("update coupon", err)
	}
	return requireAffected("update coupon", res)
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return mapError("delete coupon", err)
	}
	return requireAffected("delete coupon", res)
}
