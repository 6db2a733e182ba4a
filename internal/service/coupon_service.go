package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type couponStore interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetByID(ctx context.Context, id int) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) error
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id int) error
}

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount a coupon grants on cartTotal. It never
// exceeds cartTotal nor, for percentage coupons, the configured cap.
func ComputeDiscount(c *models.Coupon, cartTotal decimal.Decimal) decimal.Decimal {
	if !cartTotal.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch c.DiscountType {
	case models.DiscountFlat:
		d = c.DiscountValue
	case models.DiscountPercentage:
		d = cartTotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount.Valid && d.GreaterThan(c.MaxDiscountAmount.Decimal) {
			d = c.MaxDiscountAmount.Decimal
		}
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(cartTotal) {
		d = cartTotal
	}
	return d.Round(2)
}

// CouponCheck is the outcome of a successful coupon validation.
type CouponCheck struct {
	Code           string          `json:"code"`
	DiscountType   string          `json:"discountType"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// CouponRequest creates or updates a coupon.
type CouponRequest struct {
	Code              string           `json:"code" binding:"required"`
	DiscountType      string           `json:"discountType" binding:"required,oneof=flat percentage"`
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	MinOrderAmount    decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	IsActive          *bool            `json:"isActive"`
	ExpiresAt         *time.Time       `json:"expiresAt"`
}

// CouponService validates coupon codes and manages coupons.
type CouponService struct {
	coupons couponStore
	now     func() time.Time
}

// NewCouponService constructs a CouponService.
func NewCouponService(coupons couponStore) *CouponService {
	return &CouponService{coupons: coupons, now: time.Now}
}

// Validate looks the code up and computes its discount on cartTotal.
func (s *CouponService) Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*CouponCheck, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("coupon code is required: %w", utils.ErrInvalidInput)
	}
	c, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.ErrCouponNotFound
		}
		return nil, err
	}
	if !c.IsActive {
		return nil, utils.ErrCouponInactive
	}
	if c.ExpiresAt != nil && !s.now().Before(*c.ExpiresAt) {
		return nil, utils.ErrCouponExpired
	}
	if cartTotal.LessThan(c.MinOrderAmount) {
		return nil, fmt.Errorf("minimum order is %s: %w", c.MinOrderAmount.StringFixed(2), utils.ErrCouponMinNotMet)
	}
	return &CouponCheck{
		Code:           c.Code,
		DiscountType:   string(c.DiscountType),
		DiscountAmount: ComputeDiscount(c, cartTotal),
	}, nil
}

// List returns all coupons.
func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.List(ctx)
}

func (req *CouponRequest) apply(c *models.Coupon) error {
	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("code is required: %w", utils.ErrInvalidInput)
	}
	t := models.DiscountType(req.DiscountType)
	if t != models.DiscountFlat && t != models.DiscountPercentage {
		return fmt.Errorf("discount type must be flat or percentage: %w", utils.ErrInvalidInput)
	}
	if !req.DiscountValue.IsPositive() {
		return fmt.Errorf("discount value must be positive: %w", utils.ErrInvalidInput)
	}
	if t == models.DiscountPercentage && req.DiscountValue.GreaterThan(hundred) {
		return fmt.Errorf("percentage cannot exceed 100: %w", utils.ErrInvalidInput)
	}
	if req.MinOrderAmount.IsNegative() {
		return fmt.Errorf("minimum order amount cannot be negative: %w", utils.ErrInvalidInput)
	}
	c.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	c.DiscountType = t
	c.DiscountValue = req.DiscountValue
	c.MinOrderAmount = req.MinOrderAmount
	c.MaxDiscountAmount = decimal.NullDecimal{}
	if req.MaxDiscountAmount != nil {
		c.MaxDiscountAmount = decimal.NewNullDecimal(*req.MaxDiscountAmount)
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	c.ExpiresAt = req.ExpiresAt
	return nil
}

// Create adds a coupon. Codes are unique regardless of case.
func (s *CouponService) Create(ctx context.Context, req *CouponRequest) (*models.Coupon, error) {
	c := &models.Coupon{IsActive: true}
	if err := req.apply(c); err != nil {
		return nil, err
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update rewrites a coupon.
func (s *CouponService) Update(ctx context.Context, id int, req *CouponRequest) (*models.Coupon, error) {
	c, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(c); err != nil {
		return nil, err
	}
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a coupon.
func (s *CouponService) Delete(ctx context.Context, id int) error {
	return s.coupons.Delete(ctx, id)
}
