package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Variants and Images are loaded separately
// and replaced as a whole set whenever the product is saved.
type Product struct {
	ID           int             `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Slug         string          `db:"slug" json:"slug"`
	Description  string          `db:"description" json:"description"`
	BasePrice    decimal.Decimal `db:"base_price" json:"basePrice"`
	CategoryID   *int            `db:"category_id" json:"categoryId,omitempty"`
	CategoryName *string         `db:"category_name" json:"categoryName,omitempty"`
	HasVariants  bool            `db:"has_variants" json:"hasVariants"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`

	Variants []ProductVariant `db:"-" json:"variants,omitempty"`
	Images   []ProductImage   `db:"-" json:"images,omitempty"`
}

// ProductVariant is a purchasable option of a product (size, finish, ...).
type ProductVariant struct {
	ID            int             `db:"id" json:"id"`
	ProductID     int             `db:"product_id" json:"productId"`
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	Price         decimal.Decimal `db:"price" json:"price"`
	StockQuantity int             `db:"stock_quantity" json:"stockQuantity"`
}

// AvailableStock never reports a negative quantity.
func (v ProductVariant) AvailableStock() int {
	if v.StockQuantity < 0 {
		return 0
	}
	return v.StockQuantity
}

// ProductImage points at an object in public storage.
type ProductImage struct {
	ID           int    `db:"id" json:"id"`
	ProductID    int    `db:"product_id" json:"productId"`
	ImageURL     string `db:"image_url" json:"imageUrl"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
}

// InStock reports whether a product can currently be bought.
// Products without variants are sold as long as they are active.
func (p *Product) InStock() bool {
	if !p.IsActive {
		return false
	}
	if !p.HasVariants || len(p.Variants) == 0 {
		return true
	}
	for _, v := range p.Variants {
		if v.AvailableStock() > 0 {
			return true
		}
	}
	return false
}

// PrimaryImage returns the first image by display order, or "".
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].ImageURL
}

// Category groups products in the storefront navigation.
type Category struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
