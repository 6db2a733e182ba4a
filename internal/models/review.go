package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Review is a customer rating of a product. Reviews are hidden until approved,
// and there is at most one per (product, user).
type Review struct {
	ID           int       `db:"id" json:"id"`
	ProductID    int       `db:"product_id" json:"productId"`
	UserID       string    `db:"user_id" json:"userId"`
	Rating       int       `db:"rating" json:"rating"`
	ReviewText   string    `db:"review_text" json:"reviewText"`
	ReviewerName string    `db:"reviewer_name" json:"reviewerName"`
	IsApproved   bool      `db:"is_approved" json:"isApproved"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	ProductTitle *string `db:"product_title" json:"productTitle,omitempty"`
	TimeAgo      string  `db:"-" json:"timeAgo,omitempty"`
}

// RatingSummary aggregates approved reviews of a product.
type RatingSummary struct {
	Count   int             `db:"count" json:"count"`
	Average decimal.Decimal `db:"average" json:"average"`
}

// WishlistEntry is a saved (user, product) pair with a product summary for display.
type WishlistEntry struct {
	ID        int       `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	ProductID int       `db:"product_id" json:"productId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Title     string          `db:"title" json:"title"`
	Slug      string          `db:"slug" json:"slug"`
	BasePrice decimal.Decimal `db:"base_price" json:"basePrice"`
	ImageURL  *string         `db:"image_url" json:"imageUrl,omitempty"`
}
