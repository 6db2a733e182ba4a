package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order. It is the only field that
// changes after an order is placed.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusReturned   OrderStatus = "Returned"
)

// OrderStatuses lists every valid status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "cod"
	PaymentMethodRazorpay PaymentMethod = "razorpay"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodRazorpay
}

// ShippingAddress is stored as JSONB on the order row.
type ShippingAddress struct {
	FullName   string `json:"fullName" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
}

// Value implements driver.Valuer for database storage
func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan ShippingAddress")
	}
	return json.Unmarshal(bytes, a)
}

// GuestInfo identifies the buyer of an order placed without an account.
type GuestInfo struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

// Value implements driver.Valuer for database storage
func (g GuestInfo) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner for database retrieval
func (g *GuestInfo) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan GuestInfo")
	}
	return json.Unmarshal(bytes, g)
}

// Order is the persisted header of a customer order. A nil UserID marks a guest order.
type Order struct {
	ID              int             `db:"id" json:"id"`
	UserID          *string         `db:"user_id" json:"userId,omitempty"`
	Guest           *GuestInfo      `db:"guest_info" json:"guestInfo,omitempty"`
	Status          OrderStatus     `db:"status" json:"status"`
	ItemsTotal      decimal.Decimal `db:"items_total" json:"itemsTotal"`
	ShippingFee     decimal.Decimal `db:"shipping_fee" json:"shippingFee"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"totalAmount"`
	ShippingAddress ShippingAddress `db:"shipping_address" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	PaymentID       *string         `db:"payment_id" json:"paymentId,omitempty"`
	GatewayOrderID  *string         `db:"gateway_order_id" json:"gatewayOrderId,omitempty"`
	IdempotencyKey  *string         `db:"idempotency_key" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// IsGuest reports whether the order has no associated account.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// ContactEmail returns the best known email for order notifications.
func (o *Order) ContactEmail() string {
	if o.Guest != nil {
		return o.Guest.Email
	}
	return ""
}

// OrderItem is a line of an order with title/variant snapshots taken at purchase time.
type OrderItem struct {
	ID           int             `db:"id" json:"id"`
	OrderID      int             `db:"order_id" json:"orderId"`
	ProductID    int             `db:"product_id" json:"productId"`
	VariantID    *int            `db:"variant_id" json:"variantId,omitempty"`
	ProductTitle string          `db:"product_title" json:"productTitle"`
	VariantName  *string         `db:"variant_name" json:"variantName,omitempty"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"totalPrice"`
}

// OrderStatusCount is one row of the admin dashboard breakdown.
type OrderStatusCount struct {
	Status OrderStatus `db:"status" json:"status"`
	Count  int         `db:"count" json:"count"`
}
