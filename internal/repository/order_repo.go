package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/models"
)

// OrderRepository handles data access for orders and order items.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, guest_info, status, items_total, shipping_fee, total_amount,
        shipping_address, payment_method, payment_id, gateway_order_id, idempotency_key,
        created_at, updated_at`

// Create inserts the order header and fills ID and timestamps.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	const q = `
        INSERT INTO orders (user_id, guest_info, status, items_total, shipping_fee, total_amount,
            shipping_address, payment_method, payment_id, gateway_order_id, idempotency_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		o.UserID, o.Guest, o.Status, o.ItemsTotal, o.ShippingFee, o.TotalAmount,
		o.ShippingAddress, o.PaymentMethod, o.PaymentID, o.GatewayOrderID, o.IdempotencyKey,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return mapError("create order", err)
}

// CreateItems inserts every line of an order. It stops at the first failure.
func (r *OrderRepository) CreateItems(ctx context.Context, orderID int, items []models.OrderItem) error {
	const q = `
        INSERT INTO order_items (order_id, product_id, variant_id, product_title, variant_name,
            quantity, unit_price, total_price)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return mapError("prepare order items", err)
	}
	defer stmt.Close()

	for i := range items {
		it := &items[i]
		it.OrderID = orderID
		if err := stmt.QueryRowxContext(ctx, orderID, it.ProductID, it.VariantID, it.ProductTitle,
			it.VariantName, it.Quantity, it.UnitPrice, it.TotalPrice).Scan(&it.ID); err != nil {
			return mapError("create order item", err)
		}
	}
	return nil
}

// GetByID returns an order header.
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	var o models.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		return nil, mapError("get order", err)
	}
	return &o, nil
}

// GetByIdempotencyKey returns the order created with the given key.
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var o models.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key); err != nil {
		return nil, mapError("get order by idempotency key", err)
	}
	return &o, nil
}

// Items returns the lines of an order.
func (r *OrderRepository) Items(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	const q = `SELECT id, order_id, product_id, variant_id, product_title, variant_name,
        quantity, unit_price, total_price FROM order_items WHERE order_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &items, q, orderID); err != nil {
		return nil, mapError("list order items", err)
	}
	return items, nil
}

// ListByUser returns a customer's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &orders, q, userID); err != nil {
		return nil, mapError("list user orders", err)
	}
	return orders, nil
}

// ListPaged returns orders optionally filtered by status, newest first.
func (r *OrderRepository) ListPaged(ctx context.Context, status string, page, limit int) ([]models.Order, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM orders WHERE ($1 = '' OR status = $1)`, status); err != nil {
		return nil, 0, mapError("count orders", err)
	}

	orders := []models.Order{}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &orders, q, status, limit, offset); err != nil {
		return nil, 0, mapError("list orders", err)
	}
	return orders, total, nil
}

// UpdateStatus changes the status of an order. Status is the only mutable order field.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return mapError("update order status", err)
	}
	return requireAffected("update order status", res)
}

// CountByStatus returns the number of orders per status.
func (r *OrderRepository) CountByStatus(ctx context.Context) ([]models.OrderStatusCount, error) {
	counts := []models.OrderStatusCount{}
	const q = `SELECT status, COUNT(1) AS count FROM orders GROUP BY status ORDER BY status`
	if err := r.db.SelectContext(ctx, &counts, q); err != nil {
		return nil, mapError("count orders by status", err)
	}
	return counts, nil
}

// Revenue sums totals of orders that were not cancelled or returned.
func (r *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	const q = `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status NOT IN ('Cancelled', 'Returned')`
	if err := r.db.GetContext(ctx, &total, q); err != nil {
		return decimal.Zero, mapError("sum revenue", err)
	}
	return total, nil
}

// Recent returns the latest orders for the dashboard.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	q := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &orders, q, limit); err != nil {
		return nil, mapError("recent orders", err)
	}
	return orders, nil
}
