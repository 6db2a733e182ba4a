package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/repository"
	"github.com/decorhaus/storefront_api/internal/sse"
	"github.com/decorhaus/storefront_api/internal/utils"
	"github.com/decorhaus/storefront_api/pkg/notify"
)

const itemsNotSavedWarning = "Your order was received but some items could not be recorded. Our team will contact you to confirm it."

type orderStore interface {
	Create(ctx context.Context, o *models.Order) error
	CreateItems(ctx context.Context, orderID int, items []models.OrderItem) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	Items(ctx context.Context, orderID int) ([]models.OrderItem, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListPaged(ctx context.Context, status string, page, limit int) ([]models.Order, int, error)
	UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error
}

type catalogLookup interface {
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error)
	VariantsByIDs(ctx context.Context, ids []int) (map[int]*models.ProductVariant, error)
}

// ShippingPolicy prices delivery for an order.
type ShippingPolicy struct {
	Fee decimal.Decimal
	// FreeAbove waives the fee when itemsTotal reaches it. Zero disables the waiver.
	FreeAbove decimal.Decimal
}

// FeeFor returns the shipping fee charged for itemsTotal.
func (p ShippingPolicy) FeeFor(itemsTotal decimal.Decimal) decimal.Decimal {
	if p.FreeAbove.IsPositive() && itemsTotal.GreaterThanOrEqual(p.FreeAbove) {
		return decimal.Zero
	}
	return p.Fee
}

// Buyer identifies who places an order. A nil UserID is a guest checkout.
type Buyer struct {
	UserID *string
	Email  string
}

// OrderLineRequest is one cart line submitted at checkout.
type OrderLineRequest struct {
	ProductID    int             `json:"productId"`
	VariantID    *int            `json:"variantId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ProductTitle string          `json:"productTitle"`
	VariantName  *string         `json:"variantName"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	Guest           *models.GuestInfo       `json:"guestInfo"`
	Items           []OrderLineRequest      `json:"items"`
	PaymentMethod   models.PaymentMethod    `json:"paymentMethod"`
	PaymentID       *string                 `json:"paymentId"`
	GatewayOrderID  *string                 `json:"gatewayOrderId"`
}

// PlacementResult reports both phases of order placement separately.
type PlacementResult struct {
	Order          *models.Order `json:"order"`
	OrderCreated   bool          `json:"orderCreated"`
	ItemsPersisted bool          `json:"itemsPersisted"`
	Replayed       bool          `json:"replayed"`
	Warning        string        `json:"warning,omitempty"`
}

// StaleLine explains why a submitted cart line no longer matches the catalog.
type StaleLine struct {
	Index     int    `json:"index"`
	ProductID int    `json:"productId"`
	VariantID *int   `json:"variantId,omitempty"`
	Reason    string `json:"reason"`
}

// StaleCartError lists every cart line that failed server-side re-validation.
type StaleCartError struct {
	Lines []StaleLine
}

func (e *StaleCartError) Error() string {
	return fmt.Sprintf("cart is stale: %d line(s) no longer valid", len(e.Lines))
}

func (e *StaleCartError) Unwrap() error { return utils.ErrCartStale }

// OrderService places and manages orders.
type OrderService struct {
	orders   orderStore
	catalog  catalogLookup
	shipping ShippingPolicy
	notifier sse.OrderNotifier
	email    notify.EmailSender
	brand    string
}

// NewOrderService constructs an OrderService.
func NewOrderService(orders orderStore, catalog catalogLookup, shipping ShippingPolicy, notifier sse.OrderNotifier, email notify.EmailSender, brand string) *OrderService {
	if notifier == nil {
		notifier = sse.NopNotifier{}
	}
	if email == nil {
		email = notify.LogSender{}
	}
	return &OrderService{
		orders:   orders,
		catalog:  catalog,
		shipping: shipping,
		notifier: notifier,
		email:    email,
		brand:    brand,
	}
}

// BuildItems turns checkout lines into order items with total_price = unit_price × quantity
// and returns their sum.
func BuildItems(lines []OrderLineRequest) ([]models.OrderItem, decimal.Decimal) {
	items := make([]models.OrderItem, 0, len(lines))
	sum := decimal.Zero
	for _, l := range lines {
		total := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			ProductTitle: l.ProductTitle,
			VariantName:  l.VariantName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			TotalPrice:   total,
		})
		sum = sum.Add(total)
	}
	return items, sum
}

func validatePlaceOrder(buyer Buyer, req *PlaceOrderRequest) error {
	if req == nil || req.ShippingAddress == nil {
		return fmt.Errorf("shipping address is required: %w", utils.ErrInvalidInput)
	}
	a := req.ShippingAddress
	if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Line1) == "" ||
		strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("shipping address is incomplete: %w", utils.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("order has no items: %w", utils.ErrInvalidInput)
	}
	for i, it := range req.Items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			return fmt.Errorf("item %d: product and a quantity of at least 1 are required: %w", i, utils.ErrInvalidInput)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price cannot be negative: %w", i, utils.ErrInvalidInput)
		}
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("payment method must be cod or razorpay: %w", utils.ErrInvalidInput)
	}
	if req.PaymentMethod == models.PaymentMethodRazorpay && (req.PaymentID == nil || *req.PaymentID == "") {
		return fmt.Errorf("payment id is required for online payments: %w", utils.ErrInvalidInput)
	}
	if buyer.UserID == nil && (req.Guest == nil || strings.TrimSpace(req.Guest.Email) == "") {
		return fmt.Errorf("guest contact details are required: %w", utils.ErrInvalidInput)
	}
	return nil
}

// revalidate checks every line against the live catalog and fills missing snapshots.
func (s *OrderService) revalidate(ctx context.Context, lines []OrderLineRequest) error {
	productIDs := make([]int, 0, len(lines))
	variantIDs := make([]int, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
		if l.VariantID != nil {
			variantIDs = append(variantIDs, *l.VariantID)
		}
	}

	products, err := s.catalog.GetByIDs(ctx, productIDs)
	if err != nil {
		return err
	}
	variants, err := s.catalog.VariantsByIDs(ctx, variantIDs)
	if err != nil {
		return err
	}

	// Quantities of the same variant across lines share one stock pool.
	wanted := make(map[int]int)
	for _, l := range lines {
		if l.VariantID != nil {
			wanted[*l.VariantID] += l.Quantity
		}
	}

	var stale []StaleLine
	for i := range lines {
		l := &lines[i]
		mark := func(reason string) {
			stale = append(stale, StaleLine{Index: i, ProductID: l.ProductID, VariantID: l.VariantID, Reason: reason})
		}

		p, ok := products[l.ProductID]
		if !ok {
			mark("product no longer exists")
			continue
		}
		if !p.IsActive {
			mark("product is no longer available")
			continue
		}
		if l.ProductTitle == "" {
			l.ProductTitle = p.Title
		}

		current := p.BasePrice
		if l.VariantID != nil {
			v, ok := variants[*l.VariantID]
			if !ok || v.ProductID != p.ID {
				mark("variant does not belong to product")
				continue
			}
			if v.AvailableStock() < wanted[v.ID] {
				mark(fmt.Sprintf("only %d left in stock", v.AvailableStock()))
				continue
			}
			if l.VariantName == nil {
				name := v.Name
				l.VariantName = &name
			}
			current = v.Price
		} else if p.HasVariants {
			mark("a variant must be selected")
			continue
		}

		if !l.UnitPrice.Equal(current) {
			mark(fmt.Sprintf("price changed to %s", current.StringFixed(2)))
		}
	}

	if len(stale) > 0 {
		return &StaleCartError{Lines: stale}
	}
	return nil
}

// PlaceOrder validates the checkout, records the order header and then its items.
// When the header is stored but the items are not, the result still reports success
// with ItemsPersisted=false and a warning instead of discarding the order.
func (s *OrderService) PlaceOrder(ctx context.Context, buyer Buyer, req *PlaceOrderRequest, idemKey string) (*PlacementResult, error) {
	if err := validatePlaceOrder(buyer, req); err != nil {
		return nil, err
	}

	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" {
		if res, err := s.replay(ctx, idemKey); err == nil {
			return res, nil
		} else if !errors.Is(err, utils.ErrNotFound) {
			return nil, err
		}
	}

	lines := append([]OrderLineRequest(nil), req.Items...)
	if err := s.revalidate(ctx, lines); err != nil {
		return nil, err
	}

	items, itemsTotal := BuildItems(lines)
	fee := s.shipping.FeeFor(itemsTotal)

	order := &models.Order{
		UserID:          buyer.UserID,
		Guest:           req.Guest,
		Status:          models.OrderStatusPending,
		ItemsTotal:      itemsTotal,
		ShippingFee:     fee,
		TotalAmount:     itemsTotal.Add(fee),
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentID:       req.PaymentID,
		GatewayOrderID:  req.GatewayOrderID,
	}
	if buyer.UserID != nil {
		order.Guest = nil
	}
	if idemKey != "" {
		order.IdempotencyKey = &idemKey
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if idemKey != "" && errors.Is(err, utils.ErrAlreadyExists) {
			// Lost a race with a concurrent request carrying the same key.
			return s.replay(ctx, idemKey)
		}
		log.Error().Err(err).Msg("Failed to create order header")
		return nil, err
	}

	result := &PlacementResult{Order: order, OrderCreated: true, ItemsPersisted: true}
	if err := s.orders.CreateItems(ctx, order.ID, items); err != nil {
		log.Error().Err(err).Int("order_id", order.ID).Int("items", len(items)).
			Msg("Order header saved but items failed")
		result.ItemsPersisted = false
		result.Warning = itemsNotSavedWarning
	} else {
		order.Items = items
	}

	log.Info().
		Int("order_id", order.ID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Str("payment_method", string(order.PaymentMethod)).
		Bool("guest", order.IsGuest()).
		Msg("Order placed")

	s.notifier.NotifyOrderCreated(order)
	s.sendConfirmation(ctx, order, buyer)
	return result, nil
}

func (s *OrderService) replay(ctx context.Context, key string) (*PlacementResult, error) {
	existing, err := s.orders.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.Items(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	existing.Items = items
	log.Info().Int("order_id", existing.ID).Msg("Replayed order placement for idempotency key")
	return &PlacementResult{
		Order:          existing,
		OrderCreated:   true,
		ItemsPersisted: len(items) > 0,
		Replayed:       true,
	}, nil
}

func (s *OrderService) sendConfirmation(ctx context.Context, o *models.Order, buyer Buyer) {
	to := buyer.Email
	if to == "" {
		to = o.ContactEmail()
	}
	if to == "" {
		return
	}
	subject := fmt.Sprintf("%s order #%d received", s.brand, o.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d.\n\n", o.ID)
	for _, it := range o.Items {
		name := it.ProductTitle
		if it.VariantName != nil {
			name += " (" + *it.VariantName + ")"
		}
		fmt.Fprintf(&b, "%d x %s  %s\n", it.Quantity, name, it.TotalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nItems: %s\nShipping: %s\nTotal: %s\n",
		o.ItemsTotal.StringFixed(2), o.ShippingFee.StringFixed(2), o.TotalAmount.StringFixed(2))

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.email.SendEmail(sendCtx, to, subject, b.String()); err != nil {
		log.Warn().Err(err).Int("order_id", o.ID).Msg("Order confirmation email failed")
	}
}

// ListForUser returns a customer's orders.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetForUser returns an order with items if it belongs to userID.
func (s *OrderService) GetForUser(ctx context.Context, userID string, id int) (*models.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", id, utils.ErrNotFound)
	}
	return o, nil
}

// Get returns an order with its items.
func (s *OrderService) Get(ctx context.Context, id int) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// List returns orders for the back office.
func (s *OrderService) List(ctx context.Context, status string, page, limit int) ([]models.Order, int, error) {
	if status != "" && !models.OrderStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", status, utils.ErrInvalidStatus)
	}
	return s.orders.ListPaged(ctx, status, page, limit)
}

// UpdateStatus moves an order to a new status.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, utils.ErrInvalidStatus)
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Int("order_id", id).Str("status", string(status)).Msg("Order status updated")
	s.notifier.NotifyOrderStatusChanged(o)
	return o, nil
}

var _ orderStore = (*repository.OrderRepository)(nil)
var _ catalogLookup = (*repository.ProductRepository)(nil)
