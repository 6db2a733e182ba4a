package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

type fakeCatalog struct {
	products map[int]*models.Product
	variants map[int]*models.ProductVariant
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[int]*models.Product{}, variants: map[int]*models.ProductVariant{}}
}

func (f *fakeCatalog) GetByIDs(_ context.Context, ids []int) (map[int]*models.Product, error) {
	out := map[int]*models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeCatalog) VariantsByIDs(_ context.Context, ids []int) (map[int]*models.ProductVariant, error) {
	out := map[int]*models.ProductVariant{}
	for _, id := range ids {
		if v, ok := f.variants[id]; ok {
			cp := *v
			out[id] = &cp
		}
	}
	return out, nil
}

type fakeOrders struct {
	mu       sync.Mutex
	nextID   int
	orders   map[int]*models.Order
	items    map[int][]models.OrderItem
	byKey    map[string]int
	itemsErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders: map[int]*models.Order{},
		items:  map[int][]models.OrderItem{},
		byKey:  map[string]int{},
	}
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.IdempotencyKey != nil {
		if _, dup := f.byKey[*o.IdempotencyKey]; dup {
			return utils.ErrAlreadyExists
		}
	}
	f.nextID++
	o.ID = f.nextID
	cp := *o
	f.orders[o.ID] = &cp
	if o.IdempotencyKey != nil {
		f.byKey[*o.IdempotencyKey] = o.ID
	}
	return nil
}

func (f *fakeOrders) CreateItems(_ context.Context, orderID int, items []models.OrderItem) error {
	if f.itemsErr != nil {
		return f.itemsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range items {
		items[i].OrderID = orderID
		items[i].ID = i + 1
	}
	f.items[orderID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	f.mu.Lock()
	id, ok := f.byKey[key]
	f.mu.Unlock()
	if !ok {
		return nil, utils.ErrNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeOrders) Items(_ context.Context, orderID int) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListPaged(_ context.Context, status string, _, _ int) ([]models.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if status == "" || string(o.Status) == status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return utils.ErrNotFound
	}
	o.Status = status
	return nil
}

type recordingNotifier struct {
	created []int
	changed []int
}

func (n *recordingNotifier) NotifyOrderCreated(o *models.Order) { n.created = append(n.created, o.ID) }

func (n *recordingNotifier) NotifyOrderStatusChanged(o *models.Order) {
	n.changed = append(n.changed, o.ID)
}

type sentMessage struct {
	To, Subject, Body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{To: to, Subject: subject, Body: body})
	return s.err
}

func (s *recordingSender) SendSMS(_ context.Context, phone, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{To: phone, Body: msg})
	return s.err
}

func (s *recordingSender) last() sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return nil
}
