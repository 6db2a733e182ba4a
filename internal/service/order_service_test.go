package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type orderFixture struct {
	orders   *fakeOrders
	catalog  *fakeCatalog
	notifier *recordingNotifier
	email    *recordingSender
	svc      *OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:   newFakeOrders(),
		catalog:  newFakeCatalog(),
		notifier: &recordingNotifier{},
		email:    &recordingSender{},
	}
	f.catalog.products[1] = &models.Product{ID: 1, Title: "Oak Lamp", BasePrice: dec("500"), IsActive: true}
	f.catalog.products[2] = &models.Product{ID: 2, Title: "Linen Throw", BasePrice: dec("250"), HasVariants: true, IsActive: true}
	f.catalog.variants[20] = &models.ProductVariant{ID: 20, ProductID: 2, Name: "Sand", Price: dec("300"), StockQuantity: 5}
	f.svc = NewOrderService(f.orders, f.catalog,
		ShippingPolicy{Fee: dec("50"), FreeAbove: dec("5000")},
		f.notifier, f.email, "Decorhaus")
	return f
}

func validRequest() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		ShippingAddress: &models.ShippingAddress{
			FullName: "Asha Rao", Phone: "+919800000000", Line1: "12 MG Road",
			City: "Bengaluru", State: "KA", PostalCode: "560001", Country: "IN",
		},
		Items: []OrderLineRequest{
			{ProductID: 1, Quantity: 2, UnitPrice: dec("500")},
			{ProductID: 2, VariantID: intPtr(20), Quantity: 1, UnitPrice: dec("300")},
		},
		PaymentMethod: models.PaymentMethodCOD,
	}
}

func member() Buyer {
	return Buyer{UserID: strPtr("user-1"), Email: "asha@example.com"}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	f := newOrderFixture()

	res, err := f.svc.PlaceOrder(context.Background(), member(), validRequest(), "")
	require.NoError(t, err)

	assert.True(t, res.OrderCreated)
	assert.True(t, res.ItemsPersisted)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "1300.00", res.Order.ItemsTotal.StringFixed(2))
	assert.Equal(t, "50.00", res.Order.ShippingFee.StringFixed(2))
	assert.Equal(t, "1350.00", res.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, res.Order.Status)

	require.Len(t, res.Order.Items, 2)
	assert.Equal(t, "1000.00", res.Order.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "Oak Lamp", res.Order.Items[0].ProductTitle)
	require.NotNil(t, res.Order.Items[1].VariantName)
	assert.Equal(t, "Sand", *res.Order.Items[1].VariantName)

	assert.Equal(t, []int{res.Order.ID}, f.notifier.created)
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "asha@example.com", f.email.last().To)
	assert.Contains(t, f.email.last().Body, "Total: 1350.00")
}

func TestPlaceOrderWaivesShippingAboveThreshold(t *testing.T) {
	f := newOrderFixture()
	req := validRequest()
	req.Items = []OrderLineRequest{{ProductID: 1, Quantity: 10, UnitPrice: dec("500")}}

	res, err := f.svc.PlaceOrder(context.Background(), member(), req, "")
	require.NoError(t, err)
	assert.True(t, res.Order.ShippingFee.IsZero())
	assert.Equal(t, "5000.00", res.Order.TotalAmount.StringFixed(2))
}

func TestPlaceOrderRejectsStaleCart(t *testing.T) {
	f := newOrderFixture()
	f.catalog.variants[20].StockQuantity = 0
	req := validRequest()
	req.Items[0].UnitPrice = dec("450")

	_, err := f.svc.PlaceOrder(context.Background(), member(), req, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrCartStale))

	var stale *StaleCartError
	require.ErrorAs(t, err, &stale)
	require.Len(t, stale.Lines, 2)
	assert.Equal(t, 0, stale.Lines[0].Index)
	assert.Contains(t, stale.Lines[0].Reason, "price changed to 500.00")
	assert.Contains(t, stale.Lines[1].Reason, "only 0 left")
	assert.Empty(t, f.orders.orders)
}

func TestPlaceOrderRejectsVariantOfOtherProduct(t *testing.T) {
	f := newOrderFixture()
	req := validRequest()
	req.Items = []OrderLineRequest{{ProductID: 1, VariantID: intPtr(20), Quantity: 1, UnitPrice: dec("300")}}

	_, err := f.svc.PlaceOrder(context.Background(), member(), req, "")
	var stale *StaleCartError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "variant does not belong to product", stale.Lines[0].Reason)
}

func TestPlaceOrderStockIsSharedAcrossLines(t *testing.T) {
	f := newOrderFixture()
	f.catalog.variants[20].StockQuantity = 3
	req := validRequest()
	req.Items = []OrderLineRequest{
		{ProductID: 2, VariantID: intPtr(20), Quantity: 2, UnitPrice: dec("300")},
		{ProductID: 2, VariantID: intPtr(20), Quantity: 2, UnitPrice: dec("300")},
	}

	_, err := f.svc.PlaceOrder(context.Background(), member(), req, "")
	assert.ErrorIs(t, err, utils.ErrCartStale)
}

func TestPlaceOrderReportsPartialFailure(t *testing.T) {
	f := newOrderFixture()
	f.orders.itemsErr = errors.New("connection reset")

	res, err := f.svc.PlaceOrder(context.Background(), member(), validRequest(), "")
	require.NoError(t, err)

	assert.True(t, res.OrderCreated)
	assert.False(t, res.ItemsPersisted)
	assert.Equal(t, itemsNotSavedWarning, res.Warning)
	assert.NotZero(t, res.Order.ID)
	assert.Len(t, f.orders.orders, 1)
}

func TestPlaceOrderReplaysIdempotencyKey(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	first, err := f.svc.PlaceOrder(ctx, member(), validRequest(), "key-123")
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(ctx, member(), validRequest(), "key-123")
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Len(t, f.orders.orders, 1)
	assert.Len(t, second.Order.Items, 2)
	assert.Len(t, f.notifier.created, 1)
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name  string
		buyer Buyer
		edit  func(r *PlaceOrderRequest)
	}{
		{"missing address", member(), func(r *PlaceOrderRequest) { r.ShippingAddress = nil }},
		{"incomplete address", member(), func(r *PlaceOrderRequest) { r.ShippingAddress.City = " " }},
		{"no items", member(), func(r *PlaceOrderRequest) { r.Items = nil }},
		{"zero quantity", member(), func(r *PlaceOrderRequest) { r.Items[0].Quantity = 0 }},
		{"unknown payment method", member(), func(r *PlaceOrderRequest) { r.PaymentMethod = "card" }},
		{"online payment without id", member(), func(r *PlaceOrderRequest) { r.PaymentMethod = models.PaymentMethodRazorpay }},
		{"guest without email", Buyer{}, func(r *PlaceOrderRequest) { r.Guest = &models.GuestInfo{Name: "Guest"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			req := validRequest()
			tt.edit(req)
			_, err := f.svc.PlaceOrder(context.Background(), tt.buyer, req, "")
			assert.ErrorIs(t, err, utils.ErrInvalidInput)
		})
	}
}

func TestPlaceOrderGuestCheckout(t *testing.T) {
	f := newOrderFixture()
	req := validRequest()
	req.Guest = &models.GuestInfo{Name: "Guest", Email: "guest@example.com", Phone: "+919811111111"}

	res, err := f.svc.PlaceOrder(context.Background(), Buyer{}, req, "")
	require.NoError(t, err)
	assert.True(t, res.Order.IsGuest())
	assert.Nil(t, res.Order.UserID)
	assert.Equal(t, "guest@example.com", f.email.last().To)
}

func TestGetForUserHidesOtherCustomersOrders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	res, err := f.svc.PlaceOrder(ctx, member(), validRequest(), "")
	require.NoError(t, err)

	_, err = f.svc.GetForUser(ctx, "user-2", res.Order.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	o, err := f.svc.GetForUser(ctx, "user-1", res.Order.ID)
	require.NoError(t, err)
	assert.Len(t, o.Items, 2)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	res, err := f.svc.PlaceOrder(ctx, member(), validRequest(), "")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, res.Order.ID, "Lost")
	assert.ErrorIs(t, err, utils.ErrInvalidStatus)

	o, err := f.svc.UpdateStatus(ctx, res.Order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, o.Status)
	assert.Equal(t, []int{res.Order.ID}, f.notifier.changed)

	_, _, err = f.svc.List(ctx, "Unknown", 1, 20)
	assert.ErrorIs(t, err, utils.ErrInvalidStatus)
}
