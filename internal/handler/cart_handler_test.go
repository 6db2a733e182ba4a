package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/cart"
	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/service"
)

type memCarts map[string]cart.State

func (m memCarts) Load(_ context.Context, token string) (cart.State, error) { return m[token], nil }

func (m memCarts) Save(_ context.Context, token string, st cart.State) error {
	m[token] = st
	return nil
}

func (m memCarts) Delete(_ context.Context, token string) error {
	delete(m, token)
	return nil
}

type oneProductCatalog struct{}

func (oneProductCatalog) GetByIDs(_ context.Context, ids []int) (map[int]*models.Product, error) {
	out := map[int]*models.Product{}
	for _, id := range ids {
		if id == 1 {
			out[1] = &models.Product{ID: 1, Title: "Oak Lamp", BasePrice: decimal.NewFromInt(500), IsActive: true}
		}
	}
	return out, nil
}

func (oneProductCatalog) VariantsByIDs(context.Context, []int) (map[int]*models.ProductVariant, error) {
	return map[int]*models.ProductVariant{}, nil
}

func newCartRouter(store memCarts) *gin.Engine {
	h := NewCartHandler(service.NewCartService(store, oneProductCatalog{}))
	r := gin.New()
	r.GET("/v1/cart", h.Get)
	r.POST("/v1/cart/actions", h.Apply)
	r.DELETE("/v1/cart", h.Clear)
	return r
}

func TestCartHandlerMintsToken(t *testing.T) {
	r := newCartRouter(memCarts{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/cart", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^[a-f0-9]{32}$`, w.Header().Get(cartTokenHeader))
}

func TestCartHandlerAddUsesCatalogPrice(t *testing.T) {
	store := memCarts{}
	r := newCartRouter(store)
	const token = "0123456789abcdef0123456789abcdef"

	body := `{"type":"add","line":{"productId":1,"quantity":2,"basePrice":"1","title":"cheap"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/cart/actions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(cartTokenHeader, token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, token, w.Header().Get(cartTokenHeader))
	require.Len(t, store[token].Items, 1)
	assert.Equal(t, "Oak Lamp", store[token].Items[0].Title)
	assert.Equal(t, "1000", store[token].Subtotal().String())

	req = httptest.NewRequest(http.MethodDelete, "/v1/cart", nil)
	req.Header.Set(cartTokenHeader, token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, store, token)
}

func TestCartHandlerRejectsUnknownProduct(t *testing.T) {
	r := newCartRouter(memCarts{})

	body := `{"type":"add","line":{"productId":42,"quantity":1}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/cart/actions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
