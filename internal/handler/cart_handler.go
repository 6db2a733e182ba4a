package handler

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/cart"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

const cartTokenHeader = "X-Cart-Token"

// CartHandler serves the server-side cart. Carts are keyed by an opaque token the
// client echoes back in X-Cart-Token.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

var cartTokenPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// cartToken returns the caller's token, minting one when missing or malformed.
func cartToken(c *gin.Context) (string, bool) {
	token := c.GetHeader(cartTokenHeader)
	if !cartTokenPattern.MatchString(token) {
		var err error
		if token, err = utils.GenerateCartToken(); err != nil {
			respondError(c, err, "Failed to create cart")
			return "", false
		}
	}
	c.Header(cartTokenHeader, token)
	return token, true
}

// Get handles GET /v1/cart
func (h *CartHandler) Get(c *gin.Context) {
	token, ok := cartToken(c)
	if !ok {
		return
	}
	view, err := h.carts.Get(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, "Failed to load cart")
		return
	}
	utils.Success(c, 200, "Cart retrieved successfully", view)
}

// Apply handles POST /v1/cart/actions
func (h *CartHandler) Apply(c *gin.Context) {
	var action cart.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	token, ok := cartToken(c)
	if !ok {
		return
	}
	view, err := h.carts.Apply(c.Request.Context(), token, action)
	if err != nil {
		respondError(c, err, "Failed to update cart")
		return
	}
	utils.Success(c, 200, "Cart updated successfully", view)
}

// Clear handles DELETE /v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	token, ok := cartToken(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), token); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}
	utils.Success(c, 200, "Cart cleared successfully", nil)
}
