package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/middleware"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// CheckoutHandler handles payments and order placement for customers and guests.
type CheckoutHandler struct {
	orders   *service.OrderService
	payments *service.PaymentService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(orders *service.OrderService, payments *service.PaymentService) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, payments: payments}
}

type gatewayOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateGatewayOrder handles POST /v1/payments/orders
func (h *CheckoutHandler) CreateGatewayOrder(c *gin.Context) {
	var req gatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	order, err := h.payments.CreateGatewayOrder(c.Request.Context(), req.Amount)
	if err != nil {
		respondError(c, err, "Failed to create payment order")
		return
	}
	utils.Success(c, 201, "Payment order created", order)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment handles POST /v1/payments/verify
func (h *CheckoutHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.payments.VerifyPayment(req.OrderID, req.PaymentID, req.Signature); err != nil {
		respondError(c, err, "Failed to verify payment")
		return
	}
	utils.Success(c, 200, "Payment verified", gin.H{"verified": true})
}

// PlaceOrder handles POST /v1/orders. Sessions are optional; without one the
// request is a guest checkout.
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}

	var buyer service.Buyer
	if auth := middleware.GetAuth(c); auth != nil {
		userID := auth.UserID
		buyer = service.Buyer{UserID: &userID, Email: auth.Email}
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), buyer, &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err, "Failed to place order")
		return
	}

	switch {
	case result.Replayed:
		utils.Success(c, 200, "Order already placed", result)
	case result.Warning != "":
		utils.SuccessWithWarning(c, 201, "Order placed with warnings", result, result.Warning)
	default:
		utils.Success(c, 201, "Order placed successfully", result)
	}
}

// ListMyOrders handles GET /v1/orders
func (h *CheckoutHandler) ListMyOrders(c *gin.Context) {
	auth := middleware.GetAuth(c)
	orders, err := h.orders.ListForUser(c.Request.Context(), auth.UserID)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	utils.Success(c, 200, "Orders retrieved successfully", orders)
}

// GetMyOrder handles GET /v1/orders/:id
func (h *CheckoutHandler) GetMyOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	auth := middleware.GetAuth(c)
	order, err := h.orders.GetForUser(c.Request.Context(), auth.UserID, id)
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}
	utils.Success(c, 200, "Order retrieved successfully", order)
}
