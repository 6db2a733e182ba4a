package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// AdminOrderHandler handles order management and the dashboard in the back office.
type AdminOrderHandler struct {
	orders    *service.OrderService
	dashboard *service.DashboardService
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(orders *service.OrderService, dashboard *service.DashboardService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, dashboard: dashboard}
}

// ListOrders handles GET /v1/admin/orders?status=&page=&limit=
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	page, limit := pageParams(c)
	orders, total, err := h.orders.List(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	utils.SuccessWithPagination(c, 200, "Orders retrieved successfully", orders, page, limit, total)
}

// GetOrder handles GET /v1/admin/orders/:id
func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}
	utils.Success(c, 200, "Order retrieved successfully", order)
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /v1/admin/orders/:id/status
func (h *AdminOrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update order")
		return
	}
	utils.Success(c, 200, "Order status updated", order)
}

// Dashboard handles GET /v1/admin/dashboard
func (h *AdminOrderHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Get(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}
	utils.Success(c, 200, "Dashboard retrieved successfully", d)
}
