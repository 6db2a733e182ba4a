package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// StorefrontHandler handles public intake: coupon checks, contact messages and FAQ questions.
type StorefrontHandler struct {
	coupons *service.CouponService
	inbox   *service.InboxService
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(coupons *service.CouponService, inbox *service.InboxService) *StorefrontHandler {
	return &StorefrontHandler{coupons: coupons, inbox: inbox}
}

type validateCouponRequest struct {
	Code      string          `json:"code" binding:"required"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

// ValidateCoupon handles POST /v1/coupons/validate
func (h *StorefrontHandler) ValidateCoupon(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	check, err := h.coupons.Validate(c.Request.Context(), req.Code, req.CartTotal)
	if err != nil {
		respondError(c, err, "Failed to validate coupon")
		return
	}
	utils.Success(c, 200, "Coupon applied", check)
}

// SubmitContact handles POST /v1/contact
func (h *StorefrontHandler) SubmitContact(c *gin.Context) {
	var req service.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	msg, err := h.inbox.SubmitContact(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	utils.Success(c, 201, "Message received", gin.H{"id": msg.ID})
}

// SubmitQuestion handles POST /v1/faq/questions
func (h *StorefrontHandler) SubmitQuestion(c *gin.Context) {
	var req service.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	q, err := h.inbox.SubmitQuestion(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to submit question")
		return
	}
	utils.Success(c, 201, "Question received", gin.H{"id": q.ID})
}
