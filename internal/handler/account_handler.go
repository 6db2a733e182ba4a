package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/middleware"
	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// AccountHandler serves the signed-in customer: profile, verification codes,
// reviews and wishlist. All routes run behind the required session middleware.
type AccountHandler struct {
	users    *service.UserService
	otps     *service.OTPService
	reviews  *service.ReviewService
	wishlist *service.WishlistService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(users *service.UserService, otps *service.OTPService, reviews *service.ReviewService, wishlist *service.WishlistService) *AccountHandler {
	return &AccountHandler{users: users, otps: otps, reviews: reviews, wishlist: wishlist}
}

// Me handles GET /v1/me
func (h *AccountHandler) Me(c *gin.Context) {
	auth := middleware.GetAuth(c)
	profile, err := h.users.Me(c.Request.Context(), auth.UserID, auth.Email)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	utils.Success(c, 200, "Profile retrieved successfully", profile)
}

type updateProfileRequest struct {
	FullName string `json:"fullName" binding:"required"`
}

// UpdateMe handles PUT /v1/me
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	auth := middleware.GetAuth(c)
	if _, err := h.users.Me(c.Request.Context(), auth.UserID, auth.Email); err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	profile, err := h.users.UpdateName(c.Request.Context(), auth.UserID, req.FullName)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	utils.Success(c, 200, "Profile updated successfully", profile)
}

type otpIssueRequest struct {
	Purpose models.OTPPurpose `json:"purpose" binding:"required"`
	Target  string            `json:"target" binding:"required"`
}

type otpVerifyRequest struct {
	Purpose models.OTPPurpose `json:"purpose" binding:"required"`
	Target  string            `json:"target" binding:"required"`
	Code    string            `json:"code" binding:"required"`
}

// IssueOTP handles POST /v1/otp/issue
func (h *AccountHandler) IssueOTP(c *gin.Context) {
	var req otpIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	auth := middleware.GetAuth(c)
	if _, err := h.users.Me(c.Request.Context(), auth.UserID, auth.Email); err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	if err := h.otps.Issue(c.Request.Context(), req.Purpose, req.Target, auth.UserID); err != nil {
		respondError(c, err, "Failed to send verification code")
		return
	}
	utils.Success(c, 200, "Verification code sent", nil)
}

// VerifyOTP handles POST /v1/otp/verify
func (h *AccountHandler) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	auth := middleware.GetAuth(c)
	if err := h.otps.Verify(c.Request.Context(), req.Purpose, req.Target, req.Code, auth.UserID); err != nil {
		respondError(c, err, "Failed to verify code")
		return
	}
	profile, err := h.users.Get(c.Request.Context(), auth.UserID)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	utils.Success(c, 200, "Verified successfully", profile)
}

type submitReviewRequest struct {
	ProductID int `json:"productId" binding:"required"`
	service.ReviewRequest
}

// SubmitReview handles POST /v1/reviews
func (h *AccountHandler) SubmitReview(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	auth := middleware.GetAuth(c)
	review, err := h.reviews.Submit(c.Request.Context(), auth.UserID, req.ProductID, &req.ReviewRequest)
	if err != nil {
		respondError(c, err, "Failed to submit review")
		return
	}
	utils.Success(c, 201, "Review submitted for approval", review)
}

// ListWishlist handles GET /v1/wishlist
func (h *AccountHandler) ListWishlist(c *gin.Context) {
	auth := middleware.GetAuth(c)
	entries, err := h.wishlist.List(c.Request.Context(), auth.UserID)
	if err != nil {
		respondError(c, err, "Failed to list wishlist")
		return
	}
	utils.Success(c, 200, "Wishlist retrieved successfully", entries)
}

type wishlistRequest struct {
	ProductID int `json:"productId" binding:"required"`
}

// AddWishlist handles POST /v1/wishlist
func (h *AccountHandler) AddWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	auth := middleware.GetAuth(c)
	if err := h.wishlist.Add(c.Request.Context(), auth.UserID, req.ProductID); err != nil {
		respondError(c, err, "Failed to add to wishlist")
		return
	}
	utils.Success(c, 201, "Added to wishlist", gin.H{"productId": req.ProductID})
}

// RemoveWishlist handles DELETE /v1/wishlist/:productId
func (h *AccountHandler) RemoveWishlist(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	auth := middleware.GetAuth(c)
	if err := h.wishlist.Remove(c.Request.Context(), auth.UserID, productID); err != nil {
		respondError(c, err, "Failed to remove from wishlist")
		return
	}
	utils.Success(c, 200, "Removed from wishlist", nil)
}
