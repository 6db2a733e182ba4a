package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/middleware"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// AdminHandler handles the smaller back-office resources: coupons, users, review
// moderation, site content and the inbox.
type AdminHandler struct {
	coupons *service.CouponService
	users   *service.UserService
	reviews *service.ReviewService
	content *service.ContentService
	inbox   *service.InboxService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	coupons *service.CouponService,
	users *service.UserService,
	reviews *service.ReviewService,
	content *service.ContentService,
	inbox *service.InboxService,
) *AdminHandler {
	return &AdminHandler{coupons: coupons, users: users, reviews: reviews, content: content, inbox: inbox}
}

// ListCoupons handles GET /v1/admin/coupons
func (h *AdminHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list coupons")
		return
	}
	utils.Success(c, 200, "Coupons retrieved successfully", coupons)
}

// CreateCoupon handles POST /v1/admin/coupons
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req service.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	coupon, err := h.coupons.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create coupon")
		return
	}
	utils.Success(c, 201, "Coupon created successfully", coupon)
}

// UpdateCoupon handles PUT /v1/admin/coupons/:id
func (h *AdminHandler) UpdateCoupon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	coupon, err := h.coupons.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update coupon")
		return
	}
	utils.Success(c, 200, "Coupon updated successfully", coupon)
}

// DeleteCoupon handles DELETE /v1/admin/coupons/:id
func (h *AdminHandler) DeleteCoupon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.coupons.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete coupon")
		return
	}
	utils.Success(c, 200, "Coupon deleted successfully", nil)
}

// ListUsers handles GET /v1/admin/users?search=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := h.users.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		respondError(c, err, "Failed to list users")
		return
	}
	utils.SuccessWithPagination(c, 200, "Users retrieved successfully", users, page, limit, total)
}

// GetUser handles GET /v1/admin/users/:userId
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to get user")
		return
	}
	utils.Success(c, 200, "User retrieved successfully", user)
}

type setAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

// SetAdmin handles PUT /v1/admin/users/:userId/admin
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	actor := middleware.GetAuth(c)
	if err := h.users.SetAdmin(c.Request.Context(), actor.UserID, c.Param("userId"), *req.IsAdmin); err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	utils.Success(c, 200, "User updated successfully", gin.H{"userId": c.Param("userId"), "isAdmin": *req.IsAdmin})
}

// ListReviews handles GET /v1/admin/reviews?approved=
func (h *AdminHandler) ListReviews(c *gin.Context) {
	page, limit := pageParams(c)
	reviews, total, err := h.reviews.List(c.Request.Context(), boolQuery(c, "approved"), page, limit)
	if err != nil {
		respondError(c, err, "Failed to list reviews")
		return
	}
	utils.SuccessWithPagination(c, 200, "Reviews retrieved successfully", reviews, page, limit, total)
}

type approveRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// ApproveReview handles PATCH /v1/admin/reviews/:id
func (h *AdminHandler) ApproveReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.reviews.SetApproved(c.Request.Context(), id, *req.Approved); err != nil {
		respondError(c, err, "Failed to update review")
		return
	}
	utils.Success(c, 200, "Review updated successfully", gin.H{"id": id, "approved": *req.Approved})
}

// DeleteReview handles DELETE /v1/admin/reviews/:id
func (h *AdminHandler) DeleteReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete review")
		return
	}
	utils.Success(c, 200, "Review deleted successfully", nil)
}

// ListSettings handles GET /v1/admin/settings
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.content.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list settings")
		return
	}
	utils.Success(c, 200, "Settings retrieved successfully", settings)
}

type settingRequest struct {
	Value string `json:"value"`
}

// UpsertSetting handles PUT /v1/admin/settings/:key
func (h *AdminHandler) UpsertSetting(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	setting, err := h.content.UpsertSetting(c.Request.Context(), c.Param("key"), req.Value)
	if err != nil {
		respondError(c, err, "Failed to save setting")
		return
	}
	utils.Success(c, 200, "Setting saved successfully", setting)
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// ListCategories handles GET /v1/admin/categories
func (h *AdminHandler) ListCategories(c *gin.Context) {
	categories, err := h.content.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved successfully", categories)
}

// CreateCategory handles POST /v1/admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	category, err := h.content.SaveCategory(c.Request.Context(), 0, req.Name, req.Slug, req.Description)
	if err != nil {
		respondError(c, err, "Failed to create category")
		return
	}
	utils.Success(c, 201, "Category created successfully", category)
}

// UpdateCategory handles PUT /v1/admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	category, err := h.content.SaveCategory(c.Request.Context(), id, req.Name, req.Slug, req.Description)
	if err != nil {
		respondError(c, err, "Failed to update category")
		return
	}
	utils.Success(c, 200, "Category updated successfully", category)
}

// DeleteCategory handles DELETE /v1/admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}
	utils.Success(c, 200, "Category deleted successfully", nil)
}

// ListPages handles GET /v1/admin/pages
func (h *AdminHandler) ListPages(c *gin.Context) {
	pages, err := h.content.Pages(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list pages")
		return
	}
	utils.Success(c, 200, "Pages retrieved successfully", pages)
}

// GetPage handles GET /v1/admin/pages/:slug
func (h *AdminHandler) GetPage(c *gin.Context) {
	page, err := h.content.Page(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to get page")
		return
	}
	utils.Success(c, 200, "Page retrieved successfully", page)
}

type pageRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// UpsertPage handles PUT /v1/admin/pages/:slug
func (h *AdminHandler) UpsertPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", err.Error())
		return
	}
	page, err := h.content.UpsertPage(c.Request.Context(), c.Param("slug"), req.Title, req.Content)
	if err != nil {
		respondError(c, err, "Failed to save page")
		return
	}
	utils.Success(c, 200, "Page saved successfully", page)
}

// DeletePage handles DELETE /v1/admin/pages/:slug
func (h *AdminHandler) DeletePage(c *gin.Context) {
	if err := h.content.DeletePage(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err, "Failed to delete page")
		return
	}
	utils.Success(c, 200, "Page deleted successfully", nil)
}

// ListContacts handles GET /v1/admin/inbox/contacts?handled=
func (h *AdminHandler) ListContacts(c *gin.Context) {
	messages, err := h.inbox.Contacts(c.Request.Context(), boolQuery(c, "handled"))
	if err != nil {
		respondError(c, err, "Failed to list messages")
		return
	}
	utils.Success(c, 200, "Messages retrieved successfully", messages)
}

// HandleContact handles POST /v1/admin/inbox/contacts/:id/handled
func (h *AdminHandler) HandleContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inbox.MarkContactHandled(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to update message")
		return
	}
	utils.Success(c, 200, "Message marked as handled", nil)
}

// ListQuestions handles GET /v1/admin/inbox/questions?handled=
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	questions, err := h.inbox.Questions(c.Request.Context(), boolQuery(c, "handled"))
	if err != nil {
		respondError(c, err, "Failed to list questions")
		return
	}
	utils.Success(c, 200, "Questions retrieved successfully", questions)
}

// HandleQuestion handles POST /v1/admin/inbox/questions/:id/handled
func (h *AdminHandler) HandleQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inbox.MarkQuestionHandled(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to update question")
		return
	}
	utils.Success(c, 200, "Question marked as handled", nil)
}
