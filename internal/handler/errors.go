package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// respondError maps service errors onto the response envelope. Anything not
// recognised, including payment and delivery provider failures, is logged and
// reported as a generic 500.
func respondError(c *gin.Context, err error, fallback string) {
	var stale *service.StaleCartError
	switch {
	case errors.As(err, &stale):
		utils.ErrorWithDetails(c, 409, "CART_STALE", "Some items in your cart have changed", stale.Lines)
	case errors.Is(err, utils.ErrInvalidSignature):
		utils.Error(c, 400, "INVALID_SIGNATURE", "Payment verification failed")
	case errors.Is(err, utils.ErrInvalidInput):
		utils.Error(c, 400, "INVALID_REQUEST", cleanMessage(err))
	case errors.Is(err, utils.ErrInvalidStatus):
		utils.Error(c, 400, "INVALID_STATUS", cleanMessage(err))
	case errors.Is(err, utils.ErrUnsupportedUpload):
		utils.Error(c, 400, "UNSUPPORTED_FILE", cleanMessage(err))
	case errors.Is(err, utils.ErrCouponNotFound):
		utils.Error(c, 404, "COUPON_NOT_FOUND", "Coupon not found")
	case errors.Is(err, utils.ErrCouponInactive):
		utils.Error(c, 400, "COUPON_INACTIVE", "Coupon is not active")
	case errors.Is(err, utils.ErrCouponExpired):
		utils.Error(c, 400, "COUPON_EXPIRED", "Coupon has expired")
	case errors.Is(err, utils.ErrCouponMinNotMet):
		utils.Error(c, 400, "COUPON_MIN_NOT_MET", cleanMessage(err))
	case errors.Is(err, utils.ErrOTPInvalid):
		utils.Error(c, 400, "OTP_INVALID", "Invalid or expired code")
	case errors.Is(err, utils.ErrRateLimited):
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many attempts, please try again later")
	case errors.Is(err, utils.ErrUnauthorized):
		utils.Error(c, 401, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, utils.ErrForbidden):
		utils.Error(c, 403, "FORBIDDEN", "Not allowed")
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, 404, "NOT_FOUND", "Not found")
	case errors.Is(err, utils.ErrAlreadyExists):
		utils.Error(c, 409, "ALREADY_EXISTS", "Already exists")
	case errors.Is(err, utils.ErrInUse):
		utils.Error(c, 409, "IN_USE", "In use, cannot delete")
	default:
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Str("path", c.FullPath()).Msg(fallback)
		utils.Error(c, 500, "INTERNAL_ERROR", fallback)
	}
}

// cleanMessage returns the human part of a wrapped validation error, dropping the
// sentinel suffix.
func cleanMessage(err error) string {
	msg := err.Error()
	for _, s := range []error{
		utils.ErrInvalidInput, utils.ErrInvalidStatus, utils.ErrUnsupportedUpload, utils.ErrCouponMinNotMet,
	} {
		suffix := ": " + s.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func boolQuery(c *gin.Context, name string) *bool {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	b := v == "true" || v == "1"
	return &b
}
