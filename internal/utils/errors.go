package utils

import "errors"

// Common application errors used across services.
var (
	ErrNotFound      = errors.New("NOT_FOUND")
	ErrAlreadyExists = errors.New("ALREADY_EXISTS")
	ErrInUse         = errors.New("IN_USE")
	ErrInvalidInput  = errors.New("INVALID_INPUT")
	ErrUnauthorized  = errors.New("UNAUTHORIZED")
	ErrForbidden     = errors.New("FORBIDDEN")
	ErrRateLimited   = errors.New("RATE_LIMITED")

	ErrInvalidToken     = errors.New("INVALID_TOKEN")
	ErrInvalidSignature = errors.New("INVALID_SIGNATURE")
	ErrGatewayFailure   = errors.New("GATEWAY_FAILURE")

	ErrCouponNotFound    = errors.New("COUPON_NOT_FOUND")
	ErrCouponInactive    = errors.New("COUPON_INACTIVE")
	ErrCouponExpired     = errors.New("COUPON_EXPIRED")
	ErrCouponMinNotMet   = errors.New("COUPON_MIN_NOT_MET")
	ErrOTPInvalid        = errors.New("OTP_INVALID")
	ErrCartStale         = errors.New("CART_STALE")
	ErrInvalidStatus     = errors.New("INVALID_STATUS")
	ErrUnsupportedUpload = errors.New("UNSUPPORTED_UPLOAD")
)
