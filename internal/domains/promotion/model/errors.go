package model

import (
	"errors"
	"net/http"
)

// Repository sentinels
var (
	ErrNotFound          = errors.New("promotion record not found")
	ErrDuplicateCode     = errors.New("coupon code already exists")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

type ErrorCode string

const (
	// Coupon rejection reasons (returned inside results, never as errors)
	ErrCodeCouponNotFound    ErrorCode = "COUPON_NOT_FOUND"
	ErrCodeCouponExpired     ErrorCode = "COUPON_EXPIRED"
	ErrCodeUsageLimitReached ErrorCode = "USAGE_LIMIT_REACHED"
	ErrCodeNotFirstPurchase  ErrorCode = "NOT_FIRST_PURCHASE"
	ErrCodeMinimumNotMet     ErrorCode = "MINIMUM_NOT_MET"
	ErrCodeItemNotEligible   ErrorCode = "ITEM_NOT_ELIGIBLE"

	// Admin operation errors
	ErrCodeDuplicateCode    ErrorCode = "VAL_DUPLICATE_CODE"    // 400
	ErrCodeValidationFailed ErrorCode = "VAL_INVALID_INPUT"     // 400
	ErrCodeNotFound         ErrorCode = "RES_NOT_FOUND"         // 404
	ErrCodeInternalError    ErrorCode = "SYS_INTERNAL_ERROR"    // 500
	ErrCodeQueueUnavailable ErrorCode = "SYS_QUEUE_UNAVAILABLE" // 503
)

// reasonMessages maps rejection reasons to default user-facing messages
var reasonMessages = map[ErrorCode]string{
	ErrCodeCouponNotFound:    "Coupon does not exist or is no longer active",
	ErrCodeCouponExpired:     "Coupon is not valid at this time",
	ErrCodeUsageLimitReached: "Coupon has reached its usage limit",
	ErrCodeNotFirstPurchase:  "Coupon is only valid for a first purchase",
	ErrCodeMinimumNotMet:     "Purchase amount does not meet the coupon minimum",
	ErrCodeItemNotEligible:   "Coupon does not apply to this novel",
}

// ReasonMessage returns the default message for a rejection code
func ReasonMessage(code ErrorCode) string {
	if msg, ok := reasonMessages[code]; ok {
		return msg
	}
	return string(code)
}

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewValidationError wraps a DTO validation failure
func NewValidationError(err error) *AppError {
	return &AppError{
		Code:       ErrCodeValidationFailed,
		Message:    "Invalid request data",
		Details:    map[string]interface{}{"info": err.Error()},
		HTTPStatus: http.StatusBadRequest,
	}
}

// Predefined errors
var (
	ErrRecordNotFound = &AppError{
		Code:       ErrCodeNotFound,
		Message:    "Promotion record not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrCouponCodeTaken = &AppError{
		Code:       ErrCodeDuplicateCode,
		Message:    "Coupon code already exists",
		HTTPStatus: http.StatusBadRequest,
	}
)
