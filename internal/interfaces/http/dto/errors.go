package dto

import "net/http"

// Error codes returned by the API. Domain errors carry the same codes so
// the mapping below covers both layers.
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeRateLimited = "RATE_LIMITED"

	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeQuotaExceeded      = "QUOTA_EXCEEDED"
	ErrCodeLastAdmin          = "LAST_ADMIN"
	ErrCodeDeliveryFailed     = "DELIVERY_FAILED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	"TOKEN_EXPIRED":           http.StatusUnauthorized,
	"INVALID_TOKEN":           http.StatusUnauthorized,
	"INVALID_TOKEN_TYPE":      http.StatusUnauthorized,

	ErrCodeForbidden: http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,
	"NO_READING":    http.StatusNotFound,

	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeQuotaExceeded: http.StatusConflict,
	ErrCodeLastAdmin:     http.StatusConflict,
	"ADMIN_EXISTS":       http.StatusConflict,
	"EMAIL_TAKEN":        http.StatusConflict,
	"PHONE_TAKEN":        http.StatusConflict,

	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	"ALREADY_BILLED":          http.StatusUnprocessableEntity,
	"ALREADY_PAID":            http.StatusUnprocessableEntity,
	"NOT_FIRST_LOGIN":         http.StatusUnprocessableEntity,
	"RESIDENT_HOUSE_MISMATCH": http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeDeliveryFailed: http.StatusBadGateway,
	ErrCodeInternal:       http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for codes the map does not know
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
