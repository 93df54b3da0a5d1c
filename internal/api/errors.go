package api

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorCode defines standard error codes.
type ErrorCode string

const (
	// Validation errors (4xx)
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Business logic errors
	ErrCodeOrderNotFound    ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeDuplicateOrder   ErrorCode = "DUPLICATE_ORDER"
	ErrCodeInvalidSide      ErrorCode = "INVALID_SIDE"
	ErrCodeInvalidQuantity  ErrorCode = "INVALID_QUANTITY"
	ErrCodeInvalidOrderType ErrorCode = "INVALID_ORDER_TYPE"
)

// NewErrorResponse creates a new error response.
func NewErrorResponse(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   string(code),
		Message: message,
		Code:    string(code),
	}
}

// AbortWithError aborts the request with a standardized error response.
func AbortWithError(c *gin.Context, status int, code ErrorCode, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(code, message))
}

// SuccessResponse represents a successful response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewSuccessResponse creates a new success response.
func NewSuccessResponse(data interface{}, message string) *SuccessResponse {
	return &SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// NewHealthResponse creates a new health response.
func NewHealthResponse(services map[string]string) *HealthResponse {
	status := "healthy"
	for _, v := range services {
		if v != "healthy" {
			status = "degraded"
			break
		}
	}
	return &HealthResponse{
		Status:   status,
		Services: services,
	}
}
