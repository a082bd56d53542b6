// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentmart/agentmart-backend/internal/contracts"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	if message == "" {
		message = "Invalid request"
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", errors)
}

// faultStatus maps engine rejection codes to HTTP statuses.
var faultStatus = map[contracts.Code]int{
	contracts.CodeInvalidInput:      http.StatusBadRequest,
	contracts.CodeUnauthorized:      http.StatusUnauthorized,
	contracts.CodeForbidden:         http.StatusForbidden,
	contracts.CodeNotFound:          http.StatusNotFound,
	contracts.CodeConflict:          http.StatusConflict,
	contracts.CodeInsufficientFunds: http.StatusPaymentRequired,
	contracts.CodeNothingToWithdraw: http.StatusConflict,
	contracts.CodeReentrantCall:     http.StatusConflict,
	contracts.CodeExpired:           http.StatusGone,
}

// FaultResponse renders an engine rejection. Errors that did not come out
// of the engine fall through to an internal error.
func FaultResponse(c *gin.Context, err error) {
	if f, ok := err.(*contracts.Fault); ok {
		status, found := faultStatus[f.Code]
		if !found {
			status = http.StatusBadRequest
		}
		ErrorResponse(c, status, string(f.Code), f.Reason, nil)
		return
	}
	InternalErrorResponse(c, err.Error())
}

func GetCallerFromContext(c *gin.Context) (contracts.Address, bool) {
	if addr, exists := c.Get("address"); exists {
		if s, ok := addr.(string); ok && s != "" {
			return contracts.Address(s), true
		}
	}
	return contracts.ZeroAddress, false
}

func GetAccountIDFromContext(c *gin.Context) (string, bool) {
	if accountID, exists := c.Get("account_id"); exists {
		if s, ok := accountID.(string); ok {
			return s, true
		}
	}
	return "", false
}
