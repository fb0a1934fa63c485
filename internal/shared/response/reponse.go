package response

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error part of a failure envelope
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// Success responses
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes a failure envelope; details is an optional debug string or
// structure (validation errors).
func Error(c *gin.Context, statusCode int, message string, details interface{}) {
	ErrorWithCode(c, statusCode, codeFor(statusCode), message, details)
}

func ErrorWithCode(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func codeFor(status int) string {
	switch {
	case status == 400:
		return CodeBadRequest
	case status == 401 || status == 403:
		return CodeUnauthorized
	case status == 404:
		return CodeNotFound
	case status == 409:
		return CodeConflict
	case status == 422:
		return CodeValidation
	case status == 502:
		return CodeUpstream
	case status == 503:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, 400, CodeBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, 401, CodeUnauthorized, message, nil)
}

func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, 404, CodeNotFound, message, nil)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorWithCode(c, 500, CodeInternal, message, nil)
}
