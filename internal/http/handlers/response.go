// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint. All errors
// leave through fail(), so the envelope shape and 5xx logging live in one
// place:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Movie not found"
//	}
//
// Validation failures extend the envelope with the itemized field list under
// "error".
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movies-api/internal/http/middleware"
	"github.com/tbourn/go-movies-api/internal/validate"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Movie not found"`
}

// ValidationErrorResponse is returned with 400 when a movie payload breaks
// the schema. Error lists every failing field.
type ValidationErrorResponse struct {
	ErrorResponse
	Error []validate.FieldError `json:"error"`
}

// MessageResponse carries a single confirmation message.
type MessageResponse struct {
	Message string `json:"message" example:"Movie deleted"`
}

// fail aborts with the standard envelope. 5xx are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failValidation aborts with 400 and the itemized field errors.
func failValidation(c *gin.Context, verr *validate.Error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
		ErrorResponse: ErrorResponse{
			RequestID: requestID(c),
			Code:      ErrCodeValidation,
			Message:   msgInvalidMovie,
		},
		Error: verr.Fields,
	})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func requestID(c *gin.Context) string {
	if rid := middleware.GetRequestID(c); rid != "" {
		return rid
	}
	return c.Writer.Header().Get("X-Request-ID")
}
