package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pantrymatch/backend/internal/domain"
)

// APIError is the JSON error body returned by every endpoint
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// errorTable maps domain sentinels to their HTTP form. Order matters only for
// errors that wrap more than one sentinel.
var errorTable = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrInvalidOwner, "INVALID_OWNER", http.StatusBadRequest},
	{domain.ErrInvalidQuantity, "INVALID_QUANTITY", http.StatusBadRequest},
	{domain.ErrInvalidName, "INVALID_NAME", http.StatusBadRequest},
	{domain.ErrInvalidUnit, "INVALID_UNIT", http.StatusBadRequest},
	{domain.ErrInvalidMutation, "INVALID_MUTATION", http.StatusBadRequest},
	{domain.ErrInvalidDecision, "INVALID_DECISION", http.StatusBadRequest},
	{domain.ErrInvalidRequest, "INVALID_REQUEST", http.StatusBadRequest},
	{domain.ErrEntryNotFound, "ENTRY_NOT_FOUND", http.StatusNotFound},
	{domain.ErrRecipeNotFound, "RECIPE_NOT_FOUND", http.StatusNotFound},
	{domain.ErrDuplicateEntry, "DUPLICATE_ENTRY", http.StatusConflict},
	{domain.ErrInsufficientQuantity, "INSUFFICIENT_QUANTITY", http.StatusConflict},
	{domain.ErrRecipeAPIFailure, "RECIPE_SERVICE_UNAVAILABLE", http.StatusBadGateway},
	{context.DeadlineExceeded, "TIMEOUT", http.StatusGatewayTimeout},
}

// mapError converts an error returned by a service into an APIError.
// Unknown errors become a 500 without leaking their text.
func mapError(err error) APIError {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return APIError{Code: e.code, Message: err.Error(), Status: e.status}
		}
	}
	return APIError{Code: "INTERNAL_ERROR", Message: "internal server error", Status: http.StatusInternalServerError}
}

// isRejection reports whether err is an input rejection from addOrMergeItem
func isRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidOwner) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidName) ||
		errors.Is(err, domain.ErrInvalidUnit)
}

// respondError writes err as an APIError body and records it on the context
// for the access log
func respondError(c *gin.Context, err error) {
	apiErr := mapError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// respondBadRequest writes a 400 for malformed input that never reached a service
func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, APIError{
		Code:    "INVALID_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
	})
}
