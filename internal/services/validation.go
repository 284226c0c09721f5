package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendLedgerError maps a ledger engine error onto an HTTP status and writes
// the JSON error body.
func SendLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidCursor):
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, ErrInsufficientFunds):
		SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
	case errors.Is(err, ErrNotFound):
		SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, ErrAccountClosed):
		SendErrorResponse(w, err.Error(), http.StatusForbidden, nil)
	case errors.Is(err, ErrConcurrentModification):
		SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	default:
		SendErrorResponse(w, "Failed to process request", http.StatusInternalServerError, nil)
	}
}
