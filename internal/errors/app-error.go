package app_error

import (
	"encoding/json"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`

	// NeedsReconciliation marks a partial saga failure whose compensating
	// action also failed: an orphaned message document exists until the
	// background reconciliation job purges it. This flag is the only record.
	NeedsReconciliation bool `json:"needs_reconciliation,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Field:   field,
	}
}

func NewValidationError(msg, field string) *AppError {
	return NewAppError(http.StatusBadRequest, msg, field)
}

func NewAuthorizationError(msg, field string) *AppError {
	return NewAppError(http.StatusForbidden, msg, field)
}

func NewNotFoundError(msg, field string) *AppError {
	return NewAppError(http.StatusNotFound, msg, field)
}

func NewConflictError(msg, field string) *AppError {
	return NewAppError(http.StatusConflict, msg, field)
}

func NewInternalError(msg, field string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg, field)
}

func NewPartialFailure(msg string, needsReconciliation bool) *AppError {
	return &AppError{
		Code:                http.StatusInternalServerError,
		Message:             msg,
		Field:               "saga",
		NeedsReconciliation: needsReconciliation,
	}
}
