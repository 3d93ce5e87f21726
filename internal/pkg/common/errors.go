package common

import (
	"net/http"
)

// CustomError carries an error code and HTTP status alongside the cause.
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewError creates a new custom error.
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Error codes returned by the API surface.
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 504, request deadline hit
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeInternalError   = "INTERNAL_ERROR"    // 500
)

// ErrEmptyQuery rejects a search request without a usable query string.
var ErrEmptyQuery = NewError("EMPTY_QUERY", "query has no searchable tokens", http.StatusBadRequest, nil)
