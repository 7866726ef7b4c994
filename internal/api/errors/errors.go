// Package errors provides the JSON error body shared by the API handlers
// and middleware.
package errors

import (
	"encoding/json"
	"net/http"
)

// Error codes for structured API responses.
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeCommandFailed  = "command_failed"
	CodeInternalError  = "internal_error"
)

// APIError is the body of every error response. The message lives under
// "error" so dashboard clients can read it without knowing the code.
type APIError struct {
	Message   string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// WithRequestID returns a copy of the error with the request ID set.
func (e *APIError) WithRequestID(requestID string) *APIError {
	return &APIError{
		Message:   e.Message,
		Code:      e.Code,
		RequestID: requestID,
	}
}

// New creates a new APIError with the given code and message.
func New(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// NewInvalidRequest creates a client error.
func NewInvalidRequest(message string) *APIError {
	return New(CodeInvalidRequest, message)
}

// NewNotFound creates a not found error.
func NewNotFound(message string) *APIError {
	return New(CodeNotFound, message)
}

// NewCommandFailed creates an error for a failed sgt invocation.
func NewCommandFailed(message string) *APIError {
	return New(CodeCommandFailed, message)
}

// NewInternalError creates an internal server error.
func NewInternalError(message string) *APIError {
	return New(CodeInternalError, message)
}

// HTTPStatusCode returns the HTTP status code for the error.
func (e *APIError) HTTPStatusCode() int {
	switch e.Code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an APIError as a JSON response.
func WriteError(w http.ResponseWriter, err *APIError) {
	WriteJSON(w, err.HTTPStatusCode(), err)
}
