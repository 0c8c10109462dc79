package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrMalformedBody is returned when the request body cannot be decoded.
	ErrMalformedBody = errors.New("malformed request body")
)

// Messages shown to API clients.
const (
	NotFoundMessage      = "User not found."
	MalformedBodyMessage = "Malformed request body."
	InternalMessage      = "Internal Server Error."
)

// ValidationError carries field-level validation messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field already has at least one message.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Empty reports whether no messages were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// ErrorMessage is the body of the "errors" key for non-validation failures.
type ErrorMessage struct {
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Code   int          `json:"code"`
	Errors ErrorMessage `json:"errors"`
}

// ValidationResponse is returned when the payload fails validation.
type ValidationResponse struct {
	Errors map[string][]string `json:"errors"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Code:   e.StatusCode,
		Errors: ErrorMessage{Message: e.Message},
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unknown is an
// internal failure and its detail is not exposed.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, NotFoundMessage)
	case errors.Is(err, ErrMalformedBody):
		return NewHTTPError(http.StatusBadRequest, MalformedBodyMessage)
	default:
		return NewHTTPError(http.StatusInternalServerError, InternalMessage)
	}
}
