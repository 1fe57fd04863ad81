package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidArgument signals a structural or type violation in caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicateID signals a non-unique identifier list.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrNotFound signals a missing cluster or resource on the server.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized signals a rejected API key or token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServer signals any other non-2xx response from the service.
	ErrServer = errors.New("server error")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrEmbedderNotConfigured signals that texts must be embedded but no embedder is set.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
)

// InvalidArgumentf builds an error wrapping ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// DuplicateIDError reports the identifiers that occur more than once.
// It matches both ErrDuplicateID and ErrInvalidArgument.
type DuplicateIDError struct {
	IDs []string
	// Message is set when the error was decoded from a server response.
	Message string
}

// NewDuplicateIDError creates a duplicate id error for the given values.
func NewDuplicateIDError(ids []string) *DuplicateIDError {
	return &DuplicateIDError{IDs: ids}
}

func (e *DuplicateIDError) Error() string {
	if len(e.IDs) == 0 && e.Message != "" {
		return ErrDuplicateID.Error() + ": " + e.Message
	}
	return fmt.Sprintf("%s: expected ids to be unique, found duplicates for: %s",
		ErrDuplicateID.Error(), strings.Join(e.IDs, ", "))
}

func (e *DuplicateIDError) Unwrap() []error {
	return []error{ErrDuplicateID, ErrInvalidArgument}
}

// APIError is a non-2xx response from the BagelDB service.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Name != "" {
		return fmt.Sprintf("bagel api error %d (%s): %s", e.StatusCode, e.Name, msg)
	}
	return fmt.Sprintf("bagel api error %d: %s", e.StatusCode, msg)
}

// Unwrap maps the status code onto a sentinel.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidArgument
	default:
		return ErrServer
	}
}

// errorTypes maps server-side error names onto typed client errors.
var errorTypes = map[string]func(message string) error{
	"DuplicateID": func(message string) error {
		return &DuplicateIDError{Message: message}
	},
}

// ErrorFromResponse converts a decoded {"error": name, "message": msg} body into
// a typed error. Unknown names fall back to *APIError.
func ErrorFromResponse(statusCode int, name, message string) error {
	if ctor, ok := errorTypes[name]; ok {
		return ctor(message)
	}
	return &APIError{StatusCode: statusCode, Name: name, Message: message}
}
