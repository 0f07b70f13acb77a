package services

import "net/http"

// ErrorKind classifies a failed operation for the caller.
type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindNotFound            ErrorKind = "not_found"
	KindInternal            ErrorKind = "internal"
)

// ServiceError represents a typed error with an HTTP status code. Message is
// safe to show to the client; Err carries the underlying cause for logs.
type ServiceError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func invalidRequest(msg string) *ServiceError {
	return &ServiceError{Kind: KindInvalidRequest, StatusCode: http.StatusBadRequest, Message: msg}
}

func unauthorized(msg string, err error) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Message: msg, Err: err}
}

func upstreamUnavailable(msg string, err error) *ServiceError {
	return &ServiceError{Kind: KindUpstreamUnavailable, StatusCode: http.StatusInternalServerError, Message: msg, Err: err}
}

func notFound(msg string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: msg}
}

func internal(msg string, err error) *ServiceError {
	return &ServiceError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Message: msg, Err: err}
}
