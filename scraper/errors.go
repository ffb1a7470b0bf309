package scraper

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRepeatedPage indicates the service returned a full page identical to an
// earlier one, which happens when it ignores resultOffset.
var ErrRepeatedPage = errors.New("feature service returned a repeated page")

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a missing resource (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the target rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus indicates any other response status than 200.
type ErrHTTPStatus struct {
	StatusCode int
	Err        error
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Errorf("http_status %d: %w", e.StatusCode, e.Err).Error()
}

func (e ErrHTTPStatus) Unwrap() error {
	return e.Err
}

// ErrMalformedBody indicates a response body that is not a feature page.
// BodyLimit is set when the body was cut off at the configured size limit.
type ErrMalformedBody struct {
	Offset    int
	BodyLimit int
	Err       error
}

func (e ErrMalformedBody) Error() string {
	if e.BodyLimit > 0 {
		return fmt.Errorf("malformed_body at offset %d (body truncated at max_body_size %d bytes): %w",
			e.Offset, e.BodyLimit, e.Err).Error()
	}
	return fmt.Errorf("malformed_body at offset %d: %w", e.Offset, e.Err).Error()
}

func (e ErrMalformedBody) Unwrap() error {
	return e.Err
}

// ErrAPI is an error object reported by the feature service inside a 200 response.
type ErrAPI struct {
	Code    int
	Message string
	Details []string
}

func (e ErrAPI) Error() string {
	msg := fmt.Sprintf("feature service error %d: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return "http_status"
	}
	var malformed ErrMalformedBody
	if errors.As(err, &malformed) {
		return "malformed_body"
	}
	var api ErrAPI
	if errors.As(err, &api) {
		return "api_error"
	}
	if errors.Is(err, ErrRepeatedPage) {
		return "repeated_page"
	}
	return "other"
}
