package directus

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes returned by Directus in errors[].extensions.code.
const (
	CodeRecordNotUnique   = "RECORD_NOT_UNIQUE"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeInvalidCreds      = "INVALID_CREDENTIALS"
	CodeForbidden         = "FORBIDDEN"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeRouteNotFound     = "ROUTE_NOT_FOUND"
	CodeInvalidForeignKey = "INVALID_FOREIGN_KEY"
)

// ErrorItem is one entry of the "errors" array.
type ErrorItem struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// APIError is returned for any response with status >= 400.
type APIError struct {
	Method string
	Path   string
	Status int
	Errors []ErrorItem
	Body   string
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}
	var payload struct {
		Errors []ErrorItem `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		apiErr.Errors = payload.Errors
	} else {
		apiErr.Body = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d) %s %s: %s", e.Status, e.Method, e.Path, e.Message())
}

// Message returns the first error message, or the raw body.
func (e *APIError) Message() string {
	if len(e.Errors) > 0 && e.Errors[0].Message != "" {
		return e.Errors[0].Message
	}
	if e.Body != "" {
		return e.Body
	}
	return http.StatusText(e.Status)
}

// HasCode reports whether any error entry carries the given code.
func (e *APIError) HasCode(code string) bool {
	for _, item := range e.Errors {
		if item.Extensions.Code == code {
			return true
		}
	}
	return false
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && (apiErr.Status == http.StatusNotFound || apiErr.HasCode(CodeRouteNotFound))
}

// IsForbidden reports whether err is a 403 response. Directus answers 403 for
// missing collections too, so callers that check for existence treat both
// the same way.
func IsForbidden(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && (apiErr.Status == http.StatusUnauthorized || apiErr.HasCode(CodeInvalidCreds) || apiErr.HasCode(CodeTokenExpired))
}

// IsAlreadyExists reports whether err signals a duplicate collection, field,
// relation or record.
func IsAlreadyExists(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	if apiErr.HasCode(CodeRecordNotUnique) {
		return true
	}
	msg := strings.ToLower(apiErr.Message())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "already has an associated relationship")
}

// Message extracts a human readable message from err.
func Message(err error) string {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Message()
	}
	return err.Error()
}
