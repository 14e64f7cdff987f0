package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrTagRetryExhausted is attached to a retryable failure whose retry budget is spent
var ErrTagRetryExhausted = goerr.NewTag("retry_exhausted")

// secondaryRateLimitMarker identifies a 403 that is a secondary rate limit
// rather than a permission failure
const secondaryRateLimitMarker = "secondary rate limit"

// APIError is a non-2xx response from the hosting API
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string // Status text, e.g. "Not Found"
	Body       string
	Attempts   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API request failed: %s %s: %d %s: %s",
		e.Method, e.URL, e.StatusCode, e.Status, e.Body)
}

// newAPIError builds an APIError, falling back to the canonical status text
func newAPIError(method, url string, resp *http.Response, body string, attempts int) *APIError {
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     status,
		Body:       body,
		Attempts:   attempts,
	}
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsRetryable reports whether a response with the given status and body
// is worth retrying: 429, any 5xx, or a 403 secondary rate limit
func IsRetryable(statusCode int, body string) bool {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return true
	case statusCode >= 500 && statusCode <= 599:
		return true
	case statusCode == http.StatusForbidden:
		return strings.Contains(strings.ToLower(body), secondaryRateLimitMarker)
	default:
		return false
	}
}
