package anthropic

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// IsContextLengthError checks if an error reports a prompt or response too
// large for the model.
func IsContextLengthError(err error) bool {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	msg := strings.ToLower(apiErr.Error())
	return strings.Contains(msg, "max_tokens") ||
		strings.Contains(msg, "context_length") ||
		strings.Contains(msg, "prompt is too long")
}

// IsRetryableError checks if an error is a rate limit or server error.
func IsRetryableError(err error) bool {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	// Retry on rate limits and server errors
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}
