package helius

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCursorInvalid is returned when the provider rejects the `before`
// cursor. The ingestion driver clears the cursor and retries once.
var ErrCursorInvalid = errors.New("provider rejected before cursor")

// APIError is a non-cursor provider error with user-facing diagnostics.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // provider error code, "" if absent
	Message string // provider message, truncated
	Hint    string // remediation hint, "" if none
}

func (e *APIError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("provider error %d: %s (%s)", e.Status, e.Message, e.Hint)
	}
	return fmt.Sprintf("provider error %d: %s", e.Status, e.Message)
}

// Temporary reports whether the error should be retried.
func (e *APIError) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}

// IsTemporary reports whether err is a retryable provider or transport error.
// Network errors (no *APIError in the chain) are treated as retryable.
func IsTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, ErrCursorInvalid) {
		return false
	}
	return true
}

// errorEnvelope is the provider's error body shape.
type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// mapError converts an HTTP error status + body into the error taxonomy.
// body is already truncated by the caller for logging.
func mapError(status int, env errorEnvelope, body string) error {
	msg := env.Message
	if msg == "" {
		msg = body
	}
	lower := strings.ToLower(msg)

	if status == 400 {
		if env.Code == "INVALID_BEFORE" || strings.Contains(lower, "invalid before") {
			return fmt.Errorf("%w: %s", ErrCursorInvalid, msg)
		}
		if strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api-key") || strings.Contains(lower, "api key") {
			return &APIError{Status: status, Code: env.Code, Message: msg, Hint: "check your API key"}
		}
	}
	if status == 401 || status == 403 {
		return &APIError{Status: status, Code: env.Code, Message: msg, Hint: "check your API key"}
	}
	if status == 429 {
		return &APIError{Status: status, Code: env.Code, Message: msg, Hint: "rate limited, will retry"}
	}
	return &APIError{Status: status, Code: env.Code, Message: msg}
}
