package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string // server-supplied text, may be empty
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    extractMessage(body),
		Body:       body,
	}
}

// preferred keys, in order, for the human-readable message
var messageKeys = []string{"error", "message", "detail", "non_field_errors"}

// extractMessage pulls the most useful text out of an error body:
// {"error": "..."}, {"message": "..."}, {"detail": "..."}, field errors
// such as {"cantidad": ["..."]}, or a bare list of strings.
func extractMessage(body []byte) string {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}

	switch v := decoded.(type) {
	case string:
		return v
	case []interface{}:
		return firstString(v)
	case map[string]interface{}:
		for _, k := range messageKeys {
			if msg := asMessage(v[k]); msg != "" {
				return msg
			}
		}

		fields := make([]string, 0, len(v))
		for k := range v {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			if msg := asMessage(v[k]); msg != "" {
				return k + ": " + msg
			}
		}
	}
	return ""
}

func asMessage(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		return firstString(t)
	}
	return ""
}

func firstString(list []interface{}) string {
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// Message returns the server-supplied message of err, or "".
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// MessageOr returns the server message or fallback.
func MessageOr(err error, fallback string) string {
	if msg := Message(err); msg != "" {
		return msg
	}
	return fallback
}

// IsRetryable reports whether repeating the call could succeed: transport
// failures, timeouts, throttling and 5xx answers.
func IsRetryable(err error) bool {
	code := StatusCode(err)
	if code == 0 {
		return err != nil
	}
	return code >= http.StatusInternalServerError ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}
