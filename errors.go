package awhere

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// maxErrorBody caps how much of a response body is copied into an error.
const maxErrorBody = 512

// AuthError reports a rejected credential exchange, or an access token the
// platform kept rejecting after repeated refreshes.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Body)
}

// APIError reports a non-2xx response that was not an expired-token
// condition. The request is not retried.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Body)
}

// ResponseError reports a response body that could not be interpreted.
type ResponseError struct {
	Reason string
	Err    error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *ResponseError) Unwrap() error { return e.Err }

// ValidationError reports a request parameter rejected before any network
// activity.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// expiredTokenSentinel is the marker the platform places in a response body
// when the bearer token has expired. Expiry is reported through the body,
// not through a dedicated status code.
const expiredTokenSentinel = "API Access Expired"

// expiredTokenFields are the error payload fields probed for the sentinel
// before falling back to a whole-body substring match.
var expiredTokenFields = []string{"simpleMessage", "detailedMessage", "statusName", "message"}

// isExpiredToken reports whether a response body carries the expired-token
// sentinel.
func isExpiredToken(body []byte) bool {
	if gjson.ValidBytes(body) {
		for _, field := range expiredTokenFields {
			if strings.Contains(gjson.GetBytes(body, field).String(), expiredTokenSentinel) {
				return true
			}
		}
	}
	return bytes.Contains(body, []byte(expiredTokenSentinel))
}

// snippet trims a body for inclusion in an error message.
func snippet(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

// decode unmarshals a response body, classifying failures as malformed
// responses.
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &ResponseError{Reason: "decoding response", Err: err}
	}
	return nil
}
