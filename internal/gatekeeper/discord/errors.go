package discord

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the Discord API. Code carries
// Discord's JSON error code when the body was parseable, zero otherwise.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord: HTTP %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord: HTTP %d: %s", e.StatusCode, e.Message)
}

// parseAPIError converts a failed response into an *APIError, falling
// back to the HTTP status text when the body is not Discord's JSON
// error shape.
func parseAPIError(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Message != "" {
		return apiErr
	}

	apiErr.Code = 0
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
