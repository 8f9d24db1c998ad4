package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxErrorBody bounds how much raw response body is carried inside an
// APIError. Enough to root-cause a misconfiguration, not enough to flood a
// log line.
const maxErrorBody = 2048

// ConfigError means the provider cannot be called at all with the current
// configuration (missing key, missing endpoint). It is never retried.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration error: %s", e.Provider, e.Reason)
}

// APIError is a structured provider failure: a 4xx/5xx response or an
// in-stream error event, with enough request context for an operator to
// reproduce the failure without re-running the job.
type APIError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s api error", e.Provider)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Endpoint != "" {
		fmt.Fprintf(&b, " (endpoint %s)", e.Endpoint)
	}
	return b.String()
}

// errorPayload matches the common provider error envelopes. All three
// providers wrap the details in an "error" object; gemini uses a numeric
// code, anthropic a "type" instead of a code.
type errorPayload struct {
	Code    json.Number `json:"code"`
	Status  string      `json:"status"`
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Error   *struct {
		Code    json.Number `json:"code"`
		Status  string      `json:"status"`
		Type    string      `json:"type"`
		Message string      `json:"message"`
	} `json:"error"`
}

// parseErrorBody extracts a code and message from a raw error body,
// supporting one level of nesting. It never fails: an unparseable body
// yields empty code/message and the caller falls back to the raw text.
func parseErrorBody(raw []byte) (code, message string) {
	var p errorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", ""
	}
	if p.Error != nil {
		return firstNonEmpty(p.Error.Code.String(), p.Error.Status, p.Error.Type), p.Error.Message
	}
	return firstNonEmpty(p.Code.String(), p.Status, p.Type), p.Message
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" && v != "0" {
			return v
		}
	}
	return ""
}

func truncateBody(raw []byte) string {
	if len(raw) > maxErrorBody {
		return string(raw[:maxErrorBody]) + "... (truncated)"
	}
	return string(raw)
}

// newAPIError builds an APIError from an HTTP error response body.
func newAPIError(providerName string, status int, endpoint string, raw []byte) *APIError {
	code, message := parseErrorBody(raw)
	if message == "" {
		message = strings.TrimSpace(truncateBody(raw))
	}
	return &APIError{
		Provider:   providerName,
		Code:       code,
		Message:    message,
		StatusCode: status,
		Endpoint:   endpoint,
		Body:       truncateBody(raw),
	}
}
