package normalize

import (
	"fmt"
	"net/http"
)

// Code identifies the kind of outcome in every envelope the proxy emits.
type Code string

const (
	CodeMissingParameter       Code = "missing_parameter"
	CodeUpstreamHTTPError      Code = "upstream_http_error"
	CodeUpstreamJSONParseError Code = "upstream_json_parse_error"
	CodeUpstreamHTMLReceived   Code = "upstream_html_received"
	CodeUpstreamNonJSONContent Code = "upstream_non_json_content"
	CodeInternalProxyError     Code = "internal_proxy_error"
)

const (
	// MaxErrorDetail bounds the raw body echoed back for failed upstream calls.
	MaxErrorDetail = 500
	// MaxRawText bounds the raw body echoed back for parse failures and non-JSON content.
	MaxRawText = 1000

	htmlReceivedMessage = "Received HTML page instead of JSON. The API key is likely invalid or authentication failed."
	nonJSONMessage      = "Received non-JSON response"
)

// Result is one of JSONEnvelope, RawText, HTMLReceived, HTTPError or ParseError.
type Result interface {
	// StatusCode is the status the proxy answers with.
	StatusCode() int
	// Envelope is the JSON-serializable body the proxy answers with.
	Envelope() any
	result()
}

// JSONEnvelope is a successful upstream JSON payload.
type JSONEnvelope struct {
	Value any
}

// RawText is a successful upstream payload that is neither JSON nor HTML.
type RawText struct {
	Text        string
	ContentType string
}

// HTMLReceived means the upstream served an HTML page where JSON was expected,
// which in practice is a login or error page after a rejected credential.
type HTMLReceived struct{}

// HTTPError is a non-2xx upstream answer.
type HTTPError struct {
	Status     int
	StatusText string
	Message    string
	// Details holds the start of a non-JSON error body.
	Details string
}

// ParseError is a body that looked like JSON and was not.
type ParseError struct {
	Err     error
	RawText string
}

func (JSONEnvelope) result() {}
func (RawText) result()      {}
func (HTMLReceived) result() {}
func (HTTPError) result()    {}
func (ParseError) result()   {}

func (JSONEnvelope) StatusCode() int { return http.StatusOK }
func (r JSONEnvelope) Envelope() any { return r.Value }

func (RawText) StatusCode() int { return http.StatusOK }
func (r RawText) Envelope() any {
	return map[string]any{
		"success":     true,
		"code":        CodeUpstreamNonJSONContent,
		"message":     nonJSONMessage,
		"text":        r.Text,
		"contentType": r.ContentType,
	}
}

func (HTMLReceived) StatusCode() int { return http.StatusInternalServerError }
func (HTMLReceived) Envelope() any {
	return map[string]any{
		"success": false,
		"code":    CodeUpstreamHTMLReceived,
		"error":   htmlReceivedMessage,
	}
}

func (r HTTPError) StatusCode() int { return r.Status }

// Error renders the message surfaced to the client.
func (r HTTPError) Error() string {
	reason := r.Message
	if reason == "" {
		reason = r.StatusText
	}
	return fmt.Sprintf("API error: %d - %s", r.Status, reason)
}

func (r HTTPError) Envelope() any {
	env := map[string]any{
		"success":    false,
		"code":       CodeUpstreamHTTPError,
		"error":      r.Error(),
		"status":     r.Status,
		"statusText": r.StatusText,
	}
	if r.Details != "" {
		env["details"] = r.Details
	}
	return env
}

func (ParseError) StatusCode() int { return http.StatusInternalServerError }
func (r ParseError) Envelope() any {
	return map[string]any{
		"success": false,
		"code":    CodeUpstreamJSONParseError,
		"error":   "Failed to parse JSON response: " + r.Err.Error(),
		"rawText": r.RawText,
	}
}

// Failure builds an envelope for errors raised by the proxy itself.
func Failure(code Code, message string) map[string]any {
	return map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	}
}
