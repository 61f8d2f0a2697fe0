// Package normalize turns whatever the upstream API answered into one
// predictable JSON envelope.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

var errTrailingData = errors.New("unexpected data after top-level value")

// Response is a fully buffered upstream answer.
type Response struct {
	Status      int
	StatusText  string
	ContentType string
	Body        []byte
}

// IsSuccess reports whether the status is in the 2xx range.
func (r Response) IsSuccess() bool {
	return r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices
}

func (r Response) statusText() string {
	if r.StatusText != "" {
		return r.StatusText
	}
	return http.StatusText(r.Status)
}

// Normalize classifies a buffered upstream response. It never panics and
// never returns nil.
func Normalize(resp Response) Result {
	text := string(resp.Body)

	if !resp.IsSuccess() {
		return httpError(resp, text)
	}

	trimmed := strings.TrimSpace(text)
	looksJSON := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")

	// The upstream mislabels content types in both directions, so the body
	// prefix decides as much as the header does.
	if !looksJSON && isHTML(text) {
		return HTMLReceived{}
	}

	if looksJSON || strings.Contains(strings.ToLower(resp.ContentType), "application/json") {
		value, err := decodeJSON(resp.Body)
		if err != nil {
			return ParseError{Err: err, RawText: Truncate(text, MaxRawText)}
		}
		return JSONEnvelope{Value: value}
	}

	return RawText{
		Text:        Truncate(text, MaxRawText),
		ContentType: resp.ContentType,
	}
}

// NormalizeAlbums is Normalize followed by album shape inference on JSON results.
func NormalizeAlbums(resp Response) Result {
	res := Normalize(resp)
	if env, ok := res.(JSONEnvelope); ok {
		return JSONEnvelope{Value: ShapeAlbums(env.Value)}
	}
	return res
}

func httpError(resp Response, text string) HTTPError {
	out := HTTPError{
		Status:     resp.Status,
		StatusText: resp.statusText(),
	}

	value, err := decodeJSON(resp.Body)
	if err != nil {
		out.Details = Truncate(text, MaxErrorDetail)
		return out
	}

	if obj, ok := value.(map[string]any); ok {
		out.Message = firstString(obj, "error", "message")
	}
	return out
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// decodeJSON parses exactly one JSON value, keeping numbers verbatim.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return value, nil
}

func isHTML(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

// Truncate cuts s to at most limit characters without splitting a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
