package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time.Time that tolerates whatever the upstream sends for a date:
// RFC 3339 strings, unix seconds, empty strings or null. Unparsable values decode
// to the zero time instead of failing the surrounding record.
type Timestamp struct {
	time.Time
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON never returns an error for malformed dates.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	t.Time = time.Time{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		if secs, err := strconv.ParseInt(string(data), 10, 64); err == nil && secs > 0 {
			t.Time = time.Unix(secs, 0).UTC()
		}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil //nolint:nilerr // bad dates become zero
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}
