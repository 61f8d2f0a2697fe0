package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Count is an int64 that tolerates whatever the upstream sends for a number:
// integers, floats in any notation, numeric strings or null. Anything else
// decodes to zero instead of failing the surrounding record.
type Count int64

// UnmarshalJSON never returns an error for malformed numbers.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = 0

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil //nolint:nilerr // bad numbers become zero
		}
		text = strings.TrimSpace(raw)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		*c = Count(n)
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return nil //nolint:nilerr // bad numbers become zero
	}
	*c = Count(math.Round(f))
	return nil
}
