package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// UnmarshalJSON decodes a stored transaction leniently: amounts may be
// numbers, numeric strings or garbage, and the type may be missing.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string `json:"id"`
		Amount      any    `json:"amount"`
		Description any    `json:"description"`
		Category    any    `json:"category"`
		Type        any    `json:"type"`
		Wallet      any    `json:"wallet"`
		Date        any    `json:"date"`
		CreatedAt   any    `json:"createdAt"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*t = Transaction{
		ID:          raw.ID,
		Amount:      CoerceAmount(raw.Amount),
		Description: asString(raw.Description),
		Category:    asString(raw.Category),
		Type:        TxType(asString(raw.Type)),
		Wallet:      asString(raw.Wallet),
		Date:        ParseTimestamp(raw.Date),
		CreatedAt:   ParseTimestamp(raw.CreatedAt),
	}
	return nil
}

// ParseTimestamp reads RFC 3339 strings, plain dates and unix milliseconds.
// Anything else yields the zero time, which callers treat as absent.
func ParseTimestamp(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	case json.Number:
		if ms, err := x.Int64(); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	case float64:
		if x > 0 {
			return time.UnixMilli(int64(x)).UTC()
		}
	}
	return time.Time{}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
