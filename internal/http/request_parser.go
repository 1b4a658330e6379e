package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xpenso/internal/core"
	"xpenso/internal/period"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// errValidation marks malformed request fields; they map to 422.
var errValidation = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errValidation, fmt.Sprintf(format, args...))
}

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as trimmed, sanitized strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = invalid("request body too large")
	}
	return p
}

// Parse decodes JSON when the body looks like an object and falls back to
// form encoding otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	switch {
	case trimmed == "":
		p.formData = url.Values{}
	case trimmed[0] == '{':
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = invalid("malformed JSON body: %v", err)
		}
	default:
		if p.formData, p.err = url.ParseQuery(trimmed); p.err != nil {
			p.err = invalid("malformed form body: %v", p.err)
		}
	}
	return p.err
}

func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseTransaction builds the transaction to record. Field checks beyond the
// amount and date formats are left to core.Transaction.Validate.
func parseTransaction(p *RequestBodyParser) (core.Transaction, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Amount:      amount,
		Description: p.Get("description"),
		Category:    p.Get("category"),
		Type:        core.TxType(strings.ToLower(p.Get("type"))),
		Wallet:      p.Get("wallet"),
	}
	if v := p.Get("date"); v != "" {
		if tx.Date, err = parseDateTime(v); err != nil {
			return core.Transaction{}, err
		}
	}
	return tx, nil
}

func parseCategory(p *RequestBodyParser) (core.BudgetCategory, error) {
	c := core.BudgetCategory{
		Name:  p.Get("name"),
		Icon:  p.Get("icon"),
		Color: p.Get("color"),
	}
	if v := p.Get("budget"); v != "" {
		b, err := core.ParseAmount(v)
		if err != nil {
			return core.BudgetCategory{}, core.ErrInvalidBudget
		}
		c.Budget = b
	}
	return c, nil
}

func parseSettings(p *RequestBodyParser) (core.Settings, error) {
	b, err := core.ParseAmount(p.Get("monthlyBudget"))
	if err != nil {
		return core.Settings{}, core.ErrInvalidBudget
	}
	return core.Settings{DisplayName: p.Get("displayName"), MonthlyBudget: b}, nil
}

// parseDateTime accepts a calendar date or an RFC 3339 timestamp.
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return parseDate(s, time.UTC)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, invalid("date %q is not YYYY-MM-DD", s)
	}
	return t, nil
}

// parseWindow reads mode and date. A day window without a date is today.
func parseWindow(query url.Values, now time.Time) (period.Window, error) {
	mode, err := period.ParseMode(query.Get("mode"))
	if err != nil {
		return period.Window{}, invalid("%v", err)
	}
	w := period.Window{Mode: mode}
	if mode != period.Day {
		return w, nil
	}
	if v := strings.TrimSpace(query.Get("date")); v != "" {
		if w.Date, err = parseDate(v, now.Location()); err != nil {
			return period.Window{}, err
		}
		return w, nil
	}
	w.Date = now
	return w, nil
}

// parseDay reads the date parameter of the day endpoints, defaulting to today.
func parseDay(query url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return now, nil
	}
	return parseDate(v, now.Location())
}

// parseSort maps "asc"/"desc" (default desc) to an ascending flag.
func parseSort(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return false, nil
	case "asc":
		return true, nil
	default:
		return false, invalid("unknown sort order %q", s)
	}
}

func parseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, invalid("limit must be a non-negative integer")
	}
	return n, nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
