package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"xpenso/internal/core"
	"xpenso/internal/store"
)

// UserHeader identifies the caller. Authentication happens upstream.
const UserHeader = "X-User-ID"

const maxUserIDLength = 128

var errMissingUser = errors.New("missing " + UserHeader + " header")

func userIDFrom(r *http.Request) (string, error) {
	id := sanitizeInput(r.Header.Get(UserHeader))
	if id == "" {
		return "", errMissingUser
	}
	if len(id) > maxUserIDLength {
		return "", fmt.Errorf("%s header too long", UserHeader)
	}
	return id, nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidBudget),
		errors.Is(err, errValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateCategory):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type requestIDKey struct{}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}
