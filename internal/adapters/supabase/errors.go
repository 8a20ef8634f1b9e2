package supabase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase %d: %s", e.Status, e.Message)
}

// Is lets callers test against the domain sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrForbidden:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrInvalid:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusConflict ||
			e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// PostgREST answers {message, code, details, hint}; the auth service uses
// {error, error_description} or {msg, error_code}.
type errorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	e := &Error{Status: resp.StatusCode}
	var b errorBody
	if json.Unmarshal(raw, &b) == nil {
		e.Message = firstNonEmpty(b.Message, b.Msg, b.ErrorDescription, b.Error)
		switch v := b.Code.(type) {
		case string:
			e.Code = v
		case float64:
			e.Code = fmt.Sprintf("%d", int(v))
		}
		if e.Code == "" {
			e.Code = firstNonEmpty(b.ErrorCode, b.Error)
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
