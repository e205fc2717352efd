package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx response from the legal-assistant API.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the server rejected the credential.
func (e *HTTPError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err wraps a 401/403 HTTPError.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Unauthorized()
}

// ResponseError reads at most 4KiB of resp.Body and turns it into an HTTPError.
// The caller still owns resp.Body.
func ResponseError(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	msg := MessageFromBody(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return &HTTPError{Status: resp.StatusCode, Message: msg}
}

// MessageFromBody extracts a human readable message from an error body.
// It understands FastAPI `detail` (string or object), `error_message`,
// `message` and `error`, and falls back to the trimmed raw text.
func MessageFromBody(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return ""
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		if strings.HasPrefix(raw, "<") {
			// html error pages are noise
			return ""
		}
		return raw
	}
	if msg := messageFromMap(decoded); msg != "" {
		return msg
	}
	return ""
}

func messageFromMap(m map[string]any) string {
	if d, ok := m["detail"]; ok {
		switch v := d.(type) {
		case string:
			return v
		case map[string]any:
			if msg := messageFromMap(v); msg != "" {
				return msg
			}
		case []any:
			// pydantic validation errors
			if len(v) > 0 {
				if first, ok := v[0].(map[string]any); ok {
					if msg, ok := first["msg"].(string); ok {
						return msg
					}
				}
			}
		}
	}
	for _, k := range []string{"error_message", "message", "error"} {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
