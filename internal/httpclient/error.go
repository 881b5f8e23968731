package httpclient

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/cockroachdb/errors"
)

// Error is a non-2xx response from the server
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Response   []byte
	kind       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Is lets errors.Is match the error kind derived from the status code
func (e *Error) Is(target error) bool {
	return e.kind != nil && errors.Is(e.kind, target)
}

// ErrorHint returns the server's message, if it sent one
func (e *Error) ErrorHint() string {
	if msg := serverMessage(e.Response); msg != "" {
		return msg
	}
	return fmt.Sprintf("The invoice server answered %d", e.StatusCode)
}

// NewError creates an HTTP error classified by status code
func NewError(method, url string, statusCode int, response []byte) *Error {
	return &Error{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Response:   response,
		kind:       ierr.KindFromStatus(statusCode),
	}
}

// IsHTTPError checks if an error is an HTTP response error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// serverMessage extracts a readable message from common REST error bodies:
// {"detail": "..."} or {"field": ["msg", ...], ...}
func serverMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || len(obj) == 0 {
		return ""
	}

	var detail string
	if raw, ok := obj["detail"]; ok && json.Unmarshal(raw, &detail) == nil {
		return detail
	}

	var parts []string
	for field, raw := range obj {
		var msgs []string
		if json.Unmarshal(raw, &msgs) == nil && len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs[0]))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
