package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
)

// ErrRefreshFailed is matched by every *RefreshError.
var ErrRefreshFailed = apperrors.ErrRefreshFailed

const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgNetwork        = "Unable to reach the server. Check your connection and try again."
	maxErrorBody      = 64 << 10
)

// APIError is a non-2xx response from the backend. Message, Title, Detail and
// Errors are filled from the body when it is JSON in one of the shapes the
// backend uses (plain {message}, RFC 7807 problem details, validation errors).
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	Title      string
	Detail     string
	Errors     map[string][]string
	Body       []byte
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// RefreshError reports that a 401 could not be recovered because the refresh
// call failed. Stored credentials have been cleared by the time it is returned.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRefreshFailed, e.Err)
}

func (e *RefreshError) Unwrap() []error {
	return []error{ErrRefreshFailed, e.Err}
}

type errorBody struct {
	Message string          `json:"message"`
	Title   string          `json:"title"`
	Detail  string          `json:"detail"`
	Errors  json.RawMessage `json:"errors"`
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
		Body:       body,
	}

	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(eb.Message)
	apiErr.Title = strings.TrimSpace(eb.Title)
	apiErr.Detail = strings.TrimSpace(eb.Detail)
	apiErr.Errors = decodeFieldErrors(eb.Errors)
	return apiErr
}

// decodeFieldErrors accepts {"Field": ["msg"]} or ["msg"].
func decodeFieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var byField map[string][]string
	if err := json.Unmarshal(raw, &byField); err == nil {
		return byField
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return map[string][]string{"": list}
	}
	return nil
}

// FieldErrors flattens Errors into "Field: message" lines, sorted by field.
func (e *APIError) FieldErrors() []string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []string
	for _, f := range fields {
		for _, msg := range e.Errors[f] {
			if f == "" {
				out = append(out, msg)
			} else {
				out = append(out, f+": "+msg)
			}
		}
	}
	return out
}

// ErrorMessage turns err into text fit for showing to the user. Backend
// errors prefer message, then title, then the field-error list.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrRefreshFailed) {
		return msgSessionExpired
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.Title != "":
			return apiErr.Title
		}
		if fe := apiErr.FieldErrors(); len(fe) > 0 {
			return strings.Join(fe, "; ")
		}
		return fmt.Sprintf("Request failed with status %d", apiErr.StatusCode)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return msgNetwork
	}
	return err.Error()
}
