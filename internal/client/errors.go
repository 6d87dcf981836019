package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/pkg/errors"
)

// ErrNotAcceptable matches (via errors.Is) an HTTPError with status 406,
// returned when the service supports none of the offered alternatives, e.g.
// none of the download methods given to fetchObjectMetadata
var ErrNotAcceptable = errors.New("not acceptable")

// maxErrorBody caps how much of a response body an error message quotes
const maxErrorBody = 512

// ArgumentError reports a call whose arguments do not fit the operation. It
// is returned before any request is sent.
type ArgumentError struct {
	Operation string
	Err       error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid arguments: %v", e.Operation, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// ValidationError reports a request payload that does not satisfy the
// operation's input schema. It is returned before any request is sent.
type ValidationError struct {
	Operation string
	Schema    string
	Problems  []models.ValidationError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return fmt.Sprintf("%s: payload does not match %s: %s", e.Operation, e.Schema, strings.Join(msgs, "; "))
}

// HTTPError is a response with a failure status code
type HTTPError struct {
	Operation  string
	Method     string
	URL        string
	StatusCode int
	Body       []byte

	// Code and Message are taken from the service's JSON error body, if any
	Code    string
	Message string
}

func newHTTPError(operation, method, url string, statusCode int, body []byte) *HTTPError {
	e := &HTTPError{
		Operation:  operation,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Body:       body,
	}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Code
		e.Message = payload.Message
	}
	return e
}

func (e *HTTPError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = strings.TrimSpace(string(e.Body))
	}
	if len(detail) > maxErrorBody {
		detail = detail[:maxErrorBody] + "..."
	}
	msg := fmt.Sprintf("%s: %s %s: %d %s", e.Operation, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Is makes errors.Is(err, ErrNotAcceptable) hold for 406 responses
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotAcceptable && e.StatusCode == http.StatusNotAcceptable
}

// Temporary reports whether the failure is worth retrying
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500
}
