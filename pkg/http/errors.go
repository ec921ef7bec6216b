package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies an ApiError.
type ErrorKind int

const (
	// KindConfiguration is a caller mistake detected before any network call.
	KindConfiguration ErrorKind = iota + 1
	// KindServerRejected means the backend answered with a non-2xx status and a detail message.
	KindServerRejected
	// KindUnavailable means the backend could not be reached within the retry budget.
	KindUnavailable
	// KindProtocolViolation means the backend answered with a body that is not valid JSON.
	KindProtocolViolation
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindServerRejected:
		return "server_rejected"
	case KindUnavailable:
		return "unavailable"
	case KindProtocolViolation:
		return "protocol_violation"
	default:
		return "unknown"
	}
}

const (
	unexpectedErrorMessage = "An unexpected error occurred while contacting the API server. Please try again."
	protocolBugMessage     = "The API server returned an unreadable response. This is a bug, please report it."
	streamUnavailableMsg   = "The API server is not available yet. Please wait a moment and try again."
)

// ApiError is the only error type returned by Client operations.
type ApiError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ApiError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error (%s, HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an ApiError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

func configurationError(format string, args ...any) *ApiError {
	return &ApiError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// transportError wraps a failure of the round trip itself; it never escapes the package.
type transportError struct {
	err  error
	pool bool
}

func (e *transportError) Error() string {
	return fmt.Sprintf("network error: %v", e.err)
}

func (e *transportError) Unwrap() error {
	return e.err
}

// errorFromResponse builds the error for a non-2xx response.
func errorFromResponse(status int, body []byte) *ApiError {
	if !gjson.ValidBytes(body) {
		return &ApiError{
			Kind:       KindProtocolViolation,
			StatusCode: status,
			Message:    protocolBugMessage,
			Err:        fmt.Errorf("non-JSON error body: %q", truncate(string(body), 256)),
		}
	}

	message := detailMessage(body)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	return &ApiError{
		Kind:       KindServerRejected,
		StatusCode: status,
		Message:    message,
	}
}

// detailMessage extracts the human readable text of a {"detail": ...} payload.
// Both a plain string and a list of {"msg": ...} objects are understood.
func detailMessage(body []byte) string {
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists():
		return ""
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			if msg := item.Get("msg"); msg.Exists() {
				msgs = append(msgs, msg.String())
			} else {
				msgs = append(msgs, item.String())
			}
		}
		return strings.Join(msgs, "; ")
	default:
		return detail.String()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
