package client

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNoEndpoint is returned when neither an endpoint nor a token to derive one from is available.
var ErrNoEndpoint = errors.New("no token or endpoint provided")

// ErrorExtensions carries Kraken's structured error details.
type ErrorExtensions struct {
	ErrorType        string `json:"errorType"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

// GraphQLError is a single entry of a response's errors array.
type GraphQLError struct {
	Message    string          `json:"message"`
	Path       []any           `json:"path"`
	Extensions ErrorExtensions `json:"extensions"`
}

func (e GraphQLError) Error() string {
	path := make([]string, len(e.Path))
	for i, p := range e.Path {
		path[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s (%s): %s %s (%s)",
		e.Extensions.ErrorType, e.Extensions.ErrorCode, strings.Join(path, "."), e.Message, e.Extensions.ErrorDescription)
}

// GraphQLErrors is returned when the API answers with an errors array.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	if len(e) == 0 {
		return "response carried an empty errors list"
	}
	lines := make([]string, len(e))
	for i, gqlErr := range e {
		lines[i] = gqlErr.Error()
	}
	return strings.Join(lines, "\n")
}

// TransportError covers network failures, non-2xx responses and unparsable bodies.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("invalid response from %s (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("request to %s returned HTTP %d: %s", e.URL, e.StatusCode, preview(e.Body))
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the request may succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

const previewLen = 200

// preview shortens body to at most previewLen bytes without splitting a rune.
func preview(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= previewLen {
		return body
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
