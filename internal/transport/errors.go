package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies an error category. Callers branch on the kind only, never on
// transport internals.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindInvalidURL
	KindTransport
	KindStatus
	KindAuthentication
	KindDecoding
	KindEncoding
	KindNoChanges
	KindUnsupported
	KindValidation
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindConfiguration:  "configuration",
	KindInvalidURL:     "invalid_url",
	KindTransport:      "transport",
	KindStatus:         "response_status",
	KindAuthentication: "authentication",
	KindDecoding:       "decoding",
	KindEncoding:       "encoding",
	KindNoChanges:      "no_changes",
	KindUnsupported:    "unsupported_operation",
	KindValidation:     "validation",
}

func (k Kind) String() string { return kindNames[k] }

// ConfigurationError means no base endpoint is configured.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "api not configured: " + e.Reason
}

func (e *ConfigurationError) UserMessage() string {
	return "The API base URL is not configured. Set it with `inkasso config set-endpoint`."
}

// InvalidURLError means the base endpoint and path do not form a usable URL.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid api url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid api url %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

func (e *InvalidURLError) UserMessage() string {
	return "The configured API URL is invalid."
}

// TransportError wraps a failure to get any HTTP response: connection refused,
// DNS, TLS, or the request timeout.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran into the client timeout.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

func (e *TransportError) UserMessage() string {
	if e.Timeout() {
		return "The server did not answer in time. Please try again."
	}
	return "Network request failed. Check your connection and try again."
}

// StatusError is any non-2xx response other than 401. Message comes from the
// {"error": "..."} envelope or the raw body, and may be empty.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected response status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("The server answered with status %d.", e.StatusCode)
	}
	return fmt.Sprintf("The server answered with status %d (%s).", e.StatusCode, text)
}

// AuthenticationError is a 401 response or a missing local token.
type AuthenticationError struct {
	StatusCode int // 0 when no token was available locally
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return "unauthorized: server rejected the bearer token"
	}
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: no api token available: %v", e.Err)
	}
	return "unauthorized: no api token available"
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) UserMessage() string {
	return "Not authorized. Check or re-enter the API token (`inkasso token set`)."
}

// DecodeFailure says how a response body failed to match the expected shape.
type DecodeFailure string

const (
	KeyNotFound   DecodeFailure = "key_not_found"
	ValueNotFound DecodeFailure = "value_not_found"
	TypeMismatch  DecodeFailure = "type_mismatch"
	DataCorrupted DecodeFailure = "data_corrupted"
	NoContent     DecodeFailure = "no_content"
)

// DecodingError means the body does not match the expected shape, including an
// empty body where data was expected.
type DecodingError struct {
	Path    string
	Failure DecodeFailure
	Detail  string
}

func (e *DecodingError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("decode response: %s at %s: %s", e.Failure, path, e.Detail)
}

func (e *DecodingError) UserMessage() string {
	if e.Failure == NoContent {
		return "The server sent no data where data was expected."
	}
	if e.Path == "" {
		return "The server response could not be processed."
	}
	return fmt.Sprintf("The server response could not be processed (field %s).", e.Path)
}

// EncodingError means a request payload could not be serialized.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("encode request body: %v", e.Err) }

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) UserMessage() string {
	return "The request could not be prepared."
}

// NoChangesError is raised before an update call whose payload sets nothing.
type NoChangesError struct {
	Resource string
}

func (e *NoChangesError) Error() string {
	return fmt.Sprintf("update %s: payload has no editable fields set", e.Resource)
}

func (e *NoChangesError) UserMessage() string { return "There are no changes to save." }

// UnsupportedOperationError guards operations the backend intentionally does
// not offer.
type UnsupportedOperationError struct {
	Operation string
	Hint      string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Hint == "" {
		return e.Operation + " is not supported"
	}
	return fmt.Sprintf("%s is not supported, %s", e.Operation, e.Hint)
}

func (e *UnsupportedOperationError) UserMessage() string {
	op := e.Operation
	if op == "" {
		op = "this operation"
	}
	msg := strings.ToUpper(op[:1]) + op[1:] + " is not supported"
	if e.Hint != "" {
		msg += ", " + e.Hint
	}
	return msg + "."
}

// KindOf classifies err. Wrapped errors are unwrapped.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var (
		cfgErr    *ConfigurationError
		urlErr    *InvalidURLError
		trErr     *TransportError
		statusErr *StatusError
		authErr   *AuthenticationError
		decErr    *DecodingError
		encErr    *EncodingError
		noChange  *NoChangesError
		unsupp    *UnsupportedOperationError
	)
	switch {
	case errors.As(err, &authErr):
		return KindAuthentication
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &urlErr):
		return KindInvalidURL
	case errors.As(err, &trErr):
		return KindTransport
	case errors.As(err, &statusErr):
		return KindStatus
	case errors.As(err, &decErr):
		return KindDecoding
	case errors.As(err, &encErr):
		return KindEncoding
	case errors.As(err, &noChange):
		return KindNoChanges
	case errors.As(err, &unsupp):
		return KindUnsupported
	}
	var v interface{ UserMessage() string }
	if errors.As(err, &v) {
		return KindValidation
	}
	return KindUnknown
}

// UserMessage renders err for display. Errors outside the taxonomy fall back
// to their Error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var u interface{ UserMessage() string }
	if errors.As(err, &u) {
		return u.UserMessage()
	}
	return err.Error()
}
