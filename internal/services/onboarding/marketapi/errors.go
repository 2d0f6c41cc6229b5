package marketapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind tags how an API call failed.
type Kind string

const (
	// KindUnauthorized is a 401 from the marketplace, or no usable token.
	KindUnauthorized Kind = "unauthorized"
	// KindNetwork means no HTTP response was received.
	KindNetwork Kind = "network"
	// KindAPI is a well-formed error envelope.
	KindAPI Kind = "api"
	// KindUnknown is a response that could not be decoded.
	KindUnknown Kind = "unknown"
)

// FieldError is one entry of the envelope's errors list.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error is the failure returned by every Client call. It is classified when
// the response is read, so callers never inspect message text.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Errors  []FieldError
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("marketapi: Network Error: %v", e.Cause)
	case KindUnauthorized:
		return fmt.Sprintf("marketapi: unauthorized (%d): %s", e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("marketapi: %s (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("marketapi: %s (%d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap returns the transport or decode failure, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// FirstFieldError returns the first envelope error, if any.
func (e *Error) FirstFieldError() (FieldError, bool) {
	if len(e.Errors) == 0 {
		return FieldError{}, false
	}
	return e.Errors[0], true
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "Network Error", Cause: err}
}

// errorFromResponse classifies a failed response from its status and body.
func errorFromResponse(status int, body []byte) *Error {
	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	apiErr := &Error{Status: status, Message: env.Message, Errors: env.Errors}
	if len(env.Errors) > 0 {
		apiErr.Code = env.Errors[0].Code
		if apiErr.Message == "" {
			apiErr.Message = env.Errors[0].Message
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	case decodeErr != nil:
		apiErr.Kind = KindUnknown
		apiErr.Message = http.StatusText(status)
		apiErr.Cause = fmt.Errorf("decode error envelope: %w", decodeErr)
	default:
		apiErr.Kind = KindAPI
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	return apiErr
}
