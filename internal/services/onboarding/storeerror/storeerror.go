// Package storeerror turns failures from the marketplace API and the wizard
// into StoreError values with user-facing copy, and raises the toast and
// sign-in redirect side effects for them.
//
// Classification order:
//  1. a StoreError already in the chain is returned unchanged;
//  2. a *marketapi.Error is mapped by its Kind, and the first entry of its
//     errors list is returned verbatim;
//  3. a platform domain error keeps its code;
//  4. untyped errors are matched on "401" and "Network Error" in their text;
//  5. anything else is UNKNOWN_ERROR.
package storeerror

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	errori18n "github.com/louisbranch/farmstand.market/internal/platform/errors/i18n"
	"github.com/louisbranch/farmstand.market/internal/platform/notice"
	"github.com/louisbranch/farmstand.market/internal/platform/requestctx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/marketapi"
)

// StoreError is a classified failure ready to show to a user.
type StoreError struct {
	Code    apperrors.Code    `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Field != "" {
		return string(e.Code) + ": " + e.Field + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message
}

// Notifier shows a toast to the current user.
type Notifier interface {
	Toast(ctx context.Context, n notice.Notice)
}

// AuthFailureFunc runs once per handled UNAUTHORIZED error, typically
// sending the user to sign in again.
type AuthFailureFunc func(ctx context.Context)

// Options gates the side effects of Handle.
type Options struct {
	ShowToast      bool
	RedirectOnAuth bool
	// Context names the operation in logs, e.g. "wizard.location".
	Context string
}

// DefaultOptions enables both side effects.
func DefaultOptions(operation string) Options {
	return Options{ShowToast: true, RedirectOnAuth: true, Context: operation}
}

// Handler classifies errors and raises their side effects.
type Handler struct {
	Notifier      Notifier
	OnAuthFailure AuthFailureFunc
}

// Handle classifies err. A nil err yields the zero StoreError and no side
// effects.
func (h Handler) Handle(ctx context.Context, err error, opts Options) StoreError {
	if err == nil {
		return StoreError{}
	}
	classified := Classify(ctx, err)

	operation := opts.Context
	if operation == "" {
		operation = "-"
	}
	log.Printf("store error context=%s code=%s field=%s user=%s err=%v",
		operation, classified.Code, valueOrDash(classified.Field), valueOrDash(requestctx.UserIDFromContext(ctx)), err)

	if opts.ShowToast && h.Notifier != nil {
		h.Notifier.Toast(ctx, notice.Error(string(classified.Code), classified.Message))
	}
	if classified.Code == apperrors.CodeUnauthorized && opts.RedirectOnAuth && h.OnAuthFailure != nil {
		h.OnAuthFailure(ctx)
	}
	return classified
}

// Classify maps err to a StoreError without side effects.
func Classify(ctx context.Context, err error) StoreError {
	locale := requestctx.LocaleFromContext(ctx)

	var existing *StoreError
	if errors.As(err, &existing) {
		return *existing
	}

	if apiErr, ok := marketapi.AsError(err); ok {
		return fromAPIError(locale, apiErr)
	}

	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return localized(locale, domainErr.Code, domainErr.Metadata)
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "401"):
		return localized(locale, apperrors.CodeUnauthorized, nil)
	case strings.Contains(text, "Network Error"):
		return localized(locale, apperrors.CodeNetwork, nil)
	}
	return localized(locale, apperrors.CodeUnknown, nil)
}

func fromAPIError(locale string, apiErr *marketapi.Error) StoreError {
	switch apiErr.Kind {
	case marketapi.KindUnauthorized:
		return localized(locale, apperrors.CodeUnauthorized, nil)
	case marketapi.KindNetwork:
		return localized(locale, apperrors.CodeNetwork, nil)
	case marketapi.KindUnknown:
		return withStatus(localized(locale, apperrors.CodeUnknown, nil), apiErr.Status)
	}

	if first, ok := apiErr.FirstFieldError(); ok {
		result := StoreError{Code: apperrors.Code(first.Code), Message: first.Message, Field: first.Field}
		if result.Code == "" {
			result.Code = apperrors.CodeUnknownAPI
		}
		if result.Message == "" {
			result.Message = errori18n.Localize(locale, string(result.Code), nil)
		}
		return result
	}

	code := apperrors.Code(apiErr.Code)
	if code == "" {
		code = apperrors.CodeUnknownAPI
	}
	result := localized(locale, code, nil)
	if apiErr.Message != "" && (code == apperrors.CodeUnknownAPI || result.Message == string(code)) {
		result.Message = apiErr.Message
	}
	return withStatus(result, apiErr.Status)
}

func localized(locale string, code apperrors.Code, metadata map[string]string) StoreError {
	return StoreError{
		Code:    code,
		Message: errori18n.Localize(locale, string(code), metadata),
		Details: metadata,
	}
}

func withStatus(result StoreError, status int) StoreError {
	if status == 0 {
		return result
	}
	details := make(map[string]string, len(result.Details)+1)
	for key, value := range result.Details {
		details[key] = value
	}
	details["status"] = strconv.Itoa(status)
	result.Details = details
	return result
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
