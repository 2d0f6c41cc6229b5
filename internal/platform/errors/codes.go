// Package errors provides structured error handling with i18n support.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown is the catch-all for failures that carry no usable shape.
	CodeUnknown Code = "UNKNOWN_ERROR"
	// CodeUnknownAPI is the catch-all for marketplace API failures without a code.
	CodeUnknownAPI Code = "UNKNOWN_API_ERROR"

	// Transport and session errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNetwork      Code = "NETWORK_ERROR"

	// Store errors reported by the marketplace API
	CodeStoreNameExists  Code = "STORE_NAME_EXISTS"
	CodeCategoryRequired Code = "CATEGORY_REQUIRED"
	CodeStoreNotFound    Code = "STORE_NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeFileTooLarge     Code = "FILE_TOO_LARGE"
	CodeInvalidFileType  Code = "INVALID_FILE_TYPE"

	// Validation errors
	CodeValidation Code = "VALIDATION_ERROR"

	// Wizard errors
	CodeWizardSessionNotFound  Code = "WIZARD_SESSION_NOT_FOUND"
	CodeWizardStepInvalid      Code = "WIZARD_STEP_INVALID"
	CodeWizardStepOutOfOrder   Code = "WIZARD_STEP_OUT_OF_ORDER"
	CodeWizardPhaseTransition  Code = "WIZARD_INVALID_PHASE_TRANSITION"
	CodeWizardAlreadyCompleted Code = "WIZARD_ALREADY_COMPLETED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation,
		CodeCategoryRequired,
		CodeFileTooLarge,
		CodeInvalidFileType,
		CodeWizardStepInvalid:
		return codes.InvalidArgument

	case CodeWizardStepOutOfOrder,
		CodeWizardPhaseTransition,
		CodeWizardAlreadyCompleted:
		return codes.FailedPrecondition

	case CodeStoreNotFound, CodeWizardSessionNotFound:
		return codes.NotFound

	case CodeStoreNameExists:
		return codes.AlreadyExists

	case CodeUnauthorized:
		return codes.Unauthenticated

	case CodePermissionDenied:
		return codes.PermissionDenied

	case CodeNetwork:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes for the JSON surface.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusUnprocessableEntity
	case codes.FailedPrecondition, codes.AlreadyExists:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
