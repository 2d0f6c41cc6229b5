package wizard

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/validation"
)

// ValidationError reports the field errors that stopped a step. No remote
// call was made.
type ValidationError struct {
	Step   domain.Step
	Errors validation.Errors
	cause  error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: invalid fields: %s", e.Step, strings.Join(fields, ", "))
}

// Unwrap returns the decode failure behind a malformed patch, if any.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Is matches platform errors with the validation code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*apperrors.Error)
	return ok && t.Code == apperrors.CodeValidation
}

func sessionNotFound(id string) error {
	return apperrors.WithMetadata(apperrors.CodeWizardSessionNotFound,
		fmt.Sprintf("wizard session %q not found", id), map[string]string{"SessionID": id})
}
