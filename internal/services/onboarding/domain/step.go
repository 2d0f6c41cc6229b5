package domain

import (
	"fmt"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
)

// Step names one wizard screen.
type Step string

const (
	StepStoreBasics       Step = "store-basics"
	StepLocationLogistics Step = "location-logistics"
	StepStoreHours        Step = "store-hours"
	StepPaymentMethods    Step = "payment-methods"
	StepStorePolicies     Step = "store-policies"
	StepBranding          Step = "branding"
	StepReview            Step = "review"
)

// Steps lists wizard steps in order.
var Steps = []Step{
	StepStoreBasics,
	StepLocationLogistics,
	StepStoreHours,
	StepPaymentMethods,
	StepStorePolicies,
	StepBranding,
	StepReview,
}

// ParseStep validates a step name.
func ParseStep(value string) (Step, error) {
	step := Step(value)
	if step.Index() < 0 {
		return "", apperrors.WithMetadata(
			apperrors.CodeWizardStepInvalid,
			fmt.Sprintf("unknown wizard step %q", value),
			map[string]string{"Step": value},
		)
	}
	return step, nil
}

// Index returns the step's position, or -1 when unknown.
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the step after s; ok is false on the last step.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(Steps) {
		return s, false
	}
	return Steps[i+1], true
}

// Previous returns the step before s; ok is false on the first step.
func (s Step) Previous() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return Steps[i-1], true
}

// Phase is the submit state of the current step.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
)

// phaseTransitions lists legal phase moves. Completed is terminal.
var phaseTransitions = map[Phase]map[Phase]bool{
	PhaseEditing: {
		PhaseSubmitting: true,
	},
	PhaseSubmitting: {
		PhaseEditing:   true,
		PhaseCompleted: true,
	},
	PhaseCompleted: {},
}

// ValidatePhaseTransition checks a phase move against the transition table.
func ValidatePhaseTransition(from, to Phase) error {
	allowed, known := phaseTransitions[from]
	if !known {
		return apperrors.New(apperrors.CodeWizardPhaseTransition, fmt.Sprintf("unknown source phase: %s", from))
	}
	if from == PhaseCompleted {
		return apperrors.New(apperrors.CodeWizardAlreadyCompleted, "wizard already completed")
	}
	if !allowed[to] {
		return apperrors.New(apperrors.CodeWizardPhaseTransition, fmt.Sprintf("illegal phase transition from %s to %s", from, to))
	}
	return nil
}
