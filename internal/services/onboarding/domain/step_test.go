package domain

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
)

func TestStepOrder(t *testing.T) {
	t.Parallel()

	next, ok := StepStoreBasics.Next()
	if !ok || next != StepLocationLogistics {
		t.Fatalf("Next(store-basics) = %q, %v", next, ok)
	}
	if _, ok := StepReview.Next(); ok {
		t.Fatal("review should be the last step")
	}
	prev, ok := StepStoreHours.Previous()
	if !ok || prev != StepLocationLogistics {
		t.Fatalf("Previous(store-hours) = %q, %v", prev, ok)
	}
	if _, ok := StepStoreBasics.Previous(); ok {
		t.Fatal("store-basics should be the first step")
	}
}

func TestParseStepRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := ParseStep("shipping"); !errors.Is(err, apperrors.New(apperrors.CodeWizardStepInvalid, "")) {
		t.Fatalf("ParseStep error = %v, want step invalid", err)
	}
	if step, err := ParseStep("branding"); err != nil || step != StepBranding {
		t.Fatalf("ParseStep(branding) = %q, %v", step, err)
	}
}

func TestValidatePhaseTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Phase
		code     apperrors.Code
	}{
		{PhaseEditing, PhaseSubmitting, ""},
		{PhaseSubmitting, PhaseEditing, ""},
		{PhaseSubmitting, PhaseCompleted, ""},
		{PhaseEditing, PhaseCompleted, apperrors.CodeWizardPhaseTransition},
		{PhaseSubmitting, PhaseSubmitting, apperrors.CodeWizardPhaseTransition},
		{PhaseCompleted, PhaseEditing, apperrors.CodeWizardAlreadyCompleted},
		{Phase("bogus"), PhaseEditing, apperrors.CodeWizardPhaseTransition},
	}
	for _, tc := range tests {
		err := ValidatePhaseTransition(tc.from, tc.to)
		if tc.code == "" {
			if err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
			}
			continue
		}
		if got := apperrors.CodeOf(err); got != tc.code {
			t.Fatalf("%s -> %s: code = %q, want %q", tc.from, tc.to, got, tc.code)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	t.Parallel()

	if got := DigitsOnly("(555) 123-4567 ext"); got != "5551234567" {
		t.Fatalf("DigitsOnly = %q", got)
	}
}

func TestAddressInputDefaultsCountry(t *testing.T) {
	t.Parallel()

	addr := AddressInput{Street: " 1 Farm Rd ", City: "Ames", State: "IA", ZipCode: "50010", Phone: "515.555.0100"}.ToAddress(AddressPickup)
	if addr.Country != "US" || addr.Street != "1 Farm Rd" || addr.Phone != "5155550100" || addr.Kind != AddressPickup {
		t.Fatalf("ToAddress = %+v", addr)
	}
}
