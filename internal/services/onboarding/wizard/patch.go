package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/validation"
)

// applyPatch merges a JSON patch into the form slice owned by step. Fields
// absent from the patch keep their values; lists are replaced whole.
func applyPatch(form *domain.FormState, step domain.Step, patch json.RawMessage) error {
	if len(bytes.TrimSpace(patch)) == 0 {
		return nil
	}
	var err error
	switch step {
	case domain.StepStoreBasics:
		err = decodeStrict(patch, &form.StoreBasics)
	case domain.StepLocationLogistics:
		err = decodeStrict(patch, &form.LocationLogistics)
	case domain.StepStoreHours:
		return patchHours(form, patch)
	case domain.StepPaymentMethods:
		payload := struct {
			PaymentMethods []string `json:"paymentMethods"`
		}{PaymentMethods: form.PaymentMethods}
		err = decodeStrict(patch, &payload)
		form.PaymentMethods = payload.PaymentMethods
	case domain.StepStorePolicies:
		err = decodeStrict(patch, &form.StorePolicies)
	case domain.StepBranding:
		return patchBranding(form, patch)
	case domain.StepReview:
		payload := struct {
			AgreedToTerms bool `json:"agreedToTerms"`
		}{AgreedToTerms: form.AgreedToTerms}
		err = decodeStrict(patch, &payload)
		form.AgreedToTerms = payload.AgreedToTerms
	default:
		return apperrors.WithMetadata(apperrors.CodeWizardStepInvalid,
			fmt.Sprintf("unknown wizard step %q", step), map[string]string{"Step": string(step)})
	}
	if err != nil {
		return malformed(step, err)
	}
	return nil
}

func decodeStrict(patch json.RawMessage, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(patch))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func malformed(step domain.Step, err error) error {
	return &ValidationError{
		Step:   step,
		Errors: validation.Errors{"form": "Malformed form data"},
		cause:  err,
	}
}

func patchHours(form *domain.FormState, patch json.RawMessage) error {
	var days map[domain.Weekday]domain.DayHours
	if err := decodeStrict(patch, &days); err != nil {
		return malformed(domain.StepStoreHours, err)
	}
	known := make(map[domain.Weekday]bool, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		known[day] = true
	}
	next := make(domain.StoreHours, len(domain.Weekdays))
	for day, hours := range form.StoreHours {
		next[day] = hours
	}
	for day, hours := range days {
		if !known[day] {
			return &ValidationError{
				Step:   domain.StepStoreHours,
				Errors: validation.Errors{"storeHours": fmt.Sprintf("Unknown day %q", day)},
			}
		}
		next[day] = hours
	}
	form.StoreHours = next
	return nil
}

// patchBranding replaces each image named in the patch; a null value removes
// it. A new file always starts out not uploaded.
func patchBranding(form *domain.FormState, patch json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return malformed(domain.StepBranding, err)
	}
	for name, raw := range fields {
		var slot **domain.FileRef
		switch name {
		case "logo":
			slot = &form.Branding.Logo
		case "banner":
			slot = &form.Branding.Banner
		default:
			return malformed(domain.StepBranding, fmt.Errorf("unknown field %q", name))
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			*slot = nil
			continue
		}
		var file domain.FileRef
		if err := decodeStrict(raw, &file); err != nil {
			return malformed(domain.StepBranding, err)
		}
		file.ImageID = 0
		if file.Size == 0 {
			file.Size = int64(len(file.Data))
		}
		*slot = &file
	}
	return nil
}
