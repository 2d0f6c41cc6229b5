package wizard

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

func TestApplyPatchKeepsAbsentFields(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.StoreBasics = domain.StoreBasics{StoreName: "Sunny Acres", Email: "farm@example.com"}
	if err := applyPatch(&form, domain.StepStoreBasics, json.RawMessage(`{"description":"Stone fruit"}`)); err != nil {
		t.Fatalf("applyPatch() error = %v", err)
	}
	if form.StoreBasics.StoreName != "Sunny Acres" || form.StoreBasics.Description != "Stone fruit" {
		t.Fatalf("basics = %+v", form.StoreBasics)
	}
}

func TestApplyPatchRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	err := applyPatch(&form, domain.StepStorePolicies, json.RawMessage(`{"refunds":"never"}`))
	var invalid *ValidationError
	if !errors.As(err, &invalid) || invalid.Errors["form"] == "" {
		t.Fatalf("applyPatch() error = %v, want malformed form", err)
	}
	if invalid.Unwrap() == nil {
		t.Fatal("Unwrap() = nil, want decode error")
	}
}

func TestApplyPatchBrandingResetsUploadedImage(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.Branding.Logo = &domain.FileRef{Name: "old.png", ContentType: "image/png", ImageID: 7}
	form.Branding.Banner = &domain.FileRef{Name: "banner.png", ContentType: "image/png", ImageID: 8}

	patch := json.RawMessage(`{"logo":{"name":"new.png","contentType":"image/png","data":"cG5n","imageId":7},"banner":null}`)
	if err := applyPatch(&form, domain.StepBranding, patch); err != nil {
		t.Fatalf("applyPatch() error = %v", err)
	}
	if form.Branding.Logo.ImageID != 0 || form.Branding.Logo.Size != 3 {
		t.Fatalf("logo = %+v, want fresh file of 3 bytes", form.Branding.Logo)
	}
	if form.Branding.Banner != nil {
		t.Fatalf("banner = %+v, want removed", form.Branding.Banner)
	}
}

func TestApplyPatchEmptyIsNoop(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.PaymentMethods = []string{"cash"}
	if err := applyPatch(&form, domain.StepPaymentMethods, nil); err != nil {
		t.Fatalf("applyPatch() error = %v", err)
	}
	if len(form.PaymentMethods) != 1 {
		t.Fatalf("payment methods = %v, want unchanged", form.PaymentMethods)
	}
}
