package validation

import (
	"fmt"
	"regexp"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

// MaxImageBytes caps branding uploads.
const MaxImageBytes = 5 << 20

// MaxDeliveryRadiusMi caps the local-delivery radius.
const MaxDeliveryRadiusMi = 250

// AllowedImageTypes lists accepted branding content types.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipPattern     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	websitePattern = regexp.MustCompile(`^https?://[^\s/]+\.[^\s]+$`)
	timePattern    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

var phoneRule = Rule{Custom: func(value any) string {
	digits := domain.DigitsOnly(stringOf(value))
	if len(digits) < 10 || len(digits) > 15 {
		return "Please enter a valid phone number"
	}
	return ""
}}

var storeBasicsRules = map[string]Rule{
	"storeName":   {Required: true, MinLength: 2, MaxLength: 100, Message: "Store name is required"},
	"description": {MaxLength: 1000},
	"email":       {Pattern: emailPattern, PatternMessage: "Please enter a valid email address"},
	"phone":       phoneRule,
	"website":     {Pattern: websitePattern, PatternMessage: "Please enter a valid URL starting with http:// or https://"},
}

var storePoliciesRules = map[string]Rule{
	"returnPolicy":       {Required: true, MaxLength: 2000, Message: "Return policy is required"},
	"cancellationPolicy": {MaxLength: 2000},
}

func addressRules(prefix string) map[string]Rule {
	return map[string]Rule{
		prefix + ".street":  {Required: true, MaxLength: 200, Message: "Street address is required"},
		prefix + ".street2": {MaxLength: 200},
		prefix + ".city":    {Required: true, MaxLength: 100, Message: "City is required"},
		prefix + ".state":   {Required: true, MinLength: 2, MaxLength: 50, Message: "State is required"},
		prefix + ".zipCode": {Required: true, Pattern: zipPattern, Message: "ZIP code is required", PatternMessage: "Please enter a valid ZIP code"},
		prefix + ".phone":   phoneRule,
	}
}

// ValidateStep runs the validator for one wizard step.
func ValidateStep(step domain.Step, form domain.FormState) Errors {
	switch step {
	case domain.StepStoreBasics:
		return validateStoreBasics(form.StoreBasics)
	case domain.StepLocationLogistics:
		return validateLocationLogistics(form.LocationLogistics)
	case domain.StepStoreHours:
		return validateStoreHours(form.StoreHours)
	case domain.StepPaymentMethods:
		return validatePaymentMethods(form.PaymentMethods)
	case domain.StepStorePolicies:
		return ValidateForm(form.StorePolicies, storePoliciesRules)
	case domain.StepBranding:
		return validateBranding(form.Branding)
	case domain.StepReview:
		return validateReview(form)
	default:
		return Errors{"step": fmt.Sprintf("Unknown step %q", step)}
	}
}

// ValidateOpenShopForm validates every step and merges the results, used
// before the store is submitted for review.
func ValidateOpenShopForm(form domain.FormState) Errors {
	errs := Errors{}
	for _, step := range domain.Steps {
		errs = errs.Merge(ValidateStep(step, form))
	}
	return errs
}

func validateStoreBasics(basics domain.StoreBasics) Errors {
	errs := ValidateForm(basics, storeBasicsRules)
	if len(basics.CategoryIDs) == 0 {
		errs["categories"] = "Please select at least one category"
	}
	return errs
}

func validateLocationLogistics(location domain.LocationLogistics) Errors {
	rules := addressRules("businessAddress")
	if !location.BillingSameAsBusiness {
		for path, rule := range addressRules("billingAddress") {
			rules[path] = rule
		}
	}
	if location.HasSellingMethod(domain.SellingPickup) && !location.PickupSameAsBusiness {
		for path, rule := range addressRules("pickupAddress") {
			rules[path] = rule
		}
	}
	rules["pickupInstructions"] = Rule{MaxLength: 500}

	errs := ValidateForm(location, rules)

	if len(location.SellingMethods) == 0 {
		errs["sellingMethods"] = "Please select at least one selling method"
	}
	for _, method := range location.SellingMethods {
		if !contains(domain.SellingMethods, method) {
			errs["sellingMethods"] = fmt.Sprintf("Unsupported selling method %q", method)
			break
		}
	}
	if location.HasSellingMethod(domain.SellingLocalDelivery) {
		switch {
		case location.DeliveryRadiusMi <= 0:
			errs["deliveryRadius"] = "Please enter a delivery radius greater than 0"
		case location.DeliveryRadiusMi > MaxDeliveryRadiusMi:
			errs["deliveryRadius"] = fmt.Sprintf("Delivery radius cannot exceed %d miles", MaxDeliveryRadiusMi)
		}
	}
	return errs
}

func validateStoreHours(hours domain.StoreHours) Errors {
	errs := Errors{}
	anyOpen := false
	for _, day := range domain.Weekdays {
		dayHours, ok := hours[day]
		if !ok || !dayHours.IsOpen {
			continue
		}
		anyOpen = true
		key := string(day) + "Time"
		if !timePattern.MatchString(dayHours.OpenTime) || !timePattern.MatchString(dayHours.CloseTime) {
			errs[key] = "Please enter valid opening and closing times"
			continue
		}
		// Zero-padded HH:MM compares correctly as a string.
		if dayHours.CloseTime <= dayHours.OpenTime {
			errs[key] = "Closing time must be after opening time"
		}
	}
	if !anyOpen {
		errs["storeHours"] = "Please set hours for at least one day"
	}
	return errs
}

func validatePaymentMethods(methods []string) Errors {
	if len(methods) == 0 {
		return Errors{"paymentMethods": "Please select at least one payment method"}
	}
	for _, method := range methods {
		if !contains(domain.PaymentMethods, method) {
			return Errors{"paymentMethods": fmt.Sprintf("Unsupported payment method %q", method)}
		}
	}
	return Errors{}
}

func validateBranding(branding domain.Branding) Errors {
	errs := Errors{}
	if message := validateImage(branding.Logo); message != "" {
		errs["logo"] = message
	}
	if message := validateImage(branding.Banner); message != "" {
		errs["banner"] = message
	}
	return errs
}

func validateImage(file *domain.FileRef) string {
	if file == nil {
		return ""
	}
	if !AllowedImageTypes[file.ContentType] {
		return "Please upload a JPEG, PNG, or WebP image"
	}
	if file.Size > MaxImageBytes {
		return "Image must be 5MB or smaller"
	}
	return ""
}

func validateReview(form domain.FormState) Errors {
	errs := Errors{}
	if !form.AgreedToTerms {
		errs["agreedToTerms"] = "You must agree to the terms to continue"
	}
	return errs
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
