package validation

import (
	"testing"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

func validAddress() domain.AddressInput {
	return domain.AddressInput{Street: "12 Orchard Ln", City: "Hood River", State: "OR", ZipCode: "97031"}
}

func validLocation(methods ...string) domain.LocationLogistics {
	return domain.LocationLogistics{
		BusinessAddress:       validAddress(),
		BillingSameAsBusiness: true,
		PickupSameAsBusiness:  true,
		SellingMethods:        methods,
	}
}

func TestLocationLogisticsPickupDoesNotNeedRadius(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.LocationLogistics = validLocation(domain.SellingPickup)

	if errs := ValidateStep(domain.StepLocationLogistics, form); errs.Any() {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestLocationLogisticsLocalDeliveryRequiresRadius(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.LocationLogistics = validLocation(domain.SellingLocalDelivery)
	form.LocationLogistics.DeliveryRadiusMi = 0

	errs := ValidateStep(domain.StepLocationLogistics, form)
	if errs["deliveryRadius"] == "" {
		t.Fatalf("expected deliveryRadius error, got %v", errs)
	}

	form.LocationLogistics.DeliveryRadiusMi = 15
	if errs := ValidateStep(domain.StepLocationLogistics, form); errs.Any() {
		t.Fatalf("unexpected errors with radius: %v", errs)
	}

	form.LocationLogistics.DeliveryRadiusMi = MaxDeliveryRadiusMi + 1
	if errs := ValidateStep(domain.StepLocationLogistics, form); errs["deliveryRadius"] == "" {
		t.Fatalf("expected radius cap error, got %v", errs)
	}
}

func TestLocationLogisticsConditionalAddresses(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.LocationLogistics = validLocation(domain.SellingPickup)
	form.LocationLogistics.BillingSameAsBusiness = false
	form.LocationLogistics.PickupSameAsBusiness = false
	form.LocationLogistics.BusinessAddress.ZipCode = "9703"

	errs := ValidateStep(domain.StepLocationLogistics, form)
	for _, key := range []string{"businessAddress.zipCode", "billingAddress.street", "pickupAddress.city"} {
		if errs[key] == "" {
			t.Fatalf("expected %s error, got %v", key, errs)
		}
	}

	// Shipping-only stores never need a pickup address.
	form.LocationLogistics.SellingMethods = []string{domain.SellingShipping}
	errs = ValidateStep(domain.StepLocationLogistics, form)
	if _, ok := errs["pickupAddress.city"]; ok {
		t.Fatalf("unexpected pickup error: %v", errs)
	}
}

func TestLocationLogisticsRequiresSellingMethod(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.LocationLogistics = validLocation()
	if errs := ValidateStep(domain.StepLocationLogistics, form); errs["sellingMethods"] == "" {
		t.Fatalf("expected sellingMethods error, got %v", errs)
	}
	form.LocationLogistics.SellingMethods = []string{"drone"}
	if errs := ValidateStep(domain.StepLocationLogistics, form); errs["sellingMethods"] == "" {
		t.Fatalf("expected unsupported method error, got %v", errs)
	}
}

func TestStoreHoursAllClosed(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	errs := ValidateStep(domain.StepStoreHours, form)
	if errs["storeHours"] == "" {
		t.Fatalf("expected storeHours error, got %v", errs)
	}
}

func TestStoreHoursCloseBeforeOpen(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	form.StoreHours[domain.Tuesday] = domain.DayHours{IsOpen: true, OpenTime: "09:00", CloseTime: "09:00"}

	errs := ValidateStep(domain.StepStoreHours, form)
	if errs["tuesdayTime"] == "" {
		t.Fatalf("expected tuesdayTime error, got %v", errs)
	}
	if _, ok := errs["storeHours"]; ok {
		t.Fatalf("unexpected storeHours error with an open day: %v", errs)
	}

	form.StoreHours[domain.Tuesday] = domain.DayHours{IsOpen: true, OpenTime: "09:00", CloseTime: "17:30"}
	if errs := ValidateStep(domain.StepStoreHours, form); errs.Any() {
		t.Fatalf("unexpected errors: %v", errs)
	}

	form.StoreHours[domain.Saturday] = domain.DayHours{IsOpen: true, OpenTime: "9am", CloseTime: "17:00"}
	if errs := ValidateStep(domain.StepStoreHours, form); errs["saturdayTime"] == "" {
		t.Fatalf("expected saturdayTime format error, got %v", errs)
	}
}

func TestStoreBasics(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	errs := ValidateStep(domain.StepStoreBasics, form)
	if errs["storeName"] != "Store name is required" || errs["categories"] == "" {
		t.Fatalf("errors = %v", errs)
	}

	form.StoreBasics = domain.StoreBasics{
		StoreName:   "Sunny Acres",
		Email:       "hello@sunnyacres.farm",
		Phone:       "(541) 555-0142",
		Website:     "https://sunnyacres.farm",
		CategoryIDs: []int64{3},
	}
	if errs := ValidateStep(domain.StepStoreBasics, form); errs.Any() {
		t.Fatalf("unexpected errors: %v", errs)
	}

	form.StoreBasics.Phone = "555-01"
	form.StoreBasics.Website = "sunnyacres"
	errs = ValidateStep(domain.StepStoreBasics, form)
	if errs["phone"] == "" || errs["website"] == "" {
		t.Fatalf("expected phone and website errors, got %v", errs)
	}
}

func TestPaymentMethods(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	if errs := ValidateStep(domain.StepPaymentMethods, form); errs["paymentMethods"] == "" {
		t.Fatalf("expected paymentMethods error, got %v", errs)
	}
	form.PaymentMethods = []string{"cash", "barter"}
	if errs := ValidateStep(domain.StepPaymentMethods, form); errs["paymentMethods"] == "" {
		t.Fatalf("expected unsupported method error, got %v", errs)
	}
	form.PaymentMethods = []string{"cash", "card"}
	if errs := ValidateStep(domain.StepPaymentMethods, form); errs.Any() {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestBranding(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	if errs := ValidateStep(domain.StepBranding, form); errs.Any() {
		t.Fatalf("branding is optional, got %v", errs)
	}
	form.Branding.Logo = &domain.FileRef{Name: "logo.gif", ContentType: "image/gif", Size: 10}
	form.Branding.Banner = &domain.FileRef{Name: "banner.png", ContentType: "image/png", Size: MaxImageBytes + 1}
	errs := ValidateStep(domain.StepBranding, form)
	if errs["logo"] == "" || errs["banner"] == "" {
		t.Fatalf("expected logo and banner errors, got %v", errs)
	}
}

func TestStorePoliciesAndReview(t *testing.T) {
	t.Parallel()

	form := domain.NewFormState()
	if errs := ValidateStep(domain.StepStorePolicies, form); errs["returnPolicy"] == "" {
		t.Fatalf("expected returnPolicy error, got %v", errs)
	}
	if errs := ValidateStep(domain.StepReview, form); errs["agreedToTerms"] == "" {
		t.Fatalf("expected agreedToTerms error, got %v", errs)
	}
}

func TestValidateOpenShopFormMergesSteps(t *testing.T) {
	t.Parallel()

	errs := ValidateOpenShopForm(domain.NewFormState())
	for _, key := range []string{"storeName", "businessAddress.street", "storeHours", "paymentMethods", "returnPolicy", "agreedToTerms"} {
		if errs[key] == "" {
			t.Fatalf("expected %s error, got %v", key, errs)
		}
	}
}

func TestValidateStepUnknown(t *testing.T) {
	t.Parallel()

	if errs := ValidateStep(domain.Step("bogus"), domain.NewFormState()); errs["step"] == "" {
		t.Fatalf("expected step error, got %v", errs)
	}
}
