package domain

import "strings"

// SellingMethod is how a store hands goods to buyers.
type SellingMethod = string

const (
	SellingPickup        SellingMethod = "pickup"
	SellingLocalDelivery SellingMethod = "local-delivery"
	SellingShipping      SellingMethod = "shipping"
	SellingFarmersMarket SellingMethod = "farmers-market"
)

// SellingMethods lists every accepted selling method.
var SellingMethods = []SellingMethod{SellingPickup, SellingLocalDelivery, SellingShipping, SellingFarmersMarket}

// PaymentMethods lists every accepted payment method name.
var PaymentMethods = []string{"cash", "card", "check", "bank-transfer", "mobile-pay"}

// Weekday names a day in StoreHours.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists days in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DayHours is one day's opening window in 24h "HH:MM" form.
type DayHours struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
}

// StoreHours maps each weekday to its opening window.
type StoreHours map[Weekday]DayHours

// DefaultStoreHours returns every day closed.
func DefaultStoreHours() StoreHours {
	hours := make(StoreHours, len(Weekdays))
	for _, day := range Weekdays {
		hours[day] = DayHours{}
	}
	return hours
}

// AddressInput is an address as typed into the wizard.
type AddressInput struct {
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// ToAddress converts wizard input into an API address of the given kind.
func (a AddressInput) ToAddress(kind AddressKind) Address {
	country := strings.TrimSpace(a.Country)
	if country == "" {
		country = "US"
	}
	return Address{
		Kind:    kind,
		Street:  strings.TrimSpace(a.Street),
		Street2: strings.TrimSpace(a.Street2),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: country,
		Phone:   DigitsOnly(a.Phone),
	}
}

// StoreBasics is the first wizard step.
type StoreBasics struct {
	StoreName   string  `json:"storeName"`
	Description string  `json:"description,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Website     string  `json:"website,omitempty"`
	CategoryIDs []int64 `json:"categories,omitempty"`
}

// LocationLogistics holds addresses and how goods reach buyers.
type LocationLogistics struct {
	BusinessAddress       AddressInput    `json:"businessAddress"`
	BillingSameAsBusiness bool            `json:"billingSameAsBusiness"`
	BillingAddress        AddressInput    `json:"billingAddress"`
	PickupSameAsBusiness  bool            `json:"pickupSameAsBusiness"`
	PickupAddress         AddressInput    `json:"pickupAddress"`
	PickupInstructions    string          `json:"pickupInstructions,omitempty"`
	SellingMethods        []SellingMethod `json:"sellingMethods"`
	DeliveryRadiusMi      float64         `json:"deliveryRadiusMi,omitempty"`
}

// HasSellingMethod reports whether method is selected.
func (l LocationLogistics) HasSellingMethod(method SellingMethod) bool {
	for _, selected := range l.SellingMethods {
		if selected == method {
			return true
		}
	}
	return false
}

// StorePolicies holds buyer-facing store policies.
type StorePolicies struct {
	ReturnPolicy       string `json:"returnPolicy"`
	CancellationPolicy string `json:"cancellationPolicy,omitempty"`
}

// FileRef is an uploaded file held by the wizard until the branding step
// submits it. Once uploaded, Data is dropped and ImageID names the image.
type FileRef struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data,omitempty"`
	ImageID     int64  `json:"imageId,omitempty"`
}

// Uploaded reports whether the file is already stored remotely.
func (f *FileRef) Uploaded() bool {
	return f != nil && f.ImageID != 0 && len(f.Data) == 0
}

// Branding holds optional logo and banner images.
type Branding struct {
	Logo   *FileRef `json:"logo,omitempty"`
	Banner *FileRef `json:"banner,omitempty"`
}

// FormState is the wizard-scoped composite of every step's input.
type FormState struct {
	StoreBasics       StoreBasics       `json:"storeBasics"`
	LocationLogistics LocationLogistics `json:"locationLogistics"`
	StoreHours        StoreHours        `json:"storeHours"`
	PaymentMethods    []string          `json:"paymentMethods"`
	StorePolicies     StorePolicies     `json:"storePolicies"`
	Branding          Branding          `json:"branding"`
	AgreedToTerms     bool              `json:"agreedToTerms"`
	StoreID           StoreID           `json:"storeId,omitempty"`
}

// NewFormState returns an empty form with every day closed.
func NewFormState() FormState {
	return FormState{StoreHours: DefaultStoreHours()}
}

// DigitsOnly strips every non-digit rune, e.g. "(555) 123-4567" → "5551234567".
func DigitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
