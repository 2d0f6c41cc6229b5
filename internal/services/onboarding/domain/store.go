package domain

import "time"

// StoreID identifies a store on the marketplace API.
type StoreID int64

// StoreStatus tracks a store through marketplace review.
type StoreStatus string

const (
	StoreStatusDraft         StoreStatus = "draft"
	StoreStatusPendingReview StoreStatus = "pending_review"
	StoreStatusApproved      StoreStatus = "approved"
	StoreStatusRejected      StoreStatus = "rejected"
)

// Store is the server-owned store record cached by dashboards.
type Store struct {
	ID                 StoreID     `json:"storeId"`
	Name               string      `json:"storeName"`
	Description        string      `json:"description,omitempty"`
	Email              string      `json:"email,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	Website            string      `json:"website,omitempty"`
	DeliveryRadiusMi   float64     `json:"deliveryRadiusMi,omitempty"`
	ReturnPolicy       string      `json:"returnPolicy,omitempty"`
	CancellationPolicy string      `json:"cancellationPolicy,omitempty"`
	SellingMethods     []string    `json:"sellingMethods,omitempty"`
	Status             StoreStatus `json:"status,omitempty"`
	CreatedAt          time.Time   `json:"createdAt,omitzero"`
	UpdatedAt          time.Time   `json:"updatedAt,omitzero"`
}

// AddressKind distinguishes the addresses a store keeps.
type AddressKind string

const (
	AddressBusiness AddressKind = "business"
	AddressBilling  AddressKind = "billing"
	AddressPickup   AddressKind = "pickup"
)

// Address is one postal address attached to a store.
type Address struct {
	ID                 int64       `json:"addressId,omitempty"`
	StoreID            StoreID     `json:"storeId,omitempty"`
	Kind               AddressKind `json:"addressType"`
	Street             string      `json:"streetAddress"`
	Street2            string      `json:"streetAddress2,omitempty"`
	City               string      `json:"city"`
	State              string      `json:"state"`
	ZipCode            string      `json:"zipCode"`
	Country            string      `json:"country,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	PickupInstructions string      `json:"pickupInstructions,omitempty"`
}

// Category is a marketplace product category.
type Category struct {
	ID   int64  `json:"categoryId"`
	Name string `json:"name"`
}

// ImageKind distinguishes store images.
type ImageKind string

const (
	ImageLogo    ImageKind = "logo"
	ImageBanner  ImageKind = "banner"
	ImageGallery ImageKind = "gallery"
)

// Image is an uploaded store image.
type Image struct {
	ID          int64     `json:"imageId"`
	StoreID     StoreID   `json:"storeId,omitempty"`
	Kind        ImageKind `json:"imageType"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
}

// Partnership is an established business relationship between a producer
// store and a processor store.
type Partnership struct {
	ID               int64     `json:"partnershipId"`
	ProducerStoreID  StoreID   `json:"producerStoreId"`
	ProcessorStoreID StoreID   `json:"processorStoreId"`
	PartnerName      string    `json:"partnerName,omitempty"`
	Status           string    `json:"status"`
	EstablishedAt    time.Time `json:"establishedAt,omitzero"`
}

// ApplicationStatus tracks an admin review of a submitted store.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// StoreApplication is a submitted store awaiting or past admin review.
type StoreApplication struct {
	ID          int64             `json:"applicationId"`
	StoreID     StoreID           `json:"storeId"`
	StoreName   string            `json:"storeName"`
	Status      ApplicationStatus `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt,omitzero"`
	ReviewedAt  time.Time         `json:"reviewedAt,omitzero"`
	Notes       string            `json:"notes,omitempty"`
}
