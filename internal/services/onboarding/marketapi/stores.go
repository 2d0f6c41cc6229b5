package marketapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/louisbranch/farmstand.market/internal/platform/timeouts"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

// StoreInput is the writable subset of a store.
type StoreInput struct {
	Name               string   `json:"storeName"`
	Description        string   `json:"description,omitempty"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Website            string   `json:"website,omitempty"`
	DeliveryRadiusMi   float64  `json:"deliveryRadiusMi,omitempty"`
	ReturnPolicy       string   `json:"returnPolicy,omitempty"`
	CancellationPolicy string   `json:"cancellationPolicy,omitempty"`
	SellingMethods     []string `json:"sellingMethods,omitempty"`
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func storePath(id domain.StoreID) string {
	return "/api/stores/" + strconv.FormatInt(int64(id), 10)
}

// CreateStore calls POST /api/stores.
func (c *Client) CreateStore(ctx context.Context, in StoreInput) (domain.Store, error) {
	var store domain.Store
	err := c.doJSON(ctx, "CreateStore", http.MethodPost, "/api/stores", in, &store)
	return store, err
}

// ListStores calls GET /api/stores and returns the caller's stores.
func (c *Client) ListStores(ctx context.Context) ([]domain.Store, error) {
	var stores []domain.Store
	err := c.doJSON(ctx, "ListStores", http.MethodGet, "/api/stores", nil, &stores)
	return stores, err
}

// GetStore calls GET /api/stores/{id}.
func (c *Client) GetStore(ctx context.Context, id domain.StoreID) (domain.Store, error) {
	var store domain.Store
	err := c.doJSON(ctx, "GetStore", http.MethodGet, storePath(id), nil, &store)
	return store, err
}

// UpdateStore calls PUT /api/stores/{id}.
func (c *Client) UpdateStore(ctx context.Context, id domain.StoreID, in StoreInput) (domain.Store, error) {
	var store domain.Store
	err := c.doJSON(ctx, "UpdateStore", http.MethodPut, storePath(id), in, &store)
	return store, err
}

// DeleteStore calls DELETE /api/stores/{id}.
func (c *Client) DeleteStore(ctx context.Context, id domain.StoreID) error {
	return c.doJSON(ctx, "DeleteStore", http.MethodDelete, storePath(id), nil, nil)
}

// ListAddresses calls GET /api/stores/{id}/addresses.
func (c *Client) ListAddresses(ctx context.Context, id domain.StoreID) ([]domain.Address, error) {
	var addresses []domain.Address
	err := c.doJSON(ctx, "ListAddresses", http.MethodGet, storePath(id)+"/addresses", nil, &addresses)
	return addresses, err
}

// CreateAddress calls POST /api/stores/{id}/addresses.
func (c *Client) CreateAddress(ctx context.Context, id domain.StoreID, address domain.Address) (domain.Address, error) {
	var created domain.Address
	err := c.doJSON(ctx, "CreateAddress", http.MethodPost, storePath(id)+"/addresses", address, &created)
	return created, err
}

// UpdateAddress calls PUT /api/stores/{id}/addresses/{addressId}.
func (c *Client) UpdateAddress(ctx context.Context, id domain.StoreID, address domain.Address) (domain.Address, error) {
	var updated domain.Address
	path := fmt.Sprintf("%s/addresses/%d", storePath(id), address.ID)
	err := c.doJSON(ctx, "UpdateAddress", http.MethodPut, path, address, &updated)
	return updated, err
}

// DeleteAddress calls DELETE /api/stores/{id}/addresses/{addressId}.
func (c *Client) DeleteAddress(ctx context.Context, id domain.StoreID, addressID int64) error {
	path := fmt.Sprintf("%s/addresses/%d", storePath(id), addressID)
	return c.doJSON(ctx, "DeleteAddress", http.MethodDelete, path, nil, nil)
}

// ListCategories calls GET /api/categories.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.doJSON(ctx, "ListCategories", http.MethodGet, "/api/categories", nil, &categories)
	return categories, err
}

// ListStoreCategories calls GET /api/stores/{id}/categories.
func (c *Client) ListStoreCategories(ctx context.Context, id domain.StoreID) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.doJSON(ctx, "ListStoreCategories", http.MethodGet, storePath(id)+"/categories", nil, &categories)
	return categories, err
}

type categoriesRequest struct {
	CategoryIDs []int64 `json:"categoryIds"`
}

// SetCategories calls PUT /api/stores/{id}/categories, replacing the set.
func (c *Client) SetCategories(ctx context.Context, id domain.StoreID, categoryIDs []int64) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.doJSON(ctx, "SetCategories", http.MethodPut, storePath(id)+"/categories", categoriesRequest{CategoryIDs: categoryIDs}, &categories)
	return categories, err
}

type openHoursRequest struct {
	Hours domain.StoreHours `json:"openHours"`
}

// SetOpenHours calls PUT /api/stores/{id}/open-hours.
func (c *Client) SetOpenHours(ctx context.Context, id domain.StoreID, hours domain.StoreHours) error {
	return c.doJSON(ctx, "SetOpenHours", http.MethodPut, storePath(id)+"/open-hours", openHoursRequest{Hours: hours}, nil)
}

type paymentMethodsRequest struct {
	PaymentMethods []string `json:"paymentMethods"`
}

// SetPaymentMethods calls PUT /api/stores/{id}/payment-methods.
func (c *Client) SetPaymentMethods(ctx context.Context, id domain.StoreID, methods []string) error {
	return c.doJSON(ctx, "SetPaymentMethods", http.MethodPut, storePath(id)+"/payment-methods", paymentMethodsRequest{PaymentMethods: methods}, nil)
}

// ListImages calls GET /api/stores/{id}/images.
func (c *Client) ListImages(ctx context.Context, id domain.StoreID) ([]domain.Image, error) {
	var images []domain.Image
	err := c.doJSON(ctx, "ListImages", http.MethodGet, storePath(id)+"/images", nil, &images)
	return images, err
}

// UploadImage calls POST /api/stores/{id}/images with a multipart body
// holding the file and its image type.
func (c *Client) UploadImage(ctx context.Context, id domain.StoreID, kind domain.ImageKind, file domain.FileRef) (domain.Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("imageType", string(kind)); err != nil {
		return domain.Image{}, fmt.Errorf("write image type: %w", err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return domain.Image{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return domain.Image{}, fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return domain.Image{}, fmt.Errorf("close multipart body: %w", err)
	}

	var image domain.Image
	err = c.do(ctx, call{
		op:          "UploadImage",
		method:      http.MethodPost,
		path:        storePath(id) + "/images",
		body:        &body,
		contentType: writer.FormDataContentType(),
		out:         &image,
		timeout:     timeouts.ImageUpload,
	})
	return image, err
}

// DeleteImage calls DELETE /api/stores/{id}/images/{imageId}.
func (c *Client) DeleteImage(ctx context.Context, id domain.StoreID, imageID int64) error {
	path := fmt.Sprintf("%s/images/%d", storePath(id), imageID)
	return c.doJSON(ctx, "DeleteImage", http.MethodDelete, path, nil, nil)
}
