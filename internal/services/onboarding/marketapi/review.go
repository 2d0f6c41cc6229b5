package marketapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

// ListPartnerships calls GET /api/partnerships/store/{storeId}.
func (c *Client) ListPartnerships(ctx context.Context, storeID domain.StoreID) ([]domain.Partnership, error) {
	var partnerships []domain.Partnership
	path := "/api/partnerships/store/" + strconv.FormatInt(int64(storeID), 10)
	err := c.doJSON(ctx, "ListPartnerships", http.MethodGet, path, nil, &partnerships)
	return partnerships, err
}

// SubmitForReview calls POST /api/store-submissions/{storeId}/submit-for-review.
func (c *Client) SubmitForReview(ctx context.Context, storeID domain.StoreID) (domain.StoreApplication, error) {
	var application domain.StoreApplication
	path := fmt.Sprintf("/api/store-submissions/%d/submit-for-review", storeID)
	err := c.doJSON(ctx, "SubmitForReview", http.MethodPost, path, nil, &application)
	return application, err
}

// ListStoreApplications calls GET /api/admin/store-applications, optionally
// filtered by status.
func (c *Client) ListStoreApplications(ctx context.Context, status domain.ApplicationStatus) ([]domain.StoreApplication, error) {
	var applications []domain.StoreApplication
	request := call{op: "ListStoreApplications", method: http.MethodGet, path: "/api/admin/store-applications", out: &applications}
	if status != "" {
		request.query = url.Values{"status": {string(status)}}
	}
	err := c.do(ctx, request)
	return applications, err
}

type reviewRequest struct {
	Notes string `json:"notes,omitempty"`
}

// ApproveStoreApplication calls POST /api/admin/store-applications/{id}/approve.
func (c *Client) ApproveStoreApplication(ctx context.Context, id int64, notes string) (domain.StoreApplication, error) {
	return c.reviewApplication(ctx, "ApproveStoreApplication", id, "approve", notes)
}

// RejectStoreApplication calls POST /api/admin/store-applications/{id}/reject.
func (c *Client) RejectStoreApplication(ctx context.Context, id int64, notes string) (domain.StoreApplication, error) {
	return c.reviewApplication(ctx, "RejectStoreApplication", id, "reject", notes)
}

func (c *Client) reviewApplication(ctx context.Context, op string, id int64, decision string, notes string) (domain.StoreApplication, error) {
	var application domain.StoreApplication
	path := fmt.Sprintf("/api/admin/store-applications/%d/%s", id, decision)
	err := c.doJSON(ctx, op, http.MethodPost, path, reviewRequest{Notes: notes}, &application)
	return application, err
}
