// Package httpapi exposes the onboarding wizard, the store dashboard and the
// admin review queue as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/louisbranch/farmstand.market/internal/platform/httpx"
	"github.com/louisbranch/farmstand.market/internal/platform/i18n/catalog"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/marketapi"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storestate"
)

const (
	defaultLoginPath = "/login"
	// maxBodyBytes leaves room for two base64 encoded 5 MiB images.
	maxBodyBytes = 16 << 20
)

// WizardService is the wizard surface the handlers drive.
type WizardService interface {
	Start(ctx context.Context, userID string) (storage.Session, error)
	Get(ctx context.Context, userID, sessionID string) (storage.Session, error)
	List(ctx context.Context, userID string) ([]storage.Session, error)
	UpdateForm(ctx context.Context, userID, sessionID string, step domain.Step, patch json.RawMessage) (storage.Session, error)
	Continue(ctx context.Context, userID, sessionID string, step domain.Step) (storage.Session, error)
	Back(ctx context.Context, userID, sessionID string) (storage.Session, error)
	Abandon(ctx context.Context, userID, sessionID string) error
}

// ReviewAPI is the marketplace surface behind partnerships and the admin
// review queue.
type ReviewAPI interface {
	ListPartnerships(ctx context.Context, storeID domain.StoreID) ([]domain.Partnership, error)
	ListStoreApplications(ctx context.Context, status domain.ApplicationStatus) ([]domain.StoreApplication, error)
	ApproveStoreApplication(ctx context.Context, id int64, notes string) (domain.StoreApplication, error)
	RejectStoreApplication(ctx context.Context, id int64, notes string) (domain.StoreApplication, error)
}

// Deps wires the handlers.
type Deps struct {
	Wizard WizardService
	Stores *storestate.Registry
	Loader storestate.Loader
	Review ReviewAPI
	Errors storeerror.Handler
	// Credentials keeps each user's upstream token pair; Refresher renews it.
	Credentials marketapi.CredentialStore
	Refresher   marketapi.Refresher
	// Verifier authenticates the bearer tokens callers present.
	Verifier marketapi.BearerVerifier
	// LoginPath is where unauthenticated users are sent.
	LoginPath string
	Catalog   *catalog.Bundle
}

// Server holds the handler dependencies.
type Server struct {
	wizard      WizardService
	stores      *storestate.Registry
	loader      storestate.Loader
	review      ReviewAPI
	errors      storeerror.Handler
	credentials marketapi.CredentialStore
	refresher   marketapi.Refresher
	verifier    marketapi.BearerVerifier
	loginPath   string
	catalog     *catalog.Bundle
}

// NewServer validates deps and builds a Server.
func NewServer(deps Deps) (*Server, error) {
	if deps.Wizard == nil {
		return nil, errors.New("wizard service is required")
	}
	if deps.Review == nil {
		return nil, errors.New("review api is required")
	}
	if deps.Loader.API == nil {
		return nil, errors.New("store loader api is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if !deps.Verifier.Configured() {
		return nil, errors.New("bearer verifier key is required")
	}
	stores := deps.Stores
	if stores == nil {
		stores = storestate.NewRegistry()
	}
	loginPath := strings.TrimSpace(deps.LoginPath)
	if loginPath == "" {
		loginPath = defaultLoginPath
	}
	bundle := deps.Catalog
	if bundle == nil {
		bundle = catalog.Default()
	}
	return &Server{
		wizard:      deps.Wizard,
		stores:      stores,
		loader:      deps.Loader,
		review:      deps.Review,
		errors:      deps.Errors,
		credentials: deps.Credentials,
		refresher:   deps.Refresher,
		verifier:    deps.Verifier,
		loginPath:   loginPath,
		catalog:     bundle,
	}, nil
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /wizard/sessions", s.startSession)
	mux.HandleFunc("GET /wizard/sessions", s.listSessions)
	mux.HandleFunc("GET /wizard/sessions/{id}", s.getSession)
	mux.HandleFunc("PATCH /wizard/sessions/{id}/steps/{step}", s.updateStep)
	mux.HandleFunc("POST /wizard/sessions/{id}/steps/{step}/continue", s.continueStep)
	mux.HandleFunc("POST /wizard/sessions/{id}/back", s.back)
	mux.HandleFunc("DELETE /wizard/sessions/{id}", s.abandon)

	mux.HandleFunc("GET /dashboard/stores", s.listStores)
	mux.HandleFunc("GET /dashboard/stores/{id}", s.getStore)
	mux.HandleFunc("POST /dashboard/stores/{id}/select", s.selectStore)
	mux.HandleFunc("DELETE /dashboard/stores/{id}", s.deleteStore)
	mux.HandleFunc("GET /dashboard/stores/{id}/partnerships", s.listPartnerships)

	mux.HandleFunc("GET /admin/store-applications", s.listApplications)
	mux.HandleFunc("POST /admin/store-applications/{id}/approve", s.approveApplication)
	mux.HandleFunc("POST /admin/store-applications/{id}/reject", s.rejectApplication)

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.AccessLog(),
		httpx.RecoverPanic(),
		s.withLocale,
		withNotices,
		s.authenticate,
	)
}
