// Package app wires the onboarding runtime: storage, the marketplace
// client, the wizard, the JSON API and the gRPC health listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	platformgrpc "github.com/louisbranch/farmstand.market/internal/platform/grpc"
	"github.com/louisbranch/farmstand.market/internal/platform/notice"
	"github.com/louisbranch/farmstand.market/internal/platform/timeouts"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/api/httpapi"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/marketapi"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage/sqlite"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storestate"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/wizard"
	"golang.org/x/sync/errgroup"
)

// HealthService is the service name reported by the health listener.
const HealthService = "farmstand.onboarding"

// RuntimeConfig controls onboarding startup.
type RuntimeConfig struct {
	HTTPAddr     string
	HealthAddr   string
	DBPath       string
	MarketAPIURL string
	LoginPath    string
	// TokenKey is the HMAC secret marketplace access tokens are signed with.
	TokenKey string
	// TokenIssuer, when set, must match the iss claim of caller tokens.
	TokenIssuer string
}

// Run serves the JSON API and the health listener until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if strings.TrimSpace(cfg.MarketAPIURL) == "" {
		return fmt.Errorf("marketplace api url is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return fmt.Errorf("database path is required")
	}
	if strings.TrimSpace(cfg.TokenKey) == "" {
		return fmt.Errorf("token verification key is required")
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open onboarding store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close onboarding store: %v", closeErr)
		}
	}()

	handler, err := NewHandler(store, cfg)
	if err != nil {
		return err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		_ = httpListener.Close()
		return fmt.Errorf("listen on health addr %s: %w", cfg.HealthAddr, err)
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	health := platformgrpc.NewHealthServer(HealthService)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("onboarding http listening at %v", httpListener.Addr())
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		log.Printf("onboarding health listening at %v", healthListener.Addr())
		return health.Serve(groupCtx, healthListener)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// NewHandler builds the JSON API over store and the marketplace at
// cfg.MarketAPIURL.
func NewHandler(store *sqlite.Store, cfg RuntimeConfig) (http.Handler, error) {
	client, err := marketapi.New(cfg.MarketAPIURL)
	if err != nil {
		return nil, err
	}
	errorsHandler := storeerror.Handler{
		Notifier:      notice.ContextNotifier{},
		OnAuthFailure: httpapi.MarkAuthFailure,
	}
	wizardService, err := wizard.NewService(wizard.Deps{
		Sessions: store,
		Ledger:   store,
		API:      client,
		Errors:   errorsHandler,
		Notifier: notice.ContextNotifier{},
	})
	if err != nil {
		return nil, fmt.Errorf("build wizard: %w", err)
	}
	server, err := httpapi.NewServer(httpapi.Deps{
		Wizard:      wizardService,
		Stores:      storestate.NewRegistry(),
		Loader:      storestate.Loader{API: client, Errors: errorsHandler},
		Review:      client,
		Errors:      errorsHandler,
		Credentials: store,
		Refresher:   client,
		Verifier: marketapi.BearerVerifier{
			Key:    []byte(cfg.TokenKey),
			Issuer: strings.TrimSpace(cfg.TokenIssuer),
		},
		LoginPath: cfg.LoginPath,
	})
	if err != nil {
		return nil, fmt.Errorf("build http api: %w", err)
	}
	return server.Handler(), nil
}
