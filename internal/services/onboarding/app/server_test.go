package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage/sqlite"
)

// marketplace fakes the REST API endpoints the first wizard step calls.
type marketplace struct {
	mu    sync.Mutex
	calls []string
	auth  []string
}

func (m *marketplace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.calls = append(m.calls, r.Method+" "+r.URL.Path)
	m.auth = append(m.auth, r.Header.Get("Authorization"))
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/stores":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"storeId":7,"storeName":"Sunny Acres"}}`))
	case r.Method == http.MethodPut && r.URL.Path == "/api/stores/7/categories":
		_, _ = w.Write([]byte(`{"success":true,"data":[{"categoryId":3,"name":"Fruit"}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"not found"}`))
	}
}

func TestHandlerRunsFirstStepAgainstMarketplace(t *testing.T) {
	upstream := &marketplace{}
	api := httptest.NewServer(upstream)
	defer api.Close()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "onboarding.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	handler, err := NewHandler(store, RuntimeConfig{MarketAPIURL: api.URL, TokenKey: "secret"})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "farmer-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	call := func(method, path, body string) map[string]any {
		t.Helper()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code >= 300 {
			t.Fatalf("%s %s status = %d body = %s", method, path, rr.Code, rr.Body.String())
		}
		var decoded map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return decoded
	}

	created := call(http.MethodPost, "/wizard/sessions", "")
	sessionID, _ := created["data"].(map[string]any)["id"].(string)
	if sessionID == "" {
		t.Fatalf("session id missing in %v", created)
	}
	call(http.MethodPatch, "/wizard/sessions/"+sessionID+"/steps/store-basics", `{"storeName":"Sunny Acres","categories":[3]}`)
	continued := call(http.MethodPost, "/wizard/sessions/"+sessionID+"/steps/store-basics/continue", "")

	data := continued["data"].(map[string]any)
	if data["currentStep"] != "location-logistics" || data["storeId"] != float64(7) {
		t.Fatalf("session after continue = %v", data)
	}
	if got := strings.Join(upstream.calls, ","); got != "POST /api/stores,PUT /api/stores/7/categories" {
		t.Fatalf("upstream calls = %s", got)
	}
	for _, header := range upstream.auth {
		if header != "Bearer "+token {
			t.Fatalf("upstream Authorization = %q, want caller token", header)
		}
	}

	stores := call(http.MethodGet, "/wizard/sessions", "")
	if list, _ := stores["data"].([]any); len(list) != 1 {
		t.Fatalf("sessions = %v, want one", stores["data"])
	}
}

func TestRunRequiresMarketplaceURL(t *testing.T) {
	t.Parallel()

	if err := Run(context.Background(), RuntimeConfig{DBPath: "x.db", TokenKey: "secret"}); err == nil {
		t.Fatal("Run() error = nil, want missing url error")
	}
}

func TestRunRequiresTokenKey(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), RuntimeConfig{DBPath: "x.db", MarketAPIURL: "http://market.test"})
	if err == nil || !strings.Contains(err.Error(), "token verification key") {
		t.Fatalf("Run() error = %v, want missing token key", err)
	}
}

func TestHandlerRejectsTokenSignedWithOtherKey(t *testing.T) {
	upstream := &marketplace{}
	api := httptest.NewServer(upstream)
	defer api.Close()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "onboarding.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	handler, err := NewHandler(store, RuntimeConfig{MarketAPIURL: api.URL, TokenKey: "secret"})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "farmer-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("not-the-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stores", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if len(upstream.calls) != 0 {
		t.Fatalf("upstream calls = %v, want none", upstream.calls)
	}
}
