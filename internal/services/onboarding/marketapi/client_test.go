package marketapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(server.URL, WithTokenSource(StaticToken("token-1")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	t.Parallel()

	if _, err := New("/api"); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestCreateStoreDecodesEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/stores" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("Idempotency-Key header is missing")
		}
		var in StoreInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if in.Name != "Sunny Acres" {
			t.Errorf("storeName = %q", in.Name)
		}
		writeEnvelope(w, http.StatusCreated, `{"success":true,"data":{"storeId":42,"storeName":"Sunny Acres"}}`)
	})

	store, err := client.CreateStore(context.Background(), StoreInput{Name: "Sunny Acres"})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if store.ID != 42 || store.Name != "Sunny Acres" {
		t.Fatalf("store = %+v", store)
	}
}

func TestAPIErrorCarriesFieldErrors(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, `{"success":false,"message":"Conflict","errors":[{"code":"STORE_NAME_EXISTS","message":"Name taken","field":"storeName"}]}`)
	})

	_, err := client.CreateStore(context.Background(), StoreInput{Name: "Dup"})
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("error = %T, want *Error", err)
	}
	if apiErr.Kind != KindAPI || apiErr.Status != http.StatusConflict || apiErr.Code != "STORE_NAME_EXISTS" {
		t.Fatalf("error = %+v", apiErr)
	}
	first, ok := apiErr.FirstFieldError()
	if !ok || first.Field != "storeName" || first.Message != "Name taken" {
		t.Fatalf("first field error = %+v, %v", first, ok)
	}
}

func TestUnsuccessfulEnvelopeOn200IsAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":false,"message":"Category required","errors":[{"code":"CATEGORY_REQUIRED","message":"Pick one"}]}`)
	})

	_, err := client.SetCategories(context.Background(), 1, nil)
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindAPI || apiErr.Status != http.StatusOK || apiErr.Code != "CATEGORY_REQUIRED" {
		t.Fatalf("error = %#v", err)
	}
}

func TestUnauthorizedResponse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `not json`)
	})

	_, err := client.ListStores(context.Background())
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindUnauthorized {
		t.Fatalf("error = %#v, want unauthorized", err)
	}
}

func TestUndecodableErrorIsUnknown(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, `<html>oops</html>`)
	})

	_, err := client.GetStore(context.Background(), 7)
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindUnknown || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("error = %#v, want unknown", err)
	}
}

func TestNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(url, WithTokenSource(StaticToken("t")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.ListStores(context.Background())
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindNetwork {
		t.Fatalf("error = %#v, want network", err)
	}
	if !strings.Contains(err.Error(), "Network Error") {
		t.Fatalf("error text = %q", err.Error())
	}
}

func TestMissingTokenIsUnauthorizedWithoutRequest(t *testing.T) {
	t.Parallel()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	t.Cleanup(server.Close)
	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.ListStores(context.Background())
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindUnauthorized {
		t.Fatalf("error = %#v, want unauthorized", err)
	}
	if called {
		t.Fatal("request should not be sent without a token")
	}
}

func TestContextTokenSourceOverridesClientDefault(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer per-request" {
			t.Errorf("Authorization = %q", got)
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":[]}`)
	})

	ctx := ContextWithTokenSource(context.Background(), StaticToken("per-request"))
	if _, err := client.ListStores(ctx); err != nil {
		t.Fatalf("ListStores: %v", err)
	}
}

func TestUploadImageSendsMultipart(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stores/9/images" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("imageType"); got != "logo" {
			t.Errorf("imageType = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			data, _ := io.ReadAll(file)
			if string(data) != "png-bytes" || header.Filename != `my "logo".png` {
				t.Errorf("file = %q %q", header.Filename, data)
			}
			if got := header.Header.Get("Content-Type"); got != "image/png" {
				t.Errorf("content type = %q", got)
			}
		}
		writeEnvelope(w, http.StatusCreated, `{"success":true,"data":{"imageId":3,"imageType":"logo","url":"https://cdn/x.png"}}`)
	})

	image, err := client.UploadImage(context.Background(), 9, domain.ImageLogo, domain.FileRef{
		Name:        `my "logo".png`,
		ContentType: "image/png",
		Size:        9,
		Data:        []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if image.ID != 3 || image.Kind != domain.ImageLogo {
		t.Fatalf("image = %+v", image)
	}
}

func TestListStoreApplicationsQuery(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/store-applications" || r.URL.Query().Get("status") != "pending" {
			t.Errorf("url = %s", r.URL.String())
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":[{"applicationId":1,"storeId":2,"storeName":"A","status":"pending"}]}`)
	})

	apps, err := client.ListStoreApplications(context.Background(), domain.ApplicationPending)
	if err != nil {
		t.Fatalf("ListStoreApplications: %v", err)
	}
	if len(apps) != 1 || apps[0].StoreID != 2 {
		t.Fatalf("applications = %+v", apps)
	}
}

func TestEndpointPaths(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Method+" "+r.URL.Path)
		mu.Unlock()
		writeEnvelope(w, http.StatusOK, `{"success":true}`)
	})
	ctx := context.Background()

	calls := []func() error{
		func() error { _, err := client.UpdateStore(ctx, 5, StoreInput{Name: "x"}); return err },
		func() error { return client.DeleteStore(ctx, 5) },
		func() error { _, err := client.UpdateAddress(ctx, 5, domain.Address{ID: 11}); return err },
		func() error { return client.DeleteAddress(ctx, 5, 11) },
		func() error { return client.SetOpenHours(ctx, 5, domain.DefaultStoreHours()) },
		func() error { return client.SetPaymentMethods(ctx, 5, []string{"cash"}) },
		func() error { return client.DeleteImage(ctx, 5, 12) },
		func() error { _, err := client.ListPartnerships(ctx, 5); return err },
		func() error { _, err := client.SubmitForReview(ctx, 5); return err },
		func() error { _, err := client.ApproveStoreApplication(ctx, 8, ""); return err },
		func() error { _, err := client.RejectStoreApplication(ctx, 8, "blurry photos"); return err },
	}
	for i, fn := range calls {
		if err := fn(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"PUT /api/stores/5",
		"DELETE /api/stores/5",
		"PUT /api/stores/5/addresses/11",
		"DELETE /api/stores/5/addresses/11",
		"PUT /api/stores/5/open-hours",
		"PUT /api/stores/5/payment-methods",
		"DELETE /api/stores/5/images/12",
		"GET /api/partnerships/store/5",
		"POST /api/store-submissions/5/submit-for-review",
		"POST /api/admin/store-applications/8/approve",
		"POST /api/admin/store-applications/8/reject",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("requests =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := error(networkError(cause))
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}
