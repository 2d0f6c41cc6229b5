package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create store: %w", New(CodeStoreNameExists, "name taken"))
	if !stderrors.Is(err, New(CodeStoreNameExists, "")) {
		t.Fatal("expected code match through wrap")
	}
	if stderrors.Is(err, New(CodeStoreNotFound, "")) {
		t.Fatal("unexpected match for different code")
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	if got := CodeOf(Wrap(CodeNetwork, "dial", stderrors.New("refused"))); got != CodeNetwork {
		t.Fatalf("CodeOf = %q, want %q", got, CodeNetwork)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, CodeUnknown)
	}
}

func TestCodeMappings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     Code
		grpcCode codes.Code
		http     int
	}{
		{CodeValidation, codes.InvalidArgument, http.StatusUnprocessableEntity},
		{CodeWizardPhaseTransition, codes.FailedPrecondition, http.StatusConflict},
		{CodeStoreNameExists, codes.AlreadyExists, http.StatusConflict},
		{CodeStoreNotFound, codes.NotFound, http.StatusNotFound},
		{CodeUnauthorized, codes.Unauthenticated, http.StatusUnauthorized},
		{CodePermissionDenied, codes.PermissionDenied, http.StatusForbidden},
		{CodeNetwork, codes.Unavailable, http.StatusBadGateway},
		{CodeUnknown, codes.Internal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.GRPCCode(); got != tc.grpcCode {
			t.Fatalf("%s GRPCCode = %v, want %v", tc.code, got, tc.grpcCode)
		}
		if got := tc.code.HTTPStatus(); got != tc.http {
			t.Fatalf("%s HTTPStatus = %d, want %d", tc.code, got, tc.http)
		}
	}
}
