package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
)

func TestProbeServingListener(t *testing.T) {
	addr, _ := serveHealth(t, true)

	if err := Probe(context.Background(), addr, 2*time.Second); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
}

func TestProbeNotServingFailsAtHealthStage(t *testing.T) {
	addr, _ := serveHealth(t, false)

	start := time.Now()
	err := Probe(context.Background(), addr, 300*time.Millisecond)
	var dialErr *DialError
	if !errors.As(err, &dialErr) || dialErr.Stage != DialStageHealth {
		t.Fatalf("Probe() error = %v, want health stage DialError", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Probe() took %v, want bounded by timeout", elapsed)
	}
}

func TestDialWithHealthConnectFailure(t *testing.T) {
	dialer := DialerFunc(func(context.Context, string, ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
		return nil, fmt.Errorf("dial failure")
	})

	_, err := DialWithHealth(context.Background(), dialer, "unused", time.Second, nil)
	var dialErr *DialError
	if !errors.As(err, &dialErr) || dialErr.Stage != DialStageConnect {
		t.Fatalf("DialWithHealth() error = %v, want connect stage", err)
	}
}

func TestDialErrorFormatting(t *testing.T) {
	wrapped := &DialError{Stage: DialStageConnect, Err: fmt.Errorf("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("Error() = %q", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("Unwrap() = nil")
	}

	var nilErr *DialError
	if nilErr.Error() == "" || nilErr.Unwrap() != nil {
		t.Fatal("nil DialError should format and unwrap to nil")
	}
}
