package config_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/louisbranch/farmstand.market/internal/platform/config"
)

const exitCaseEnv = "FARMSTAND_TEST_EXIT_CASE"

// exitCases run in a subprocess because os.Exit cannot be intercepted.
var exitCases = map[string]func(){
	"exitf":         func() { config.Exitf("Error: %v", errors.New("open onboarding store: disk full")) },
	"exitf-newline": func() { config.Exitf("already terminated\n") },
	"exit-on-error": func() { config.ExitOnError("prune drafts", errors.New("-max-age must be > 0")) },
	"exit-on-nil":   func() { config.ExitOnError("prune drafts", nil) },
}

func TestExitHelpers(t *testing.T) {
	if name := os.Getenv(exitCaseEnv); name != "" {
		exitCases[name]()
		return
	}

	tests := []struct {
		name     string
		wantCode int
		wantOut  string
	}{
		{name: "exitf", wantCode: 1, wantOut: "Error: open onboarding store: disk full\n"},
		{name: "exitf-newline", wantCode: 1, wantOut: "already terminated\n"},
		{name: "exit-on-error", wantCode: 1, wantOut: "prune drafts: -max-age must be > 0\n"},
		{name: "exit-on-nil", wantCode: 0, wantOut: ""},
	}
	for _, tc := range tests {
		cmd := exec.Command(os.Args[0], "-test.run=^TestExitHelpers$")
		cmd.Env = append(os.Environ(), exitCaseEnv+"="+tc.name)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		err := cmd.Run()
		code := 0
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else if err != nil {
			t.Fatalf("%s: run subprocess: %v", tc.name, err)
		}
		if code != tc.wantCode {
			t.Fatalf("%s: exit code = %d, want %d", tc.name, code, tc.wantCode)
		}
		if got := stderr.String(); got != tc.wantOut {
			t.Fatalf("%s: stderr = %q, want %q", tc.name, got, tc.wantOut)
		}
	}
}
