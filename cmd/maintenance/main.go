// Package main prunes stale onboarding drafts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/farmstand.market/internal/platform/cmd"
	"github.com/louisbranch/farmstand.market/internal/platform/config"
	"github.com/louisbranch/farmstand.market/internal/tools/maintenance"
)

func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceMaintenance))
	cfg, err := maintenance.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	config.ExitOnError("prune drafts", entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMaintenance, func(ctx context.Context) error {
		return maintenance.Run(ctx, cfg, os.Stdout, os.Stderr)
	}))
}
