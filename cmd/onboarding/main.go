// Package main starts the onboarding service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	onboardingcmd "github.com/louisbranch/farmstand.market/internal/cmd/onboarding"
	entrypoint "github.com/louisbranch/farmstand.market/internal/platform/cmd"
)

func main() {
	cfg, err := onboardingcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceOnboarding))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := onboardingcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
