// Package onboarding parses onboarding command flags and launches the
// onboarding runtime.
package onboarding

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/farmstand.market/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/farmstand.market/internal/platform/grpc"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/app"
)

// Config holds onboarding command configuration.
type Config struct {
	HTTPAddr     string        `env:"FARMSTAND_ONBOARDING_HTTP_ADDR" envDefault:":8080"`
	HealthAddr   string        `env:"FARMSTAND_ONBOARDING_HEALTH_ADDR" envDefault:":8081"`
	DBPath       string        `env:"FARMSTAND_ONBOARDING_DB_PATH" envDefault:"data/onboarding.db"`
	MarketAPIURL string        `env:"FARMSTAND_ONBOARDING_MARKET_API_URL"`
	LoginPath    string        `env:"FARMSTAND_ONBOARDING_LOGIN_PATH" envDefault:"/login"`
	TokenKey     string        `env:"FARMSTAND_ONBOARDING_TOKEN_KEY"`
	TokenIssuer  string        `env:"FARMSTAND_ONBOARDING_TOKEN_ISSUER"`
	ProbeTimeout time.Duration `env:"FARMSTAND_ONBOARDING_PROBE_TIMEOUT" envDefault:"2s"`
	// CheckHealth probes a running instance's health listener and exits.
	CheckHealth bool
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The onboarding HTTP listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "The gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The onboarding sqlite database path")
	fs.StringVar(&cfg.MarketAPIURL, "market-api-url", cfg.MarketAPIURL, "The marketplace API base URL")
	fs.StringVar(&cfg.LoginPath, "login-path", cfg.LoginPath, "Where signed-out users are redirected")
	fs.StringVar(&cfg.TokenIssuer, "token-issuer", cfg.TokenIssuer, "The required iss claim of caller tokens")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "The health probe timeout")
	fs.BoolVar(&cfg.CheckHealth, "check-health", false, "Probe the health listener and exit")

	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the onboarding runtime, or probes a running one when
// cfg.CheckHealth is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.CheckHealth {
		if err := platformgrpc.Probe(ctx, probeAddr(cfg.HealthAddr), cfg.ProbeTimeout); err != nil {
			return fmt.Errorf("health check %s: %w", cfg.HealthAddr, err)
		}
		return nil
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOnboarding, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			HTTPAddr:     cfg.HTTPAddr,
			HealthAddr:   cfg.HealthAddr,
			DBPath:       cfg.DBPath,
			MarketAPIURL: cfg.MarketAPIURL,
			LoginPath:    cfg.LoginPath,
			TokenKey:     cfg.TokenKey,
			TokenIssuer:  cfg.TokenIssuer,
		})
	})
}

// probeAddr turns a listen address like ":8081" into a dialable one.
func probeAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
