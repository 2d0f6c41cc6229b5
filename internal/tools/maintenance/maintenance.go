// Package maintenance prunes abandoned onboarding drafts.
package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	entrypoint "github.com/louisbranch/farmstand.market/internal/platform/cmd"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage/sqlite"
)

// Config holds maintenance command configuration.
type Config struct {
	DBPath     string        `env:"FARMSTAND_ONBOARDING_DB_PATH"`
	MaxAge     time.Duration `env:"FARMSTAND_MAINTENANCE_MAX_AGE" envDefault:"720h"`
	Timeout    time.Duration `env:"FARMSTAND_MAINTENANCE_TIMEOUT" envDefault:"10m"`
	DryRun     bool
	JSONOutput bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

// ParseConfig reads the environment and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "onboarding.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the onboarding sqlite database (default: FARMSTAND_ONBOARDING_DB_PATH or data/onboarding.db)")
	fs.DurationVar(&cfg.MaxAge, "max-age", cfg.MaxAge, "prune drafts not updated within this window")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "count stale drafts without deleting them")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Report summarizes one prune run.
type Report struct {
	Cutoff  time.Time `json:"cutoff"`
	DryRun  bool      `json:"dryRun"`
	Stale   int64     `json:"stale"`
	Removed int64     `json:"removed"`
}

// Run prunes drafts last updated before now minus cfg.MaxAge and writes a
// report to out.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.MaxAge <= 0 {
		return errors.New("-max-age must be > 0")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open onboarding store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "Warning: close onboarding store: %v\n", closeErr)
		}
	}()

	report := Report{Cutoff: now().UTC().Add(-cfg.MaxAge), DryRun: cfg.DryRun}
	report.Stale, err = store.CountStaleSessions(ctx, report.Cutoff)
	if err != nil {
		return err
	}
	if !cfg.DryRun && report.Stale > 0 {
		report.Removed, err = store.DeleteStaleSessions(ctx, report.Cutoff)
		if err != nil {
			return err
		}
	}

	if cfg.JSONOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	if cfg.DryRun {
		fmt.Fprintf(out, "%d stale drafts before %s (dry run)\n", report.Stale, report.Cutoff.Format(time.RFC3339))
		return nil
	}
	fmt.Fprintf(out, "removed %d stale drafts before %s\n", report.Removed, report.Cutoff.Format(time.RFC3339))
	return nil
}
