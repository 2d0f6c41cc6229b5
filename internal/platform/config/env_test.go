package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"FARMSTAND_TEST_PORT" envDefault:"123"`
}

type prefixedTestConfig struct {
	DBPath string `env:"DB_PATH" envDefault:"data/test.db"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("FARMSTAND_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParsePrefixedEnvScopesService(t *testing.T) {
	t.Setenv("FARMSTAND_ONBOARDING_DB_PATH", "/tmp/onboarding.db")

	var cfg prefixedTestConfig
	if err := ParsePrefixedEnv(&cfg, "onboarding"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/onboarding.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/onboarding.db")
	}
}

func TestParsePrefixedEnvWithoutServiceUsesSharedPrefix(t *testing.T) {
	t.Setenv("FARMSTAND_DB_PATH", "/tmp/shared.db")

	var cfg prefixedTestConfig
	if err := ParsePrefixedEnv(&cfg, " "); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/shared.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/shared.db")
	}
}
