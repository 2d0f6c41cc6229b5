// Package config loads service configuration from the process environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable read through ParsePrefixedEnv.
const EnvPrefix = "FARMSTAND_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParsePrefixedEnv loads configuration whose env tags omit the shared
// FARMSTAND_ prefix, optionally scoped further by a service segment
// (for example "ONBOARDING" reads FARMSTAND_ONBOARDING_<TAG>).
func ParsePrefixedEnv(target any, service string) error {
	prefix := EnvPrefix
	if segment := strings.Trim(strings.ToUpper(strings.TrimSpace(service)), "_"); segment != "" {
		prefix += segment + "_"
	}
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
